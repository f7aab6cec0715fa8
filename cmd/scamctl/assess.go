package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Scamwatch/internal/trust"
)

// reportInput is the JSON shape accepted by assess.
type reportInput struct {
	ID                string     `json:"id"`
	Identifier        string     `json:"identifier"`
	ScamType          string     `json:"scam_type"`
	Description       string     `json:"description"`
	AmountLost        float64    `json:"amount_lost"`
	EvidenceURL       string     `json:"evidence_url"`
	TransactionID     string     `json:"transaction_id"`
	ReporterVerified  bool       `json:"reporter_verified"`
	ReporterPhoneHash string     `json:"reporter_phone_hash"`
	ReporterIPHash    string     `json:"reporter_ip_hash"`
	CreatedAt         time.Time  `json:"created_at"`
	Tier              int        `json:"tier"`
	IsExpired         bool       `json:"is_expired"`
	ExpiresAt         *time.Time `json:"expires_at"`
}

func (in reportInput) toReport() trust.Report {
	r := trust.Report{
		ID:                in.ID,
		Identifier:        in.Identifier,
		ScamType:          trust.ScamType(in.ScamType),
		Description:       in.Description,
		AmountLost:        in.AmountLost,
		EvidenceURL:       in.EvidenceURL,
		TransactionID:     in.TransactionID,
		ReporterVerified:  in.ReporterVerified,
		ReporterPhoneHash: in.ReporterPhoneHash,
		ReporterIPHash:    in.ReporterIPHash,
		CreatedAt:         in.CreatedAt,
		Tier:              trust.Tier(in.Tier),
		IsExpired:         in.IsExpired,
		ExpiresAt:         in.ExpiresAt,
	}
	r.EvidenceScore = trust.EvidenceScore(r.Evidence())
	if !r.Tier.Valid() {
		r.Tier = trust.Classify(r.EvidenceScore, 1, false)
	}
	return r
}

type assessOutput struct {
	Assessment           trust.Assessment  `json:"assessment"`
	Correlation          trust.Correlation `json:"correlation"`
	IndependentReporters int               `json:"independent_reporters"`
	ActiveReports        int               `json:"active_reports"`
}

func assessReports(r io.Reader, hasDisputes bool, now time.Time) (*assessOutput, error) {
	var in []reportInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	reports := make([]trust.Report, 0, len(in))
	for _, ri := range in {
		rep := ri.toReport()
		if trust.ShouldExpire(rep, now) {
			rep.IsExpired = true
		}
		reports = append(reports, rep)
	}
	active := trust.ActiveReports(reports)
	return &assessOutput{
		Assessment:           trust.Assess(reports, hasDisputes, now),
		Correlation:          trust.DetectCorrelation(active, now),
		IndependentReporters: trust.CountIndependentReporters(active),
		ActiveReports:        len(active),
	}, nil
}

func newAssessCmd() *cobra.Command {
	var (
		disputes bool
		asJSON   bool
		at       string
	)
	cmd := &cobra.Command{
		Use:   "assess <reports.json>",
		Short: "Run the trust engine over a JSON array of reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = t
			}
			var src io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}
			out, err := assessReports(src, disputes, now)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			a := out.Assessment
			fmt.Fprintf(w, "%s %s (score %d)\n", labelStyle.Render("Concern:"), concernBadge(a.ConcernLevel), a.ConcernScore)
			fmt.Fprintf(w, "%s %d total, %d verified, %d active, %d independent\n",
				labelStyle.Render("Reports:"), a.TotalReports, a.VerifiedReports, out.ActiveReports, out.IndependentReporters)
			fmt.Fprintf(w, "%s KES %.2f\n", labelStyle.Render("Lost:"), a.TotalAmountLost)
			fmt.Fprintf(w, "%s independent=%v confidence=%.2f flags=%v\n",
				labelStyle.Render("Correlation:"), out.Correlation.IsIndependent, out.Correlation.Confidence, out.Correlation.Flags)
			fmt.Fprintln(w, mutedStyle.Render(a.Disclaimer))
			return nil
		},
	}
	cmd.Flags().BoolVar(&disputes, "disputed", false, "treat the identifier as having an open dispute")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this RFC3339 time instead of now")
	return cmd
}

func newScoreCmd() *cobra.Command {
	var e trust.Evidence
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the evidence score for a hypothetical report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			score := trust.EvidenceScore(e)
			tier := trust.Classify(score, 1, false)
			expires := trust.ComputeExpiresAt(score, e.ReporterVerified, time.Now().UTC())
			exp := "never"
			if expires != nil {
				exp = expires.Format(time.RFC3339)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "evidence_score=%d/%d tier=%s expires=%s\n", score, trust.MaxEvidenceScore, tier, exp)
			return nil
		},
	}
	cmd.Flags().StringVar(&e.EvidenceURL, "evidence-url", "", "evidence URL")
	cmd.Flags().StringVar(&e.TransactionID, "transaction-id", "", "M-Pesa transaction id")
	cmd.Flags().StringVar(&e.Description, "description", "", "report description")
	cmd.Flags().BoolVar(&e.ReporterVerified, "verified", false, "reporter phone is verified")
	cmd.Flags().Float64Var(&e.AmountLost, "amount", 0, "amount lost in KES")
	return cmd
}
