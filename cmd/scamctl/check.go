package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Scamwatch/internal/services"
)

func newCheckCmd() *cobra.Command {
	var (
		dbPath string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "check <identifier>",
		Short: "Show the community concern for an identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openDB(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()
			res, err := services.NewLookupService(st).Check(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printCheck(cmd.OutOrStdout(), res)
			return nil
		},
	}
	dbFlag(cmd, &dbPath)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func printCheck(w io.Writer, res *services.CheckResult) {
	a := res.Assessment
	fmt.Fprintf(w, "%s %s (%s)\n", labelStyle.Render("Identifier:"), res.Identifier, res.Kind)
	fmt.Fprintf(w, "%s %s (score %d)\n", labelStyle.Render("Concern:"), concernBadge(a.ConcernLevel), a.ConcernScore)
	fmt.Fprintf(w, "%s %d active, %d corroborated or verified\n", labelStyle.Render("Reports:"), a.TotalReports, a.VerifiedReports)
	if res.OfficialSource {
		fmt.Fprintln(w, labelStyle.Render("Listed by an official source"))
	}
	if a.HasDisputes {
		fmt.Fprintln(w, mutedStyle.Render("The owner has disputed these reports."))
	}
	for _, r := range res.Reports {
		fmt.Fprintf(w, "  %s  %-12s %-12s %s\n", r.CreatedAt.Format("2006-01-02"), r.TierLabel, r.ScamType, truncateLine(r.Description, 60))
	}
	fmt.Fprintln(w, mutedStyle.Render(a.Disclaimer))
}

func truncateLine(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
