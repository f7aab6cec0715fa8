package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/soaringjerry/Scamwatch/internal/identifier"
	"github.com/soaringjerry/Scamwatch/internal/trust"
	"github.com/soaringjerry/Scamwatch/internal/utils"
)

// SessionStore keeps short-lived conversation state. Implementations live
// in internal/sessions.
type SessionStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type ReportSubmitter interface {
	Submit(req SubmitReportRequest) (*SubmitReportResult, error)
}

type IdentifierChecker interface {
	Check(raw string) (*CheckResult, error)
}

type WizardStep string

const (
	StepMenu              WizardStep = "menu"
	StepCheckIdentifier   WizardStep = "check_identifier"
	StepReportType        WizardStep = "report_type"
	StepReportIdentifier  WizardStep = "report_identifier"
	StepReportDescription WizardStep = "report_description"
	StepReportAmount      WizardStep = "report_amount"
	StepReportConfirm     WizardStep = "report_confirm"
)

// WizardState is everything the wizard remembers between messages.
type WizardState struct {
	Step        WizardStep `json:"step"`
	Locale      string     `json:"locale,omitempty"`
	ScamType    string     `json:"scam_type,omitempty"`
	Identifier  string     `json:"identifier,omitempty"`
	Description string     `json:"description,omitempty"`
	AmountLost  float64    `json:"amount_lost,omitempty"`
}

type WizardService struct {
	sessions SessionStore
	reports  ReportSubmitter
	lookup   IdentifierChecker
	ttl      time.Duration
}

func NewWizardService(sessions SessionStore, reports ReportSubmitter, lookup IdentifierChecker, ttl time.Duration) *WizardService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &WizardService{sessions: sessions, reports: reports, lookup: lookup, ttl: ttl}
}

func sessionKey(sender string) string { return "wizard:" + sender }

// Handle advances the conversation with sender by one message and returns
// the reply text. sender is the messaging address, e.g. "whatsapp:+2547...".
func (s *WizardService) Handle(ctx context.Context, sender, locale, text string) (string, error) {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return "", NewInvalidError("sender required")
	}
	st, err := s.load(ctx, sender)
	if err != nil {
		return "", err
	}
	if st.Locale == "" {
		st.Locale = locale
	}
	loc := st.Locale
	input := strings.TrimSpace(text)
	cmd := strings.ToLower(input)

	switch cmd {
	case "0", "menu":
		st = WizardState{Step: StepMenu, Locale: loc}
		return utils.T(loc, "wizard.menu"), s.save(ctx, sender, st)
	case "cancel", "ghairi":
		return utils.T(loc, "wizard.cancelled"), s.sessions.Delete(ctx, sessionKey(sender))
	}

	var reply string
	switch st.Step {
	case StepCheckIdentifier:
		res, err := s.lookup.Check(input)
		if err != nil {
			if _, ok := AsServiceError(err); ok {
				return utils.T(loc, "wizard.invalid") + "\n" + utils.T(loc, "wizard.ask_identifier"), nil
			}
			return "", err
		}
		a := res.Assessment
		reply = utils.Tf(loc, "wizard.check_result", res.Identifier, utils.T(loc, "concern."+string(a.ConcernLevel)), a.TotalReports, a.VerifiedReports) +
			"\n" + trust.Disclaimer
		return reply, s.sessions.Delete(ctx, sessionKey(sender))

	case StepReportType:
		t, ok := parseTypeChoice(cmd)
		if !ok {
			return utils.T(loc, "wizard.invalid") + "\n" + utils.Tf(loc, "wizard.ask_type", scamTypeMenu()), nil
		}
		st.ScamType = string(t)
		st.Step = StepReportIdentifier
		reply = utils.T(loc, "wizard.ask_identifier")

	case StepReportIdentifier:
		ident, err := identifier.Normalize("", input)
		if err != nil {
			return utils.T(loc, "wizard.invalid") + "\n" + utils.T(loc, "wizard.ask_identifier"), nil
		}
		st.Identifier = ident
		st.Step = StepReportDescription
		reply = utils.T(loc, "wizard.ask_description")

	case StepReportDescription:
		if n := utf8.RuneCountInString(input); n < minDescriptionLen || n > maxDescriptionLen {
			return utils.T(loc, "wizard.ask_description"), nil
		}
		st.Description = input
		st.Step = StepReportAmount
		reply = utils.T(loc, "wizard.ask_amount")

	case StepReportAmount:
		amt, ok := parseAmount(input)
		if !ok {
			return utils.T(loc, "wizard.invalid") + "\n" + utils.T(loc, "wizard.ask_amount"), nil
		}
		st.AmountLost = amt
		st.Step = StepReportConfirm
		reply = utils.Tf(loc, "wizard.confirm", st.Identifier, trust.ScamType(st.ScamType).Label(), st.Description)

	case StepReportConfirm:
		switch cmd {
		case "yes", "y", "ndio", "ndiyo":
			res, err := s.reports.Submit(SubmitReportRequest{
				Identifier:    st.Identifier,
				ScamType:      st.ScamType,
				Description:   st.Description,
				AmountLost:    st.AmountLost,
				ReporterPhone: strings.TrimPrefix(sender, "whatsapp:"),
			})
			if delErr := s.sessions.Delete(ctx, sessionKey(sender)); delErr != nil {
				return "", delErr
			}
			if err != nil {
				if se, ok := AsServiceError(err); ok {
					return utils.Tf(loc, "wizard.failed", se.Message), nil
				}
				return "", err
			}
			return utils.Tf(loc, "wizard.submitted", res.ID), nil
		case "no", "n", "hapana":
			return utils.T(loc, "wizard.cancelled"), s.sessions.Delete(ctx, sessionKey(sender))
		default:
			return utils.Tf(loc, "wizard.confirm", st.Identifier, trust.ScamType(st.ScamType).Label(), st.Description), nil
		}

	default:
		switch cmd {
		case "1":
			st.Step = StepCheckIdentifier
			reply = utils.T(loc, "wizard.ask_identifier")
		case "2":
			st.Step = StepReportType
			reply = utils.Tf(loc, "wizard.ask_type", scamTypeMenu())
		default:
			st.Step = StepMenu
			reply = utils.T(loc, "wizard.menu")
		}
	}
	return reply, s.save(ctx, sender, st)
}

func (s *WizardService) load(ctx context.Context, sender string) (WizardState, error) {
	raw, ok, err := s.sessions.Get(ctx, sessionKey(sender))
	if err != nil {
		return WizardState{}, err
	}
	if !ok {
		return WizardState{Step: StepMenu}, nil
	}
	var st WizardState
	if err := json.Unmarshal(raw, &st); err != nil || st.Step == "" {
		// unreadable state restarts the conversation
		return WizardState{Step: StepMenu}, nil
	}
	return st, nil
}

func (s *WizardService) save(ctx context.Context, sender string, st WizardState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.sessions.Set(ctx, sessionKey(sender), raw, s.ttl)
}

func scamTypeMenu() string {
	lines := make([]string, len(trust.ScamTypes))
	for i, t := range trust.ScamTypes {
		lines[i] = fmt.Sprintf("%d. %s", i+1, t.Label())
	}
	return strings.Join(lines, "\n")
}

func parseTypeChoice(s string) (trust.ScamType, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(trust.ScamTypes) {
			return trust.ScamTypes[n-1], true
		}
		return "", false
	}
	return trust.ParseScamType(s)
}

func parseAmount(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "kes")
	s = strings.TrimPrefix(s, "ksh")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
