package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/soaringjerry/Scamwatch/internal/identifier"
)

type DisputeStore interface {
	InsertDispute(d *Dispute) error
	GetDispute(id string) (*Dispute, error)
	UpdateDispute(d *Dispute) error
	ListDisputes(status DisputeStatus) ([]*Dispute, error)
	AddAudit(entry AuditEntry)
}

type DisputeService struct {
	store DisputeStore
	now   func() time.Time
	idGen func() string
}

type FileDisputeRequest struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
	Contact    string `json:"contact,omitempty"`
}

func NewDisputeService(store DisputeStore) *DisputeService {
	return &DisputeService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return "d" + shortID(11) },
	}
}

func (s *DisputeService) File(req FileDisputeRequest) (*Dispute, error) {
	ident, err := identifier.Normalize("", req.Identifier)
	if err != nil {
		return nil, NewInvalidError("identifier is not valid")
	}
	reason := strings.TrimSpace(req.Reason)
	if n := utf8.RuneCountInString(reason); n < 10 || n > 2000 {
		return nil, NewInvalidError("reason must be 10-2000 characters")
	}
	contact := strings.TrimSpace(req.Contact)
	if len(contact) > 200 {
		return nil, NewInvalidError("contact too long")
	}
	d := &Dispute{
		ID:         s.idGen(),
		Identifier: ident,
		Reason:     reason,
		Contact:    contact,
		Status:     DisputePending,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertDispute(d); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: d.CreatedAt, Actor: "public", Action: "file_dispute", Target: d.ID, Note: ident})
	return d, nil
}

// List returns disputes with the given status, or all of them for "".
func (s *DisputeService) List(status string) ([]*Dispute, error) {
	st := DisputeStatus(strings.ToLower(strings.TrimSpace(status)))
	switch st {
	case "", DisputePending, DisputeUpheld, DisputeRejected:
	default:
		return nil, NewInvalidError("unknown dispute status")
	}
	return s.store.ListDisputes(st)
}

func (s *DisputeService) Resolve(id, outcome, actor string) (*Dispute, error) {
	st := DisputeStatus(strings.ToLower(strings.TrimSpace(outcome)))
	if st != DisputeUpheld && st != DisputeRejected {
		return nil, NewInvalidError("outcome must be upheld or rejected")
	}
	d, err := s.store.GetDispute(id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, NewNotFoundError("dispute not found")
	}
	if d.Status != DisputePending {
		return nil, NewConflictError("dispute already resolved")
	}
	now := s.now()
	d.Status = st
	d.ResolvedAt = &now
	d.ResolvedBy = actor
	if err := s.store.UpdateDispute(d); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor, Action: "resolve_dispute", Target: d.ID, Note: string(st)})
	return d, nil
}
