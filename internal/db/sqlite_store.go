package db

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/Scamwatch/internal/api"
	"github.com/soaringjerry/Scamwatch/internal/identifier"
	"github.com/soaringjerry/Scamwatch/internal/logging"
	"github.com/soaringjerry/Scamwatch/internal/services"
	"github.com/soaringjerry/Scamwatch/internal/trust"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteStore struct {
	db *sql.DB
}

var _ api.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Open opens (creating if needed) the database at path, applies migrations
// and returns the store. ":memory:" gives a private in-memory database.
func Open(path, migrationsDir string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.ToSlash(path))
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := RunMigrations(sqlDB, migrationsDir); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	st, err := NewSQLiteStore(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return st, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		logging.Error("sqlite store: "+prefix, "err", err)
	}
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t.UTC()
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func timePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

// ---- reports ----

const reportColumns = `id, identifier, identifier_kind, scam_type, description, amount_lost, evidence_url,
	transaction_id, reporter_verified, reporter_phone_hash, reporter_ip_hash, created_at, tier,
	evidence_score, is_expired, expires_at, hidden`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(sc rowScanner) (*services.Report, error) {
	var (
		r                         services.Report
		kind, scamType, createdAt string
		verified, expired, hidden int64
		tier                      int
		expiresAt                 sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Identifier, &kind, &scamType, &r.Description, &r.AmountLost, &r.EvidenceURL,
		&r.TransactionID, &verified, &r.ReporterPhoneHash, &r.ReporterIPHash, &createdAt, &tier,
		&r.EvidenceScore, &expired, &expiresAt, &hidden); err != nil {
		return nil, err
	}
	r.IdentifierKind = identifier.Kind(kind)
	r.ScamType = trust.ScamType(scamType)
	r.ReporterVerified = verified != 0
	r.CreatedAt = parseTime(createdAt)
	r.Tier = trust.Tier(tier)
	r.IsExpired = expired != 0
	r.ExpiresAt = timePtr(expiresAt)
	r.Hidden = hidden != 0
	return &r, nil
}

func (s *SQLiteStore) queryReports(query string, args ...any) ([]*services.Report, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertReport(r *services.Report) error {
	_, err := s.db.Exec(`INSERT INTO reports(`+reportColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.Identifier, string(r.IdentifierKind), string(r.ScamType), r.Description, r.AmountLost, r.EvidenceURL,
		r.TransactionID, boolToInt64(r.ReporterVerified), r.ReporterPhoneHash, r.ReporterIPHash, formatTime(r.CreatedAt), int(r.Tier),
		r.EvidenceScore, boolToInt64(r.IsExpired), nullTime(r.ExpiresAt), boolToInt64(r.Hidden))
	return err
}

func (s *SQLiteStore) ListReportsByIdentifier(ident string) ([]*services.Report, error) {
	return s.queryReports(`SELECT `+reportColumns+` FROM reports WHERE identifier = ? AND hidden = 0 ORDER BY created_at`, ident)
}

// UpdateReportTier raises the report's tier. A lower tier is ignored.
func (s *SQLiteStore) UpdateReportTier(id string, tier trust.Tier) error {
	_, err := s.db.Exec(`UPDATE reports SET tier = ? WHERE id = ? AND tier < ?`, int(tier), id, int(tier))
	return err
}

func (s *SQLiteStore) ListRecentReports(limit int) ([]*services.Report, error) {
	return s.queryReports(`SELECT `+reportColumns+` FROM reports WHERE hidden = 0 AND is_expired = 0 ORDER BY created_at DESC LIMIT ?`, limit)
}

func (s *SQLiteStore) SearchIdentifiers(query string, limit int) ([]string, error) {
	esc := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	rows, err := s.db.Query(`SELECT DISTINCT identifier FROM reports WHERE hidden = 0 AND identifier LIKE ? ESCAPE '\' ORDER BY identifier LIMIT ?`,
		"%"+esc+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var ident string
		if err := rows.Scan(&ident); err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkReportsExpired(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`UPDATE reports SET is_expired = 1 WHERE id = ?`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.Exec(id); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListUnexpiredReports() ([]*services.Report, error) {
	return s.queryReports(`SELECT ` + reportColumns + ` FROM reports WHERE is_expired = 0`)
}

func (s *SQLiteStore) ListReports(f services.ReportFilter) ([]*services.Report, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeHidden {
		where = append(where, "hidden = 0")
	}
	if f.Identifier != "" {
		where = append(where, "identifier = ?")
		args = append(args, f.Identifier)
	}
	if f.ScamType != "" {
		where = append(where, "scam_type = ?")
		args = append(args, string(f.ScamType))
	}
	q := `SELECT ` + reportColumns + ` FROM reports`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.queryReports(q, args...)
}

func (s *SQLiteStore) SetReportHidden(id string, hidden bool) (bool, error) {
	res, err := s.db.Exec(`UPDATE reports SET hidden = ? WHERE id = ?`, boolToInt64(hidden), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) PromoteIdentifier(ident string, tier trust.Tier) (int, error) {
	res, err := s.db.Exec(`UPDATE reports SET tier = ? WHERE identifier = ? AND is_expired = 0 AND tier < ?`, int(tier), ident, int(tier))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ---- official sources & verified phones ----

func (s *SQLiteStore) AddOfficialSource(src *services.OfficialSource) error {
	_, err := s.db.Exec(`INSERT INTO official_sources(id, identifier, source, url, added_by, created_at) VALUES(?,?,?,?,?,?)`,
		src.ID, src.Identifier, src.Source, src.URL, src.AddedBy, formatTime(src.CreatedAt))
	return err
}

func (s *SQLiteStore) exists(query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRow(query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) HasOfficialSource(ident string) (bool, error) {
	return s.exists(`SELECT 1 FROM official_sources WHERE identifier = ? LIMIT 1`, ident)
}

func (s *SQLiteStore) IsPhoneVerified(phoneHash string) (bool, error) {
	return s.exists(`SELECT 1 FROM verified_phones WHERE phone_hash = ?`, phoneHash)
}

func (s *SQLiteStore) MarkPhoneVerified(phoneHash string, at time.Time) error {
	_, err := s.db.Exec(`INSERT INTO verified_phones(phone_hash, verified_at) VALUES(?, ?)
		ON CONFLICT(phone_hash) DO UPDATE SET verified_at = excluded.verified_at`, phoneHash, formatTime(at))
	return err
}

// ---- otp ----

func (s *SQLiteStore) GetOTP(phoneHash string) (*services.OTP, error) {
	var (
		o       services.OTP
		expires string
	)
	err := s.db.QueryRow(`SELECT phone_hash, code_hash, expires_at, attempts FROM otp_codes WHERE phone_hash = ?`, phoneHash).
		Scan(&o.PhoneHash, &o.CodeHash, &expires, &o.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.ExpiresAt = parseTime(expires)
	return &o, nil
}

func (s *SQLiteStore) PutOTP(o *services.OTP) error {
	_, err := s.db.Exec(`INSERT INTO otp_codes(phone_hash, code_hash, expires_at, attempts) VALUES(?,?,?,?)
		ON CONFLICT(phone_hash) DO UPDATE SET code_hash = excluded.code_hash, expires_at = excluded.expires_at, attempts = excluded.attempts`,
		o.PhoneHash, o.CodeHash, formatTime(o.ExpiresAt), o.Attempts)
	return err
}

func (s *SQLiteStore) DeleteOTP(phoneHash string) error {
	_, err := s.db.Exec(`DELETE FROM otp_codes WHERE phone_hash = ?`, phoneHash)
	return err
}

// ---- disputes ----

const disputeColumns = `id, identifier, reason, contact, status, created_at, resolved_at, resolved_by`

func scanDispute(sc rowScanner) (*services.Dispute, error) {
	var (
		d          services.Dispute
		status     string
		createdAt  string
		resolvedAt sql.NullString
	)
	if err := sc.Scan(&d.ID, &d.Identifier, &d.Reason, &d.Contact, &status, &createdAt, &resolvedAt, &d.ResolvedBy); err != nil {
		return nil, err
	}
	d.Status = services.DisputeStatus(status)
	d.CreatedAt = parseTime(createdAt)
	d.ResolvedAt = timePtr(resolvedAt)
	return &d, nil
}

func (s *SQLiteStore) InsertDispute(d *services.Dispute) error {
	_, err := s.db.Exec(`INSERT INTO disputes(`+disputeColumns+`) VALUES(?,?,?,?,?,?,?,?)`,
		d.ID, d.Identifier, d.Reason, d.Contact, string(d.Status), formatTime(d.CreatedAt), nullTime(d.ResolvedAt), d.ResolvedBy)
	return err
}

func (s *SQLiteStore) GetDispute(id string) (*services.Dispute, error) {
	d, err := scanDispute(s.db.QueryRow(`SELECT `+disputeColumns+` FROM disputes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (s *SQLiteStore) UpdateDispute(d *services.Dispute) error {
	res, err := s.db.Exec(`UPDATE disputes SET status = ?, resolved_at = ?, resolved_by = ? WHERE id = ?`,
		string(d.Status), nullTime(d.ResolvedAt), d.ResolvedBy, d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("dispute not found")
	}
	return nil
}

func (s *SQLiteStore) ListDisputes(status services.DisputeStatus) ([]*services.Dispute, error) {
	q := `SELECT ` + disputeColumns + ` FROM disputes`
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(status))
	}
	rows, err := s.db.Query(q+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Dispute{}
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) HasOpenDisputes(ident string) (bool, error) {
	return s.exists(`SELECT 1 FROM disputes WHERE identifier = ? AND status IN (?, ?) LIMIT 1`,
		ident, string(services.DisputePending), string(services.DisputeUpheld))
}

// ---- admins ----

func (s *SQLiteStore) FindAdminByEmail(email string) (*services.Admin, error) {
	var (
		a         services.Admin
		createdAt string
	)
	err := s.db.QueryRow(`SELECT id, email, pass_hash, created_at FROM admins WHERE email = ?`, strings.ToLower(email)).
		Scan(&a.ID, &a.Email, &a.PassHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

func (s *SQLiteStore) AddAdmin(a *services.Admin) error {
	_, err := s.db.Exec(`INSERT INTO admins(id, email, pass_hash, created_at) VALUES(?,?,?,?)`,
		a.ID, strings.ToLower(a.Email), a.PassHash, formatTime(a.CreatedAt))
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return services.NewConflictError("email exists")
	}
	return err
}

func (s *SQLiteStore) CountAdmins() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&n)
	return n, err
}

// ---- alerts ----

func (s *SQLiteStore) HasAlert(id string) (bool, error) {
	return s.exists(`SELECT 1 FROM alerts WHERE id = ?`, id)
}

func (s *SQLiteStore) InsertAlert(a *services.Alert) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO alerts(id, source, title, summary, link, official, published_at, fetched_at) VALUES(?,?,?,?,?,?,?,?)`,
		a.ID, a.Source, a.Title, a.Summary, a.Link, boolToInt64(a.Official), formatTime(a.PublishedAt), formatTime(a.FetchedAt))
	return err
}

func (s *SQLiteStore) ListAlerts(limit int) ([]*services.Alert, error) {
	rows, err := s.db.Query(`SELECT id, source, title, summary, link, official, published_at, fetched_at
		FROM alerts ORDER BY published_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Alert{}
	for rows.Next() {
		var (
			a                    services.Alert
			official             int64
			published, fetchedAt string
		)
		if err := rows.Scan(&a.ID, &a.Source, &a.Title, &a.Summary, &a.Link, &official, &published, &fetchedAt); err != nil {
			return nil, err
		}
		a.Official = official != 0
		a.PublishedAt = parseTime(published)
		a.FetchedAt = parseTime(fetchedAt)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// ---- audit ----

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	_, err := s.db.Exec(`INSERT INTO audit_log(time, actor, action, target, note) VALUES(?,?,?,?,?)`,
		formatTime(e.Time), e.Actor, e.Action, e.Target, e.Note)
	s.logErr("add audit", err)
}

func (s *SQLiteStore) ListAudit(limit int) ([]services.AuditEntry, error) {
	rows, err := s.db.Query(`SELECT time, actor, action, target, note FROM audit_log ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []services.AuditEntry{}
	for rows.Next() {
		var (
			e  services.AuditEntry
			ts string
		)
		if err := rows.Scan(&ts, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			return nil, err
		}
		e.Time = parseTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
