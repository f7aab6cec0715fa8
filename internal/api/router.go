package api

import (
	"encoding/xml"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/identifier"
	"github.com/soaringjerry/Scamwatch/internal/middleware"
	"github.com/soaringjerry/Scamwatch/internal/services"
	"github.com/soaringjerry/Scamwatch/internal/sessions"
	"github.com/soaringjerry/Scamwatch/internal/trust"
	"github.com/soaringjerry/Scamwatch/internal/utils"
)

// Options tune NewRouterWithStore. Zero values select development defaults.
type Options struct {
	HashKey         string
	SubmitPerMinute int
	SubmitBurst     int
	Sessions        services.SessionStore
	SessionTTL      time.Duration
	SMS             services.SMSSender

	// TwilioAuthToken signs WhatsApp webhook calls; empty disables the
	// webhook. PublicURL is the base URL Twilio was configured with.
	TwilioAuthToken  string
	PublicURL        string
	WebhookPerMinute int
	WebhookBurst     int
}

type Router struct {
	store      Store
	reports    *services.ReportService
	lookup     *services.LookupService
	disputes   *services.DisputeService
	moderation *services.ModerationService
	sweeper    *services.SweepService
	auth       *services.AuthService
	verify     *services.VerificationService
	wizard     *services.WizardService
	analytics  *services.AnalyticsService
	exports    *services.ExportService
	limiter    *middleware.RateLimiter
	webhook    *middleware.RateLimiter

	twilioToken string
	publicURL   string
}

// NewRouter serves from a fresh in-memory store.
func NewRouter() *Router {
	return NewRouterWithStore(newMemoryStore(), Options{})
}

func NewRouterWithStore(store Store, opts Options) *Router {
	if opts.HashKey == "" {
		opts.HashKey = "scamwatch-dev-secret"
	}
	if opts.WebhookPerMinute <= 0 {
		opts.WebhookPerMinute = 60
	}
	if opts.WebhookBurst <= 0 {
		opts.WebhookBurst = 20
	}
	if opts.Sessions == nil {
		opts.Sessions = sessions.NewMemory()
	}
	hasher := identifier.NewHasher(opts.HashKey)
	rt := &Router{
		store:      store,
		reports:    services.NewReportService(store, hasher),
		lookup:     services.NewLookupService(store),
		disputes:   services.NewDisputeService(store),
		moderation: services.NewModerationService(store),
		sweeper:    services.NewSweepService(store),
		auth:       services.NewAuthService(store, middleware.SignToken),
		verify:     services.NewVerificationService(store, hasher, opts.SMS),
		analytics:  services.NewAnalyticsService(store),
		exports:    services.NewExportService(store),
		limiter:    middleware.NewRateLimiter(opts.SubmitPerMinute, opts.SubmitBurst),
		webhook:    middleware.NewRateLimiter(opts.WebhookPerMinute, opts.WebhookBurst),

		twilioToken: opts.TwilioAuthToken,
		publicURL:   opts.PublicURL,
	}
	rt.wizard = services.NewWizardService(opts.Sessions, rt.reports, rt.lookup, opts.SessionTTL)
	return rt
}

// Sweeper exposes the expiry sweep so cmd/server can run it on a schedule.
func (rt *Router) Sweeper() *services.SweepService { return rt.sweeper }

// Limiter is the per-client limiter guarding submission routes.
func (rt *Router) Limiter() *middleware.RateLimiter { return rt.limiter }

// WebhookLimiter guards the WhatsApp webhook with its own budget.
func (rt *Router) WebhookLimiter() *middleware.RateLimiter { return rt.webhook }

func (rt *Router) Register(mux *http.ServeMux) {
	limited := func(h http.HandlerFunc) http.Handler { return rt.limiter.Middleware(h) }
	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	signed := func(h http.HandlerFunc) http.Handler {
		return rt.webhook.Middleware(middleware.RequireTwilioSignature(rt.twilioToken, rt.publicURL, h))
	}

	mux.Handle("/api/reports", limited(rt.handleSubmitReport))         // POST
	mux.HandleFunc("/api/reports/recent", rt.handleRecent)             // GET
	mux.HandleFunc("/api/check", rt.handleCheck)                       // GET ?identifier=
	mux.HandleFunc("/api/search", rt.handleSearch)                     // GET ?q=
	mux.Handle("/api/disputes", limited(rt.handleFileDispute))         // POST
	mux.Handle("/api/verify/request", limited(rt.handleVerifyRequest)) // POST
	mux.Handle("/api/verify/confirm", limited(rt.handleVerifyConfirm)) // POST
	mux.Handle("/api/whatsapp/webhook", signed(rt.handleWhatsApp))     // POST form, X-Twilio-Signature
	mux.HandleFunc("/api/alerts", rt.handleAlerts)                     // GET
	mux.HandleFunc("/api/scam-types", rt.handleScamTypes)              // GET
	mux.HandleFunc("/api/stats", rt.handleStats)                       // GET ?days=
	mux.Handle("/api/admin/login", limited(rt.handleLogin))            // POST
	mux.Handle("/api/admin/register", limited(rt.handleRegister))      // POST, first admin only

	mux.Handle("/api/admin/reports", admin(rt.handleAdminReports))             // GET
	mux.Handle("/api/admin/reports/", admin(rt.handleAdminReportScoped))       // POST {id}/hide
	mux.Handle("/api/admin/official-sources", admin(rt.handleOfficialSources)) // POST
	mux.Handle("/api/admin/disputes", admin(rt.handleAdminDisputes))           // GET ?status=
	mux.Handle("/api/admin/disputes/", admin(rt.handleAdminDisputeScoped))     // POST {id}/resolve
	mux.Handle("/api/admin/sweep", admin(rt.handleSweep))                      // POST
	mux.Handle("/api/admin/audit", admin(rt.handleAudit))                      // GET
	mux.Handle("/api/admin/export", admin(rt.handleExport))                    // GET ?format=reports|summary
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func actor(r *http.Request) string {
	if c, ok := middleware.AdminFromContext(r.Context()); ok {
		return c.Email
	}
	return "unknown"
}

// POST /api/reports
func (rt *Router) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req services.SubmitReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ReporterIP = middleware.ClientIP(r)
	res, err := rt.reports.Submit(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type checkResponse struct {
	*services.CheckResult
	ConcernLabel string `json:"concern_label"`
}

// GET /api/check?identifier=...
func (rt *Router) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	res, err := rt.lookup.Check(r.URL.Query().Get("identifier"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, checkResponse{
		CheckResult:  res,
		ConcernLabel: utils.T(locale, "concern."+string(res.Assessment.ConcernLevel)),
	})
}

// GET /api/reports/recent?limit=
func (rt *Router) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	views, err := rt.lookup.Recent(queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": views})
}

// GET /api/search?q=&limit=
func (rt *Router) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	hits, err := rt.lookup.Search(r.URL.Query().Get("q"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}

// POST /api/disputes
func (rt *Router) handleFileDispute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req services.FileDisputeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := rt.disputes.File(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": d.ID, "identifier": d.Identifier, "status": d.Status})
}

// POST /api/verify/request {phone}
func (rt *Router) handleVerifyRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Phone string `json:"phone"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := rt.verify.Request(req.Phone); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// POST /api/verify/confirm {phone, code}
func (rt *Router) handleVerifyConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := rt.verify.Confirm(req.Phone, req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "verified": true})
}

type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// POST /api/whatsapp/webhook (form: From, Body) replies with TwiML.
func (rt *Router) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	reply, err := rt.wizard.Handle(r.Context(), r.PostForm.Get("From"), middleware.LocaleFromContext(r.Context()), r.PostForm.Get("Body"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(twiml{Message: reply})
}

// GET /api/alerts?limit=
func (rt *Router) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := queryInt(r, "limit")
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := rt.store.ListAlerts(limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": list})
}

// GET /api/scam-types
func (rt *Router) handleScamTypes(w http.ResponseWriter, r *http.Request) {
	type scamType struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	out := make([]scamType, 0, len(trust.ScamTypes))
	for _, t := range trust.ScamTypes {
		out = append(out, scamType{ID: string(t), Label: t.Label()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"scam_types": out})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/admin/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "admin_id": res.AdminID, "email": res.Email, "expires_in": int(rt.auth.TokenTTL().Seconds())})
}

// POST /api/admin/register creates the first admin. Once one exists further
// accounts are made with scamctl.
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	has, err := rt.auth.HasAdmins()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if has {
		writeError(w, r, services.NewForbiddenError("registration closed"))
		return
	}
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := rt.auth.Register(req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.store.AddAudit(services.AuditEntry{Time: a.CreatedAt, Actor: a.Email, Action: "register_admin", Target: a.ID})
	writeJSON(w, http.StatusCreated, map[string]any{"admin_id": a.ID, "email": a.Email})
}

// GET /api/admin/reports?identifier=&scam_type=&include_hidden=1&limit=
func (rt *Router) handleAdminReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	views, err := rt.moderation.ListReports(services.ReportFilter{
		Identifier:    q.Get("identifier"),
		ScamType:      trust.ScamType(q.Get("scam_type")),
		IncludeHidden: q.Get("include_hidden") == "1" || q.Get("include_hidden") == "true",
		Limit:         queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": views})
}

// POST /api/admin/reports/{id}/hide
func (rt *Router) handleAdminReportScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/reports/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "hide" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := rt.moderation.HideReport(parts[0], actor(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": parts[0], "hidden": true})
}

// POST /api/admin/official-sources
func (rt *Router) handleOfficialSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req services.AddOfficialSourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := rt.moderation.AddOfficialSource(req, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GET /api/admin/disputes?status=
func (rt *Router) handleAdminDisputes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	list, err := rt.disputes.List(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"disputes": list})
}

// POST /api/admin/disputes/{id}/resolve {outcome}
func (rt *Router) handleAdminDisputeScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/disputes/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "resolve" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Outcome string `json:"outcome"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := rt.disputes.Resolve(parts[0], req.Outcome, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// POST /api/admin/sweep
func (rt *Router) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	n, err := rt.sweeper.Sweep()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expired": n})
}

// GET /api/admin/audit?limit=
func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	entries, err := rt.moderation.Audit(queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": entries})
}

// GET /api/stats?days=
func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sum, err := rt.analytics.Summary(queryInt(r, "days"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /api/admin/export?format=reports|summary&scam_type=&include_hidden=1
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	res, err := rt.exports.ExportCSV(services.ExportParams{
		Format:        q.Get("format"),
		ScamType:      q.Get("scam_type"),
		IncludeHidden: q.Get("include_hidden") == "1" || q.Get("include_hidden") == "true",
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.store.AddAudit(services.AuditEntry{Time: time.Now().UTC(), Actor: actor(r), Action: "export", Target: res.Filename})
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+res.Filename+"\"")
	_, _ = w.Write(res.Data)
}
