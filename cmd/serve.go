package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/company"
	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/internal/monitoring"
	"github.com/sells-group/radar-cli/internal/store"
	"github.com/sells-group/radar-cli/pkg/cnpja"
)

const maxBodyBytes = 10 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead and ledger HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", port),
			Handler: newAPI(env, apiOptions{
				RateLimitPerMin: cfg.Server.RateLimitPerMin,
				AllowedOrigins:  cfg.Server.AllowedOrigins,
			}).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if cfg.Monitoring.WebhookURL != "" {
			checker := monitoring.NewChecker(
				monitoring.NewCollector(env.Store),
				monitoring.NewAlerter(cfg.Monitoring),
				cfg.Monitoring,
			)
			go checker.Run(ctx)
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type apiOptions struct {
	// RateLimitPerMin caps /v1 requests per client IP. Zero disables it.
	RateLimitPerMin int
	AllowedOrigins  []string
}

// api serves the enrichment pipeline and the ledger over HTTP.
type api struct {
	env      *radarEnv
	opts     apiOptions
	validate *validator.Validate

	// reconcileMu serializes ledger writes; Reconcile reads then writes.
	reconcileMu sync.Mutex
}

func newAPI(env *radarEnv, opts apiOptions) *api {
	return &api{
		env:      env,
		opts:     opts,
		validate: validator.New(),
	}
}

// Routes builds the router.
func (a *api) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := a.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", a.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		if a.opts.RateLimitPerMin > 0 {
			r.Use(httprate.Limit(a.opts.RateLimitPerMin, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				}),
			))
		}

		r.Post("/leads/enrich", a.handleEnrich)
		r.Post("/leads/reconcile", a.handleReconcile)

		r.Get("/companies", a.handleListCompanies)
		r.Get("/companies/{taxID}", a.handleGetCompany)
		r.Put("/companies/{taxID}/status", a.handleSetStatus)
		r.Get("/companies/{taxID}/interactions", a.handleListInteractions)
		r.Post("/companies/{taxID}/interactions", a.handleAddInteraction)

		r.Get("/runs", a.handleListRuns)
	})
	return r
}

type recordsRequest struct {
	Records []model.RawCompany `json:"records" validate:"required,min=1,max=1000"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type interactionRequest struct {
	Kind     string `json:"tipo" validate:"required,max=40"`
	Notes    string `json:"descricao" validate:"required,max=2000"`
	NextStep string `json:"proximo_passo" validate:"max=500"`
}

type pageQuery struct {
	Limit  int `validate:"gte=0,lte=500"`
	Offset int `validate:"gte=0"`
}

func (a *api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req recordsRequest
	if !a.decode(w, r, &req) {
		return
	}

	res, err := runBatch(r.Context(), a.env, staticSource{name: "api", records: req.Records}, batchOptions{DryRun: true})
	if err != nil {
		a.internalError(w, "enrich", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": res.Leads})
}

func (a *api) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req recordsRequest
	if !a.decode(w, r, &req) {
		return
	}

	a.reconcileMu.Lock()
	defer a.reconcileMu.Unlock()

	res, err := runBatch(r.Context(), a.env, staticSource{name: "api", records: req.Records}, batchOptions{})
	if err != nil {
		a.internalError(w, "reconcile", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, ok := a.pageQuery(w, r)
	if !ok {
		return
	}
	filter := company.ListFilter{
		District: q.Get("district"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	if s := q.Get("status"); s != "" {
		st, err := company.ParseCRMStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		filter.CRMStatus = st
	}

	companies, err := a.env.Store.ListCompanies(r.Context(), filter)
	if err != nil {
		a.internalError(w, "list companies", err)
		return
	}
	if companies == nil {
		companies = []company.Company{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (a *api) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	taxID := cnpja.Digits(chi.URLParam(r, "taxID"))
	c, err := a.env.Store.GetCompany(r.Context(), taxID)
	if err != nil {
		a.internalError(w, "get company", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *api) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !a.decode(w, r, &req) {
		return
	}
	status, err := company.ParseCRMStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	taxID := cnpja.Digits(chi.URLParam(r, "taxID"))
	if err := a.env.Store.SetCRMStatus(r.Context(), taxID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		a.internalError(w, "set status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cnpj": taxID, "status_crm": string(status)})
}

func (a *api) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	taxID := cnpja.Digits(chi.URLParam(r, "taxID"))
	interactions, err := a.env.Store.ListInteractions(r.Context(), taxID)
	if err != nil {
		a.internalError(w, "list interactions", err)
		return
	}
	if interactions == nil {
		interactions = []company.Interaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"interactions": interactions})
}

func (a *api) handleAddInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if !a.decode(w, r, &req) {
		return
	}

	in := &company.Interaction{
		TaxID:    cnpja.Digits(chi.URLParam(r, "taxID")),
		Kind:     req.Kind,
		Notes:    req.Notes,
		NextStep: req.NextStep,
	}
	if err := a.env.Store.AddInteraction(r.Context(), in); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		a.internalError(w, "add interaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

func (a *api) handleListRuns(w http.ResponseWriter, r *http.Request) {
	page, ok := a.pageQuery(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	runs, err := a.env.Store.ListRuns(r.Context(), store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Source: q.Get("source"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		a.internalError(w, "list runs", err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// decode reads a JSON body into dst and validates it, writing a 400 on
// failure.
func (a *api) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

func (a *api) pageQuery(w http.ResponseWriter, r *http.Request) (pageQuery, bool) {
	var p pageQuery
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, name+" must be an integer")
			return p, false
		}
		*dst = n
	}
	if err := a.validate.Struct(p); err != nil {
		writeValidationError(w, err)
		return p, false
	}
	return p, true
}

func (a *api) internalError(w http.ResponseWriter, op string, err error) {
	zap.L().Error("api: "+op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
}
