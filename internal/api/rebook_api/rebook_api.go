package rebook_api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BearBump/RebookBox/internal/models"
	"github.com/BearBump/RebookBox/internal/services/lookup"
	"github.com/BearBump/RebookBox/internal/services/rebook"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
)

type Service interface {
	Lookup(ctx context.Context, req models.LookupRequest, debug bool) (*models.LookupResult, error)
	Rebook(ctx context.Context, req models.LookupRequest, debug bool) (*rebook.Rebooking, error)
	AssistantEnabled() bool
}

type StatsSource interface {
	Stats() lookup.Stats
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Options struct {
	AuthRequired bool
	SharedSecret string

	// Limiter is optional; nil disables rate limiting.
	Limiter RateLimiter
	Stats   StatsSource

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Only set it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

type RebookAPI struct {
	svc  Service
	opts Options
}

func New(svc Service, opts Options) *RebookAPI {
	return &RebookAPI{svc: svc, opts: opts}
}

// Routes mounts the service endpoints on r.
func (a *RebookAPI) Routes(r chi.Router) {
	r.Use(middleware.RequestID)
	if a.opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(accessLog, recoverer)

	r.Get("/health", a.health)

	r.Group(func(r chi.Router) {
		if a.opts.AuthRequired {
			r.Use(bearerAuth(a.opts.SharedSecret))
		}
		r.Get("/stats", a.stats)

		r.Group(func(r chi.Router) {
			if a.opts.Limiter != nil {
				r.Use(rateLimit(a.opts.Limiter))
			}
			r.Post("/lookup", a.lookup)
			r.Post("/rebook", a.rebook)
		})
	})
}

func (a *RebookAPI) Handler() http.Handler {
	r := chi.NewRouter()
	a.Routes(r)
	return r
}

func (a *RebookAPI) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *RebookAPI) stats(w http.ResponseWriter, r *http.Request) {
	if a.opts.Stats == nil {
		writeDetail(w, http.StatusServiceUnavailable, "stats not wired")
		return
	}
	writeJSON(w, http.StatusOK, a.opts.Stats.Stats())
}

func (a *RebookAPI) lookup(w http.ResponseWriter, r *http.Request) {
	req, debug, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := a.svc.Lookup(r.Context(), req, debug)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *RebookAPI) rebook(w http.ResponseWriter, r *http.Request) {
	if !a.svc.AssistantEnabled() {
		writeDetail(w, http.StatusServiceUnavailable, rebook.ErrAssistantDisabled.Error())
		return
	}
	req, debug, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	out, err := a.svc.Rebook(r.Context(), req, debug)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (models.LookupRequest, bool, bool) {
	var body lookupBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	if err := dec.Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return models.LookupRequest{}, false, false
	}
	if err := body.validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return models.LookupRequest{}, false, false
	}
	return body.request(), body.Debug, true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, rebook.ErrAssistantDisabled) {
		writeDetail(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeDetail(w, http.StatusInternalServerError, err.Error())
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err.Error())
	}
}
