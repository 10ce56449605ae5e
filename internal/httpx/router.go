package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AngelCh415/socialdash/internal/authflow"
	"github.com/AngelCh415/socialdash/internal/dashboard"
	"github.com/AngelCh415/socialdash/internal/ingest"
	"github.com/AngelCh415/socialdash/internal/metrics"
	"github.com/AngelCh415/socialdash/internal/models"
	"github.com/AngelCh415/socialdash/internal/utils"
)

// Account is the account-level part of the backend client.
type Account interface {
	FetchUsageStats(ctx context.Context) (map[string]models.ServiceUsage, error)
	DeleteAccount(ctx context.Context) error
}

type Deps struct {
	Views       *dashboard.Registry
	Campaigns   *metrics.Service
	Auth        *authflow.Poller
	Account     Account
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

func NewRouter(log *slog.Logger, d Deps) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	if d.Gatherer != nil {
		mux.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	mux.Route("/api/views", func(vr chi.Router) {
		vr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			v := d.Views.Open()
			writeJSONStatus(w, http.StatusCreated, map[string]string{"view_id": v.ID()})
		})
		vr.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if !d.Views.CloseView(id) {
				writeError(w, http.StatusNotFound, models.NewViewNotFoundError(id))
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		vr.Get("/{id}/dashboard", withView(d.Views, func(w http.ResponseWriter, r *http.Request, v *dashboard.View) {
			s := v.Load(r.Context())
			if s.Error != nil {
				writeError(w, http.StatusBadGateway, s.Error)
				return
			}
			writeJSON(w, s)
		}))
		vr.Get("/{id}/instagram-weekly", withView(d.Views, func(w http.ResponseWriter, r *http.Request, v *dashboard.View) {
			s := v.LoadInstagramWeekly(r.Context())
			if s.Error != nil {
				writeError(w, http.StatusBadGateway, s.Error)
				return
			}
			writeJSON(w, s)
		}))
		vr.Get("/{id}/trending", withView(d.Views, func(w http.ResponseWriter, r *http.Request, v *dashboard.View) {
			q := r.URL.Query()
			s := v.LoadTrending(r.Context(), q.Get("topic"), q.Get("category"))
			if s.Error != nil {
				writeError(w, http.StatusBadGateway, s.Error)
				return
			}
			writeJSON(w, s)
		}))
	})

	mux.Post("/api/trending/refresh", func(w http.ResponseWriter, r *http.Request) {
		topics, err := d.Views.RefreshTopics(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			log.Warn("trending refresh failed", slog.String("rid", utils.RID(r.Context())), slog.String("error", err.Error()))
			writeError(w, http.StatusBadGateway, models.NewUpstreamUnavailableError())
			return
		}
		writeJSON(w, map[string]any{"topics": topics})
	})

	mux.Get("/api/campaigns", func(w http.ResponseWriter, r *http.Request) {
		rows, summary, err := d.Campaigns.QueryCampaigns(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, models.NewInvalidRequestError(err.Error()))
			return
		}
		writeJSON(w, map[string]any{"campaigns": rows, "summary": summary})
	})

	mux.Get("/api/usage", func(w http.ResponseWriter, r *http.Request) {
		usage, err := d.Account.FetchUsageStats(r.Context())
		if err != nil {
			log.Warn("usage stats failed", slog.String("rid", utils.RID(r.Context())), slog.String("error", err.Error()))
			writeError(w, http.StatusBadGateway, models.NewUpstreamUnavailableError())
			return
		}
		writeJSON(w, metrics.UsageTotals(usage))
	})

	mux.Route("/api/connections", func(cr chi.Router) {
		cr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, d.Auth.CheckAll(r.Context()))
		})
		cr.Post("/{provider}/connect", func(w http.ResponseWriter, r *http.Request) {
			p := chi.URLParam(r, "provider")
			u, err := d.Auth.Connect(r.Context(), p, nil)
			if err != nil {
				writeProviderError(w, log, r, p, err, models.NewAuthStartError(p))
				return
			}
			writeJSONStatus(w, http.StatusAccepted, map[string]string{"provider": p, "auth_url": u})
		})
		cr.Post("/{provider}/credentials", func(w http.ResponseWriter, r *http.Request) {
			p := chi.URLParam(r, "provider")
			var creds map[string]string
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				writeError(w, http.StatusBadRequest, models.NewInvalidRequestError("credentials must be a JSON object of strings"))
				return
			}
			if err := d.Auth.SaveCredentials(r.Context(), p, creds); err != nil {
				writeProviderError(w, log, r, p, err, models.NewAuthStartError(p))
				return
			}
			writeJSON(w, d.Auth.Status(p))
		})
		cr.Get("/{provider}/status", func(w http.ResponseWriter, r *http.Request) {
			p := chi.URLParam(r, "provider")
			st, err := d.Auth.Check(r.Context(), p)
			if errors.Is(err, ingest.ErrUnknownProvider) {
				writeError(w, http.StatusNotFound, models.NewUnknownProviderError(p))
				return
			}
			if err != nil {
				log.Warn("connection status failed", slog.String("provider", p), slog.String("error", err.Error()))
			}
			writeJSON(w, st)
		})
		cr.Post("/{provider}/disconnect", func(w http.ResponseWriter, r *http.Request) {
			p := chi.URLParam(r, "provider")
			if err := d.Auth.Disconnect(r.Context(), p); err != nil {
				writeProviderError(w, log, r, p, err, models.NewUpstreamUnavailableError())
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	mux.Delete("/api/account", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Account.DeleteAccount(r.Context()); err != nil {
			log.Error("account deletion failed", slog.String("rid", utils.RID(r.Context())), slog.String("error", err.Error()))
			writeError(w, http.StatusBadGateway, models.NewAccountDeleteError())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func withView(reg *dashboard.Registry, h func(http.ResponseWriter, *http.Request, *dashboard.View)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		v, ok := reg.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, models.NewViewNotFoundError(id))
			return
		}
		h(w, r, v)
	}
}

func writeProviderError(w http.ResponseWriter, log *slog.Logger, r *http.Request, provider string, err error, apiErr *models.APIError) {
	if errors.Is(err, ingest.ErrUnknownProvider) {
		writeError(w, http.StatusNotFound, models.NewUnknownProviderError(provider))
		return
	}
	if errors.Is(err, ingest.ErrConnectFlow) {
		writeError(w, http.StatusBadRequest, models.NewInvalidRequestError(err.Error()))
		return
	}
	log.Warn("provider request failed",
		slog.String("rid", utils.RID(r.Context())),
		slog.String("provider", provider),
		slog.String("error", err.Error()))
	writeError(w, http.StatusBadGateway, apiErr)
}

func writeJSON(w http.ResponseWriter, v any) { writeJSONStatus(w, http.StatusOK, v) }

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	writeJSONStatus(w, status, apiErr)
}
