package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ecli/internal/core"
	"ecli/internal/handler"
	"ecli/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListAllTrackers() []types.TrackerInfo
	GetTracker(id int) (types.TrackerInfo, error)
	Launch(ctx context.Context, cfg types.TrackerConfig, injected handler.EventHandler) (int, error)
	StopTracker(id int)
	State() core.State
}

// NewMux builds the server-mode router. Trackers started through the API
// get a hub node spliced at the head of their handler chain. A nil hub is
// replaced by a fresh one.
func NewMux(svc Service, hub *Hub) http.Handler {
	if hub == nil {
		hub = NewHub()
	}
	started := time.Now()

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(requestLogger)
	if mw := corsMiddleware(); mw != nil {
		r.Use(mw)
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Group(func(r chi.Router) {
		// Compression for JSON endpoints
		r.Use(middleware.Compress(5))

		r.Get("/trackers", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, types.TrackersResponse{Trackers: svc.ListAllTrackers()})
		})

		r.Get("/trackers/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := trackerID(w, r)
			if !ok {
				return
			}
			info, err := svc.GetTracker(id)
			if err != nil {
				writeJSONError(w, statusFor(err), err.Error())
				return
			}
			writeJSON(w, http.StatusOK, info)
		})

		r.Post("/trackers", func(w http.ResponseWriter, r *http.Request) {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			var req types.StartTrackerRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			var cfg types.TrackerConfig
			switch {
			case req.Tracker != nil && req.JSONData != "":
				writeJSONError(w, http.StatusBadRequest, "tracker and json_data are mutually exclusive")
				return
			case req.JSONData != "":
				cfg.JSONData = req.JSONData
			case req.Tracker != nil:
				cfg = *req.Tracker
			default:
				writeJSONError(w, http.StatusBadRequest, "tracker or json_data is required")
				return
			}
			// Join server base context with request context so shutdown cancels resolution too.
			ctx, cancel := joinContexts(serverBaseCtx, r.Context())
			defer cancel()
			id, err := svc.Launch(ctx, cfg, hub.Handler())
			if err != nil {
				writeJSONError(w, statusFor(err), err.Error())
				return
			}
			logger.Info().Int("id", id).Str("url", cfg.URL).Msg("tracker started via api")
			writeJSON(w, http.StatusCreated, types.StartTrackerResponse{ID: id})
		})

		r.Delete("/trackers/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := trackerID(w, r)
			if !ok {
				return
			}
			if _, err := svc.GetTracker(id); err != nil {
				writeJSONError(w, statusFor(err), err.Error())
				return
			}
			svc.StopTracker(id)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			writeJSON(w, http.StatusOK, types.StatusResponse{
				State:          string(svc.State()),
				Running:        len(svc.ListAllTrackers()),
				Subscribers:    hub.Subscribers(),
				UptimeSeconds:  int64(now.Sub(started).Seconds()),
				ServerTimeUnix: now.Unix(),
			})
		})
	})

	r.Get("/events", hub.ServeWS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func trackerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid tracker id")
		return 0, false
	}
	return id, true
}
