// Package http exposes the license facade over a small chi router for the
// demo web UI: validation, hardware id, and feature queries. The core
// performs no network I/O; this package is a collaborator around it.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/Vlad-tdk/LicenseCore/internal/infrastructure"
	"github.com/Vlad-tdk/LicenseCore/internal/license"
	"github.com/Vlad-tdk/LicenseCore/pkg/contracts/domain"
)

var validate = validator.New()

// LicenseHandler handles license-related HTTP requests.
type LicenseHandler struct {
	manager *license.Manager
	logger  *slog.Logger
}

// NewLicenseHandler creates a new license handler over the facade.
func NewLicenseHandler(manager *license.Manager, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		manager: manager,
		logger:  logger.With(slog.String("handler", "license")),
	}
}

// Routes mounts the license endpoints.
func (h *LicenseHandler) Routes(limiter func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(traceMiddleware)
	if limiter != nil {
		r.Use(limiter)
	}

	r.Post("/validate", h.Validate)
	r.Get("/hwid", h.HardwareID)
	r.Get("/features/{name}", h.Feature)
	return r
}

// Validate handles POST /validate: decode the request, run the facade, and
// report the verdict. Validation failures are a 200 with valid=false, the
// same shape the library's lenient mode returns; only transport problems
// are HTTP errors.
func (h *LicenseHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.ValidateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, ErrInvalidRequest("request body must be JSON"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		render.Render(w, r, ErrInvalidRequest("token is required"))
		return
	}

	info, err := h.manager.LoadAndValidate(ctx, []byte(req.Token))
	if err != nil {
		// Strict-mode managers surface failures as typed errors; fold
		// them back into the wire verdict.
		kind := license.KindOf(err)
		if kind == license.KindNone {
			h.logger.ErrorContext(ctx, "validation failed", slog.String("error", err.Error()))
			render.Render(w, r, ErrInternal(err))
			return
		}
		render.JSON(w, r, domain.ValidateResponse{Valid: false, Failure: string(kind)})
		return
	}

	resp := domain.ValidateResponse{
		Valid:   info.Valid,
		Failure: string(info.Failure),
	}
	if info.Valid {
		resp.License = &domain.LicenseView{
			UserID:       info.UserID,
			LicenseID:    info.LicenseID,
			HardwareHash: info.HardwareHash,
			Features:     info.Features,
			IssuedAt:     info.IssuedAt,
			Expiry:       info.Expiry,
			Version:      info.Version,
		}
	}

	h.logger.InfoContext(ctx, "license validated",
		slog.Bool("valid", resp.Valid),
		slog.String("failure", resp.Failure),
	)
	render.JSON(w, r, resp)
}

// HardwareID handles GET /hwid. With ?components=1 the per-attribute values
// are included.
func (h *LicenseHandler) HardwareID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hardwareID, err := h.manager.CurrentHardwareID(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "hardware detection failed", slog.String("error", err.Error()))
		render.Render(w, r, &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusServiceUnavailable,
			StatusText:     "Hardware detection failed",
			AppCode:        ErrCodeHardwareProbe,
			ErrorText:      "No hardware attribute could be read on this machine",
		})
		return
	}

	resp := domain.HardwareIDResponse{HardwareID: hardwareID}
	if r.URL.Query().Get("components") == "1" {
		components, err := h.manager.HardwareBuilder().Components()
		if err == nil {
			resp.Components = make(map[string]string, len(components))
			for attr, value := range components {
				resp.Components[string(attr)] = value
			}
		}
	}
	render.JSON(w, r, resp)
}

// Feature handles GET /features/{name} against the most recently validated
// license.
func (h *LicenseHandler) Feature(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		render.Render(w, r, ErrInvalidRequest("feature name is required"))
		return
	}

	enabled, err := h.manager.HasFeature(name)
	if err != nil {
		render.Render(w, r, &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusPreconditionRequired,
			StatusText:     "No license loaded",
			AppCode:        ErrCodeNotInitialized,
			ErrorText:      "Validate a license before querying features",
		})
		return
	}
	render.JSON(w, r, domain.FeatureResponse{Feature: name, Enabled: enabled})
}

// traceMiddleware stamps each request context with a trace id so handler
// logs correlate.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := infrastructure.EnsureTraceID(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
