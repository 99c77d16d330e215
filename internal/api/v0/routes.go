// Package v0 serves the unversioned probe and version endpoints.
package v0

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-catalog-browser/internal/api/common"
	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/service"
	"github.com/stacklok/toolhive-catalog-browser/internal/versions"
)

// ProbeResponse is the body of /health and a successful /readiness
type ProbeResponse struct {
	Status   string         `json:"status"`
	Catalogs []catalog.Kind `json:"catalogs,omitempty"`
}

// HealthRouter serves /health, /readiness and /version
func HealthRouter(svc service.CatalogService) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)
	return r
}

// healthHandler reports liveness only; it never touches the catalogs
//
// @Summary		Health check
// @Tags			system
// @Produce		json
// @Success		200	{object}	ProbeResponse
// @Router			/health [get]
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, ProbeResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler succeeds once every browsed catalog has applied a snapshot
//
// @Summary		Readiness check
// @Tags			system
// @Produce		json
// @Success		200	{object}	ProbeResponse
// @Failure		503	{object}	common.ErrorResponse
// @Router			/readiness [get]
func readinessHandler(svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, "Catalogs not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, ProbeResponse{Status: "ready", Catalogs: svc.Kinds()}, http.StatusOK)
	}
}

// versionHandler returns the build information
//
// @Summary		Version information
// @Tags			system
// @Produce		json
// @Success		200	{object}	versions.VersionInfo
// @Router			/version [get]
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
