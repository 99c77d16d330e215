// Package v1 provides the catalog browsing endpoints.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-catalog-browser/internal/api/common"
	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
	"github.com/stacklok/toolhive-catalog-browser/internal/ranking"
	"github.com/stacklok/toolhive-catalog-browser/internal/service"
	"github.com/stacklok/toolhive-catalog-browser/internal/session"
	"github.com/stacklok/toolhive-catalog-browser/internal/sorting"
)

// CatalogInfo describes one browsable catalog
type CatalogInfo struct {
	Kind  catalog.Kind   `json:"kind"`
	Modes []sorting.Mode `json:"sortModes"`
}

// CatalogListResponse is the body of GET /v1/catalogs
type CatalogListResponse struct {
	Catalogs []CatalogInfo `json:"catalogs"`
}

// EntryListResponse is the body of GET /v1/{kind}/entries
type EntryListResponse struct {
	Kind  catalog.Kind   `json:"kind"`
	Query string         `json:"query,omitempty"`
	Sort  sorting.Mode   `json:"sort,omitempty"`
	Count int            `json:"count"`
	Items []session.Item `json:"items"`
}

// Routes defines the catalog routes with dependency injection
type Routes struct {
	service service.CatalogService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.CatalogService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the catalog API
func Router(svc service.CatalogService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/catalogs", routes.listCatalogs)
	r.Route("/{kind}", func(r chi.Router) {
		r.Get("/entries", routes.listEntries)
		r.Get("/entry", routes.getEntry)
		r.Get("/changes", routes.listChanges)
		r.Post("/changes/ack", routes.acknowledgeChanges)
		r.Get("/status", routes.getStatus)
		r.Post("/refresh", routes.refresh)
	})

	return r
}

// listCatalogs handles GET /v1/catalogs
//
// @Summary		List catalogs
// @Description	List the catalogs being browsed with their valid sort modes
// @Tags			catalog
// @Produce		json
// @Success		200	{object}	CatalogListResponse
// @Router			/v1/catalogs [get]
func (rr *Routes) listCatalogs(w http.ResponseWriter, _ *http.Request) {
	kinds := rr.service.Kinds()
	resp := CatalogListResponse{Catalogs: make([]CatalogInfo, 0, len(kinds))}
	for _, kind := range kinds {
		resp.Catalogs = append(resp.Catalogs, CatalogInfo{Kind: kind, Modes: sorting.ModesFor(kind)})
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// listEntries handles GET /v1/{kind}/entries
//
// @Summary		List entries
// @Description	Rank the catalog by a search query, or sort it when no query is given
// @Tags			catalog
// @Produce		json
// @Param			kind	path		string	true	"Catalog kind"	Enums(extensions,themes)
// @Param			q		query		string	false	"Search query"
// @Param			sort	query		string	false	"Sort mode"	default(date-newest)
// @Param			limit	query		int		false	"Maximum number of entries"
// @Param			new		query		bool	false	"Only entries new since the last session"
// @Success		200		{object}	EntryListResponse
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router			/v1/{kind}/entries [get]
func (rr *Routes) listEntries(w http.ResponseWriter, r *http.Request) {
	kind, err := common.GetKindParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	opts := []service.Option{}
	if q := query.Get("q"); q != "" {
		opts = append(opts, service.WithQuery(q))
	}
	mode := sorting.DefaultMode
	if s := query.Get("sort"); s != "" {
		parsed, err := sorting.ParseMode(s)
		if err != nil {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		mode = parsed
		opts = append(opts, service.WithSortMode(s))
	}
	limit, err := common.GetLimitQuery(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if limit > 0 {
		opts = append(opts, service.WithLimit(limit))
	}
	if query.Get("new") == "true" {
		opts = append(opts, service.WithNewOnly())
	}

	items, err := rr.service.ListEntries(r.Context(), kind, opts...)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := EntryListResponse{
		Kind:  kind,
		Query: query.Get("q"),
		Count: len(items),
		Items: items,
	}
	if resp.Query == "" {
		resp.Sort = mode
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// getEntry handles GET /v1/{kind}/entry?id=
//
// @Summary		Get entry
// @Description	Get a single entry by install URL, with its new flag and install action
// @Tags			catalog
// @Produce		json
// @Param			kind	path		string	true	"Catalog kind"
// @Param			id		query		string	true	"Install URL"
// @Success		200		{object}	session.Item
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router			/v1/{kind}/entry [get]
func (rr *Routes) getEntry(w http.ResponseWriter, r *http.Request) {
	kind, err := common.GetKindParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := common.GetRequiredQuery(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := rr.service.GetEntry(r.Context(), kind, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, item, http.StatusOK)
}

// listChanges handles GET /v1/{kind}/changes
//
// @Summary		List changes
// @Description	List the entries added since the last committed session
// @Tags			catalog
// @Produce		json
// @Param			kind	path		string	true	"Catalog kind"
// @Success		200		{object}	service.Changes
// @Failure		404		{object}	common.ErrorResponse
// @Router			/v1/{kind}/changes [get]
func (rr *Routes) listChanges(w http.ResponseWriter, r *http.Request) {
	kind, err := common.GetKindParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	changes, err := rr.service.ListChanges(r.Context(), kind)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, changes, http.StatusOK)
}

// acknowledgeChanges handles POST /v1/{kind}/changes/ack
//
// @Summary		Acknowledge changes
// @Description	Commit the current snapshot to the seen set
// @Tags			catalog
// @Param			kind	path	string	true	"Catalog kind"
// @Success		204
// @Failure		404	{object}	common.ErrorResponse
// @Failure		409	{object}	common.ErrorResponse
// @Router			/v1/{kind}/changes/ack [post]
func (rr *Routes) acknowledgeChanges(w http.ResponseWriter, r *http.Request) {
	kind, err := common.GetKindParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := rr.service.AcknowledgeChanges(r.Context(), kind); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getStatus handles GET /v1/{kind}/status
//
// @Summary		Catalog status
// @Description	Get the refresh and change tracking status of a catalog
// @Tags			catalog
// @Produce		json
// @Param			kind	path		string	true	"Catalog kind"
// @Success		200		{object}	session.StatusReport
// @Failure		404		{object}	common.ErrorResponse
// @Router			/v1/{kind}/status [get]
func (rr *Routes) getStatus(w http.ResponseWriter, r *http.Request) {
	kind, err := common.GetKindParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := rr.service.GetStatus(r.Context(), kind)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, report, http.StatusOK)
}

// refresh handles POST /v1/{kind}/refresh
//
// @Summary		Refresh catalog
// @Description	Re-fetch the catalog now. On failure the previous snapshot stays visible.
// @Tags			catalog
// @Produce		json
// @Param			kind	path		string	true	"Catalog kind"
// @Success		200		{object}	session.StatusReport
// @Failure		404		{object}	common.ErrorResponse
// @Failure		502		{object}	common.ErrorResponse
// @Router			/v1/{kind}/refresh [post]
func (rr *Routes) refresh(w http.ResponseWriter, r *http.Request) {
	kind, err := common.GetKindParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := rr.service.Refresh(r.Context(), kind)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, report, http.StatusOK)
}

// writeServiceError maps service failures to HTTP status codes
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var refreshErr *service.RefreshError
	switch {
	case errors.Is(err, service.ErrCatalogNotFound), errors.Is(err, service.ErrEntryNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, sorting.ErrUnknownMode), errors.Is(err, ranking.ErrEmptyQuery):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrTrackingDisabled):
		common.WriteErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.As(err, &refreshErr):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadGateway)
	default:
		slog.ErrorContext(r.Context(), "Catalog request failed", "path", r.URL.Path, "error", err)
		common.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
	}
}
