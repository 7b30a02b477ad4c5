package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-journeymate/internal/api"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// SessionHeader carries the browse session id between UI and service.
const SessionHeader = "X-Session-ID"

// Lister fetches the server-side curated lists and single tours.
type Lister interface {
	Tour(ctx context.Context, id int64) (types.Tour, error)
	DiscountedTours(ctx context.Context) ([]types.Tour, error)
	LeavingSoonTours(ctx context.Context) ([]types.Tour, error)
}

// FavouriteLookup resolves the favourites of the caller in ctx once per request.
type FavouriteLookup interface {
	FavouriteChecker(ctx context.Context) func(tourID int64) bool
}

type CatalogHandler struct {
	store      *Store
	sessions   *Sessions
	lister     Lister
	favourites FavouriteLookup
	pageSize   int
	logger     *slog.Logger
}

func NewCatalogHandler(store *Store, sessions *Sessions, lister Lister, favourites FavouriteLookup, pageSize int, logger *slog.Logger) *CatalogHandler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CatalogHandler{
		store:      store,
		sessions:   sessions,
		lister:     lister,
		favourites: favourites,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// PageResponse is one page of annotated tours.
type PageResponse struct {
	Tours      []types.TourView `json:"tours"`
	TotalPages int              `json:"totalPages"`
	TotalItems int              `json:"totalItems"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
}

// BrowseResponse is the state of a browse session.
type BrowseResponse struct {
	SessionID string         `json:"sessionId"`
	Criteria  FilterCriteria `json:"criteria"`
	PageResponse
}

// BrowseUpdate changes a browse session. Absent fields are left unchanged;
// any criteria change moves the session back to page 1 before Page applies.
type BrowseUpdate struct {
	SearchTerm    *string  `json:"searchTerm,omitempty"`
	PriceMin      *float64 `json:"priceMin,omitempty"`
	PriceMax      *float64 `json:"priceMax,omitempty"`
	CategoryID    *int64   `json:"categoryId,omitempty"`
	AllCategories bool     `json:"allCategories,omitempty"`
	Sort          *string  `json:"sort,omitempty"`
	Page          *int     `json:"page,omitempty"`
}

// ListTours godoc
// @Summary      List tours
// @Description  Filters, sorts and paginates the held catalog.
// @Tags         Tours
// @Produce      json
// @Param        search    query string false "Case-insensitive title or city substring"
// @Param        minPrice  query number false "Inclusive lower price bound" default(0)
// @Param        maxPrice  query number false "Inclusive upper price bound" default(10000)
// @Param        category  query int    false "Category id"
// @Param        sort      query string false "creationDate-desc, price-asc, price-desc, rating-desc or startDate-asc"
// @Param        page      query int    false "1-based page" default(1)
// @Param        pageSize  query int    false "Page size" default(5)
// @Success      200 {object} PageResponse
// @Failure      400 {object} types.Response
// @Failure      502 {object} types.Response
// @Router       /tours [get]
func (h *CatalogHandler) ListTours(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CatalogHandler").Start(r.Context(), "ListTours", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/tours"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListTours"))

	criteria, page, pageSize, err := h.parseListQuery(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid listing query", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !h.ensureLoaded(ctx, w, r) {
		return
	}

	res := Derive(h.store.Tours(), criteria, page, pageSize)
	api.WriteJSONResponse(w, r, http.StatusOK, h.pageResponse(ctx, res))
}

// GetTour godoc
// @Summary      Tour details
// @Tags         Tours
// @Produce      json
// @Param        id path int true "Tour id"
// @Success      200 {object} types.TourView
// @Failure      404 {object} types.Response
// @Failure      502 {object} types.Response
// @Router       /tours/{id} [get]
func (h *CatalogHandler) GetTour(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CatalogHandler").Start(r.Context(), "GetTour", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/tours/{id}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetTour"))

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid tour id")
		return
	}

	tour, ok := h.store.Tour(id)
	if !ok {
		tour, err = h.lister.Tour(ctx, id)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				api.ErrorResponse(w, r, http.StatusNotFound, "Tour not found")
				return
			}
			l.ErrorContext(ctx, "Failed to fetch tour", slog.Int64("tourID", id), slog.Any("error", err))
			upstreamError(w, r, "Failed to fetch tour")
			return
		}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, annotate(tour, h.checker(ctx)))
}

// ListDiscounted godoc
// @Summary      Discounted tours
// @Tags         Tours
// @Produce      json
// @Param        sort     query string false "Sort key"
// @Param        page     query int    false "1-based page"
// @Param        pageSize query int    false "Page size"
// @Success      200 {object} PageResponse
// @Failure      502 {object} types.Response
// @Router       /tours/discounted [get]
func (h *CatalogHandler) ListDiscounted(w http.ResponseWriter, r *http.Request) {
	h.listRemote(w, r, "ListDiscounted", h.lister.DiscountedTours)
}

// ListLeavingSoon godoc
// @Summary      Tours leaving soon
// @Tags         Tours
// @Produce      json
// @Param        sort     query string false "Sort key"
// @Param        page     query int    false "1-based page"
// @Param        pageSize query int    false "Page size"
// @Success      200 {object} PageResponse
// @Failure      502 {object} types.Response
// @Router       /tours/leaving-soon [get]
func (h *CatalogHandler) ListLeavingSoon(w http.ResponseWriter, r *http.Request) {
	h.listRemote(w, r, "ListLeavingSoon", h.lister.LeavingSoonTours)
}

func (h *CatalogHandler) listRemote(w http.ResponseWriter, r *http.Request, name string, fetch func(context.Context) ([]types.Tour, error)) {
	ctx, span := otel.Tracer("CatalogHandler").Start(r.Context(), name, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", name))

	criteria, page, pageSize, err := h.parseListQuery(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tours, err := fetch(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch tour list", slog.Any("error", err))
		span.RecordError(err)
		upstreamError(w, r, "Failed to fetch tours")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, h.pageResponse(ctx, Derive(tours, criteria, page, pageSize)))
}

// ReloadCatalog godoc
// @Summary      Reload catalog
// @Description  Re-fetches tours and categories from the remote API.
// @Tags         Tours
// @Produce      json
// @Success      200 {object} map[string]int
// @Failure      502 {object} types.Response
// @Router       /catalog/reload [post]
func (h *CatalogHandler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CatalogHandler").Start(r.Context(), "ReloadCatalog")
	defer span.End()

	tours, categories, err := h.store.LoadCatalog(ctx)
	if err != nil {
		upstreamError(w, r, "Failed to load catalog")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]int{
		"tours":      len(tours),
		"categories": len(categories),
	})
}

// ListCategories godoc
// @Summary      Tour categories
// @Tags         Tours
// @Produce      json
// @Success      200 {array} types.Category
// @Failure      502 {object} types.Response
// @Router       /categories [get]
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(r.Context(), w, r) {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, h.store.Categories())
}

// ListDestinations godoc
// @Summary      Destinations
// @Description  Cities with the number of tours going there and the cheapest price.
// @Tags         Destinations
// @Produce      json
// @Success      200 {array} types.Destination
// @Failure      502 {object} types.Response
// @Router       /destinations [get]
func (h *CatalogHandler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(r.Context(), w, r) {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, Destinations(h.store.Tours()))
}

// GetDestination godoc
// @Summary      Destination page
// @Description  Tours going to one city, with the usual listing parameters.
// @Tags         Destinations
// @Produce      json
// @Param        city path  string true  "City name"
// @Param        sort query string false "Sort key"
// @Param        page query int    false "1-based page"
// @Success      200 {object} PageResponse
// @Failure      404 {object} types.Response
// @Router       /destinations/{city} [get]
func (h *CatalogHandler) GetDestination(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	city := chi.URLParam(r, "city")

	criteria, page, pageSize, err := h.parseListQuery(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !h.ensureLoaded(ctx, w, r) {
		return
	}
	tours := InCity(h.store.Tours(), city)
	if len(tours) == 0 {
		api.ErrorResponse(w, r, http.StatusNotFound, fmt.Sprintf("No tours found for %s", city))
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, h.pageResponse(ctx, Derive(tours, criteria, page, pageSize)))
}

// GetBrowse godoc
// @Summary      Browse session
// @Description  Returns the current page of a stateful browse session, creating one when needed.
// @Tags         Browse
// @Produce      json
// @Param        X-Session-ID header string false "Browse session id"
// @Success      200 {object} BrowseResponse
// @Failure      502 {object} types.Response
// @Router       /browse [get]
func (h *CatalogHandler) GetBrowse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ensureLoaded(ctx, w, r) {
		return
	}
	id, view := h.sessions.Get(r.Header.Get(SessionHeader))
	h.writeBrowse(ctx, w, r, id, view)
}

// UpdateBrowse godoc
// @Summary      Update browse session
// @Tags         Browse
// @Accept       json
// @Produce      json
// @Param        X-Session-ID header string       false "Browse session id"
// @Param        update       body   BrowseUpdate true  "Changes"
// @Success      200 {object} BrowseResponse
// @Failure      400 {object} types.Response
// @Router       /browse [patch]
func (h *CatalogHandler) UpdateBrowse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdateBrowse"))

	var req BrowseUpdate
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid browse update", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !h.ensureLoaded(ctx, w, r) {
		return
	}

	id, view := h.sessions.Get(r.Header.Get(SessionHeader))
	if req.SearchTerm != nil {
		view.SetSearchTerm(*req.SearchTerm)
	}
	if req.PriceMin != nil || req.PriceMax != nil {
		c := view.Criteria()
		lo, hi := c.PriceMin, c.PriceMax
		if req.PriceMin != nil {
			lo = *req.PriceMin
		}
		if req.PriceMax != nil {
			hi = *req.PriceMax
		}
		view.SetPriceRange(lo, hi)
	}
	if req.AllCategories {
		view.SetCategory(nil)
	} else if req.CategoryID != nil {
		view.SetCategory(req.CategoryID)
	}
	if req.Sort != nil {
		view.SetSort(SortKey(*req.Sort))
	}
	if req.Page != nil {
		view.SetPage(*req.Page)
	}
	h.writeBrowse(ctx, w, r, id, view)
}

func (h *CatalogHandler) writeBrowse(ctx context.Context, w http.ResponseWriter, r *http.Request, id string, view *View) {
	w.Header().Set(SessionHeader, id)
	api.WriteJSONResponse(w, r, http.StatusOK, BrowseResponse{
		SessionID:    id,
		Criteria:     view.Criteria(),
		PageResponse: h.pageResponse(ctx, view.Result()),
	})
}

// ensureLoaded loads the catalog on first use and answers 502 when that fails.
func (h *CatalogHandler) ensureLoaded(ctx context.Context, w http.ResponseWriter, r *http.Request) bool {
	if h.store.Loaded() {
		return true
	}
	if _, _, err := h.store.LoadCatalog(ctx); err != nil {
		upstreamError(w, r, "Failed to load catalog")
		return false
	}
	return true
}

func (h *CatalogHandler) pageResponse(ctx context.Context, res Result) PageResponse {
	isFavourite := h.checker(ctx)
	views := make([]types.TourView, 0, len(res.Visible))
	for _, t := range res.Visible {
		views = append(views, annotate(t, isFavourite))
	}
	return PageResponse{
		Tours:      views,
		TotalPages: res.TotalPages,
		TotalItems: res.TotalItems,
		Page:       res.Page,
		PageSize:   res.PageSize,
	}
}

func (h *CatalogHandler) checker(ctx context.Context) func(int64) bool {
	if h.favourites == nil {
		return func(int64) bool { return false }
	}
	return h.favourites.FavouriteChecker(ctx)
}

func annotate(t types.Tour, isFavourite func(int64) bool) types.TourView {
	return types.TourView{
		Tour:         t,
		IsFavourite:  isFavourite(t.ID),
		DurationDays: t.DurationDays(),
	}
}

func (h *CatalogHandler) parseListQuery(r *http.Request) (FilterCriteria, int, int, error) {
	q := r.URL.Query()
	c := DefaultCriteria()
	c.SearchTerm = q.Get("search")
	c.Sort = ParseSortKey(q.Get("sort"))

	var err error
	if v := q.Get("minPrice"); v != "" {
		if c.PriceMin, err = strconv.ParseFloat(v, 64); err != nil {
			return c, 0, 0, fmt.Errorf("invalid minPrice %q", v)
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if c.PriceMax, err = strconv.ParseFloat(v, 64); err != nil {
			return c, 0, 0, fmt.Errorf("invalid maxPrice %q", v)
		}
	}
	if v := q.Get("category"); v != "" {
		id, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			return c, 0, 0, fmt.Errorf("invalid category %q", v)
		}
		c.CategoryID = &id
	}

	page, pageSize := 1, h.pageSize
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return c, 0, 0, fmt.Errorf("invalid page %q", v)
		}
	}
	if v := q.Get("pageSize"); v != "" {
		if pageSize, err = strconv.Atoi(v); err != nil {
			return c, 0, 0, fmt.Errorf("invalid pageSize %q", v)
		}
	}
	return c, page, pageSize, nil
}

func upstreamError(w http.ResponseWriter, r *http.Request, message string) {
	api.ErrorResponseWith(w, r, http.StatusBadGateway, message, map[string]any{"retryable": true})
}
