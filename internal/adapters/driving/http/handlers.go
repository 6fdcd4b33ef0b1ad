package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"content type \"kitab\": invalid configuration"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// InvalidateRequest selects the cache entries to evict.
// Without an id every entry of the content type is evicted.
// @Description Cache invalidation request
type InvalidateRequest struct {
	Type          string `json:"type" validate:"required" example:"doa"`
	Collection    string `json:"collection,omitempty" example:"arbain"`
	SubCollection string `json:"sub_collection,omitempty" example:"bukhari"`
	ID            int    `json:"id,omitempty" validate:"gte=0" example:"5"`
}

// InvalidateResponse reports what was evicted
// @Description Cache invalidation result
type InvalidateResponse struct {
	Scope   string `json:"scope" example:"type"`
	Removed int    `json:"removed" example:"42"`
}

// searchParams are the validated query parameters of a search
type searchParams struct {
	Text   string `validate:"max=200"`
	Type   string `validate:"required"`
	Limit  int    `validate:"gte=0"`
	Offset int    `validate:"gte=0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns ready when the cache backend answers a ping
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "Cache backend unavailable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.cacheStore != nil {
		if err := s.cacheStore.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "cache backend unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Content endpoints

// handleGetCatalog godoc
// @Summary      List a whole catalog
// @Description  Returns every record of a small collection ordered by id. Items that failed upstream are listed in failed.
// @Tags         Content
// @Produce      json
// @Param        type            path      string  true   "Content type"  Enums(asmaul_husna, doa, hadith, quran)
// @Param        collection      query     string  false  "Collection (hadith: arbain)"
// @Success      200             {object}  domain.CatalogResult
// @Failure      400             {object}  ErrorResponse  "Unknown type or collection that must be paged"
// @Failure      502             {object}  ErrorResponse  "Upstream unavailable"
// @Router       /content/{type} [get]
func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := collectionFromRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := s.catalogService.GetAll(r.Context(), c)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetPage godoc
// @Summary      Get a page of a collection
// @Description  Returns the window [offset, offset+limit) of a collection ordered by id
// @Tags         Content
// @Produce      json
// @Param        type            path      string  true   "Content type"
// @Param        collection      query     string  false  "Collection (hadith collection or surah number)"
// @Param        sub_collection  query     string  false  "Narrator slug for hadith/perawi"
// @Param        offset          query     int     false  "Offset"  default(0)
// @Param        limit           query     int     false  "Page size"
// @Success      200             {object}  domain.Page
// @Failure      400             {object}  ErrorResponse
// @Router       /content/{type}/page [get]
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	c, err := collectionFromRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	page, err := s.catalogService.GetPage(r.Context(), c, offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// handleGetItem godoc
// @Summary      Get a single record
// @Tags         Content
// @Produce      json
// @Param        type            path      string  true   "Content type"
// @Param        id              path      int     true   "Record number within the collection"
// @Param        collection      query     string  false  "Collection"
// @Param        sub_collection  query     string  false  "Sub-collection"
// @Success      200             {object}  domain.Record
// @Failure      404             {object}  ErrorResponse  "Out of range or missing upstream"
// @Failure      504             {object}  ErrorResponse  "Upstream timeout"
// @Router       /content/{type}/items/{id} [get]
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadItem(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleShareItem godoc
// @Summary      Compose share texts for a record
// @Tags         Content
// @Produce      json
// @Param        type            path      string  true   "Content type"
// @Param        id              path      int     true   "Record number within the collection"
// @Param        collection      query     string  false  "Collection"
// @Param        sub_collection  query     string  false  "Sub-collection"
// @Success      200             {object}  domain.ShareMessage
// @Failure      404             {object}  ErrorResponse
// @Router       /content/{type}/items/{id}/share [get]
func (s *Server) handleShareItem(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadItem(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.shareService.Compose(record))
}

func (s *Server) loadItem(w http.ResponseWriter, r *http.Request) (*domain.Record, bool) {
	c, err := collectionFromRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	record, err := s.catalogService.Get(r.Context(), c.Ref(id))
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return record, true
}

// Search endpoints

// handleSearch godoc
// @Summary      Search content
// @Description  Ranks the records of one content type against q. Without q the filtered records are listed by id.
// @Tags         Search
// @Produce      json
// @Param        q               query     string  false  "Search text"
// @Param        type            query     string  true   "Content type"
// @Param        category        query     string  false  "Category filter (doa)"
// @Param        collection      query     string  false  "Collection filter"
// @Param        sub_collection  query     string  false  "Sub-collection filter"
// @Param        number_range    query     string  false  "Number range, a-b or a"
// @Param        limit           query     int     false  "Max results"  default(20)
// @Param        offset          query     int     false  "Offset"       default(0)
// @Success      200             {object}  domain.SearchResponse
// @Failure      400             {object}  ErrorResponse
// @Router       /search [get]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := searchParams{Text: q.Get("q"), Type: q.Get("type")}
	var err error
	if params.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if params.Offset, err = queryInt(r, "offset"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	if err := s.validate.Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	contentType, err := domain.ParseContentType(params.Type)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	filters, err := domain.ParseFilters(map[string]string{
		domain.FilterCategory:      q.Get(domain.FilterCategory),
		domain.FilterCollection:    q.Get(domain.FilterCollection),
		domain.FilterSubCollection: q.Get(domain.FilterSubCollection),
		domain.FilterNumberRange:   q.Get(domain.FilterNumberRange),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp, err := s.searchService.Search(r.Context(), domain.SearchQuery{
		Text:        params.Text,
		ContentType: contentType,
		Filters:     filters,
		Limit:       params.Limit,
		Offset:      params.Offset,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleSuggest godoc
// @Summary      Title suggestions
// @Description  Titles starting with prefix, for small catalogs
// @Tags         Search
// @Produce      json
// @Param        type    query     string  true   "Content type"
// @Param        prefix  query     string  true   "Prefix"
// @Param        limit   query     int     false  "Max suggestions"  default(10)
// @Success      200     {array}   domain.SearchSuggestion
// @Failure      400     {object}  ErrorResponse
// @Router       /search/suggest [get]
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	contentType, err := domain.ParseContentType(r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	suggestions, err := s.searchService.Suggest(r.Context(), contentType, r.URL.Query().Get("prefix"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestions)
}

// Admin endpoints

// handleInvalidateCache godoc
// @Summary      Invalidate cached content
// @Description  Evicts one record (with id) or every entry of a content type (without id)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      InvalidateRequest  true  "Entries to evict"
// @Success      200      {object}  InvalidateResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Router       /admin/cache/invalidate [post]
func (s *Server) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req InvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	contentType, err := domain.ParseContentType(req.Type)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	authCtx := GetAuthContext(r.Context())

	if req.ID == 0 {
		removed, err := s.cacheAdminService.InvalidateType(r.Context(), contentType)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		s.logger.Info("cache invalidated",
			"scope", "type",
			"content_type", contentType,
			"removed", removed,
			"subject", authCtx.Subject,
		)
		writeJSON(w, http.StatusOK, InvalidateResponse{Scope: "type", Removed: removed})
		return
	}

	c, err := domain.ResolveCollection(contentType, req.Collection, req.SubCollection)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := s.cacheAdminService.Invalidate(r.Context(), c.Ref(req.ID)); err != nil {
		writeServiceError(w, err)
		return
	}
	s.logger.Info("cache invalidated",
		"scope", "record",
		"content_type", contentType,
		"collection", c.Name,
		"id", req.ID,
		"subject", authCtx.Subject,
	)
	writeJSON(w, http.StatusOK, InvalidateResponse{Scope: "record", Removed: 1})
}

// Helpers

// collectionFromRequest resolves {type} and the collection query parameters
func collectionFromRequest(r *http.Request) (domain.Collection, error) {
	contentType, err := domain.ParseContentType(r.PathValue("type"))
	if err != nil {
		return domain.Collection{}, err
	}
	q := r.URL.Query()
	return domain.ResolveCollection(contentType, q.Get("collection"), q.Get("sub_collection"))
}

// queryInt parses an optional integer query parameter; absent means 0
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "invalid " + verrs[0].Field()
	}
	return "invalid request"
}

// writeServiceError maps the domain error taxonomy onto HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConfig), errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "upstream timeout")
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream unavailable")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
