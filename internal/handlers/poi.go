package handlers

import (
	"fmt"
	"net/http"

	"poi-backend/internal/models"
	"poi-backend/internal/pagination"
	"poi-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// POIResponse is the public representation of a POI
type POIResponse struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Details string  `json:"details"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	SelfURL string  `json:"self_url"`
}

// POIHandler handles POI-related HTTP requests
type POIHandler struct {
	poiService *services.POIService
	wsHub      *services.WSHub
	urls       URLBuilder
}

// NewPOIHandler creates a new POI handler
func NewPOIHandler(poiService *services.POIService, wsHub *services.WSHub, urls URLBuilder) *POIHandler {
	return &POIHandler{
		poiService: poiService,
		wsHub:      wsHub,
		urls:       urls,
	}
}

// GetPOI handles GET /api/v1/pois/{id}
func (h *POIHandler) GetPOI(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusNotFound, services.CodeNotFound, err.Error())
		return
	}

	poi, err := h.poiService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toResponse(r, poi))
}

// ListPOIs handles GET /api/v1/pois
func (h *POIHandler) ListPOIs(w http.ResponseWriter, r *http.Request) {
	params := pagination.ParseParams(r.URL.Query())

	pois, total, err := h.poiService.List(r.Context(), params)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	items := make([]POIResponse, 0, len(pois))
	for _, poi := range pois {
		items = append(items, h.toResponse(r, poi))
	}
	respondJSON(w, http.StatusOK, pagination.NewPage(items, total, params, h.urls.Endpoint(r)))
}

// CreatePOI handles POST /api/v1/pois
func (h *POIHandler) CreatePOI(w http.ResponseWriter, r *http.Request) {
	var req services.POIRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	poi, err := h.poiService.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info().
		Int64("poi_id", poi.ID).
		Str("name", poi.Name).
		Msg("POI created")

	resp := h.toResponse(r, poi)
	h.wsHub.NotifyPOICreated(resp)

	w.Header().Set("Location", resp.SelfURL)
	respondJSON(w, http.StatusCreated, resp)
}

// UpdatePOI handles PUT /api/v1/pois/{id}
func (h *POIHandler) UpdatePOI(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusNotFound, services.CodeNotFound, err.Error())
		return
	}

	var req services.POIRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	poi, err := h.poiService.Update(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info().Int64("poi_id", poi.ID).Msg("POI updated")

	resp := h.toResponse(r, poi)
	h.wsHub.NotifyPOIUpdated(resp)
	respondJSON(w, http.StatusOK, resp)
}

func (h *POIHandler) toResponse(r *http.Request, poi *models.POI) POIResponse {
	return POIResponse{
		ID:      poi.ID,
		Name:    poi.Name,
		Details: poi.Details,
		Lat:     poi.Lat,
		Lng:     poi.Lng,
		SelfURL: h.urls.Resource(r, fmt.Sprintf("/pois/%d", poi.ID)),
	}
}
