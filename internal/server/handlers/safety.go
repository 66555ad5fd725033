package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator"

	"safetyintel/internal/domain"
	"safetyintel/internal/service"
)

// Defaults applied to absent query parameters.
type Defaults struct {
	HotspotDays      int
	HotspotThreshold int
	TrendWindowDays  int
	RiskDays         int
}

// SafetyHandler serves the analytics endpoints.
type SafetyHandler struct {
	svc      domain.SafetyService
	defaults Defaults
	validate *validator.Validate
	logger   *log.Logger
}

func NewSafetyHandler(svc domain.SafetyService, defaults Defaults, logger *log.Logger) *SafetyHandler {
	return &SafetyHandler{svc: svc, defaults: defaults, validate: newValidator(), logger: logger}
}

// searchHit is the incident payload with its similarity score inlined.
type searchHit struct {
	domain.Incident
	Score float64 `json:"score"`
}

func (h *SafetyHandler) Root(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Public Safety Intelligence API is running"})
}

func (h *SafetyHandler) Health(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Search handles GET /search?query=&lat=&lon=&radius_km=&days=&limit=
func (h *SafetyHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := searchParams{Query: q.Get("query")}
	var err error
	if p.Lat, err = optFloatParam(q, "lat"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Lon, err = optFloatParam(q, "lon"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.RadiusKm, err = optFloatParam(q, "radius_km"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Days, err = optIntParam(q, "days"); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Limit, err = intParam(q, "limit", 0); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(p); err != nil {
		RespondWithError(w, http.StatusBadRequest, describeValidation(err))
		return
	}

	results, err := h.svc.Search(r.Context(), domain.SearchParams{
		Query:    p.Query,
		Lat:      p.Lat,
		Lon:      p.Lon,
		RadiusKm: p.RadiusKm,
		Days:     p.Days,
		Limit:    p.Limit,
	})
	if err != nil {
		h.upstreamError(w, r, "search failed", err)
		return
	}
	hits := make([]searchHit, len(results))
	for i, res := range results {
		hits[i] = searchHit{Incident: res.Incident, Score: res.Score}
	}
	respondWithJSON(w, http.StatusOK, hits)
}

// Hotspots handles GET /hotspots?days=30&threshold=3
func (h *SafetyHandler) Hotspots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		p   hotspotParams
		err error
	)
	if p.Days, err = intParam(q, "days", h.defaults.HotspotDays); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Threshold, err = intParam(q, "threshold", h.defaults.HotspotThreshold); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(p); err != nil {
		RespondWithError(w, http.StatusBadRequest, describeValidation(err))
		return
	}
	hotspots, err := h.svc.Hotspots(r.Context(), p.Days, p.Threshold)
	if err != nil {
		h.upstreamError(w, r, "hotspot detection failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, hotspots)
}

// Trends handles GET /trends?window_days=15
func (h *SafetyHandler) Trends(w http.ResponseWriter, r *http.Request) {
	var (
		p   trendParams
		err error
	)
	if p.WindowDays, err = intParam(r.URL.Query(), "window_days", h.defaults.TrendWindowDays); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(p); err != nil {
		RespondWithError(w, http.StatusBadRequest, describeValidation(err))
		return
	}
	trends, err := h.svc.Trends(r.Context(), p.WindowDays)
	if err != nil {
		h.upstreamError(w, r, "trend detection failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, trends)
}

// Risk handles GET /risk?days=30
func (h *SafetyHandler) Risk(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parseDays(w, r)
	if !ok {
		return
	}
	risks, err := h.svc.RiskScores(r.Context(), domain.RiskParams{Days: p.Days})
	if err != nil {
		h.upstreamError(w, r, "risk scoring failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, risks)
}

// Patrols handles GET /patrols?days=30
func (h *SafetyHandler) Patrols(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parseDays(w, r)
	if !ok {
		return
	}
	recs, err := h.svc.Patrols(r.Context(), p.Days)
	if err != nil {
		h.upstreamError(w, r, "patrol recommendation failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, recs)
}

func (h *SafetyHandler) parseDays(w http.ResponseWriter, r *http.Request) (daysParams, bool) {
	var (
		p   daysParams
		err error
	)
	if p.Days, err = intParam(r.URL.Query(), "days", h.defaults.RiskDays); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return p, false
	}
	if err := h.validate.Struct(p); err != nil {
		RespondWithError(w, http.StatusBadRequest, describeValidation(err))
		return p, false
	}
	return p, true
}

func (h *SafetyHandler) upstreamError(w http.ResponseWriter, r *http.Request, message string, err error) {
	if errors.Is(err, service.ErrEmptyQuery) {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error(message, "path", r.URL.Path, "err", err)
	RespondWithError(w, http.StatusBadGateway, message)
}
