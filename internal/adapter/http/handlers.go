package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/adapter/render"
	"github.com/couchcryptid/casualty-tracker/internal/domain"
	"github.com/couchcryptid/casualty-tracker/internal/events"
	"github.com/couchcryptid/casualty-tracker/internal/loader"
	"github.com/go-chi/chi/v5"
)

type regionView struct {
	Key               domain.Region `json:"key"`
	Name              string        `json:"name"`
	HasSettlerAttacks bool          `json:"has_settler_attacks"`
	HasProfessionals  bool          `json:"has_professionals"`
	Active            bool          `json:"active"`
	Loaded            bool          `json:"loaded"`
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	active := s.dashboard.ActiveRegion()
	out := make([]regionView, 0, len(domain.Regions()))
	for _, r := range domain.Regions() {
		info := r.Info()
		_, loaded := s.dashboard.Series(r)
		out = append(out, regionView{
			Key:               r,
			Name:              info.Name,
			HasSettlerAttacks: info.HasSettlerAttacks,
			HasProfessionals:  info.HasProfessionals,
			Active:            r == active,
			Loaded:            loaded,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	region, series, ok := s.loadedRegion(w, r)
	if !ok {
		return
	}
	sum, _ := domain.Summarize(series, region)
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	_, series, ok := s.loadedRegion(w, r)
	if !ok {
		return
	}
	asOf, ok := dateParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, domain.BuildChart(series, s.opts.ChartWindow, asOf))
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	region, series, ok := s.loadedRegion(w, r)
	if !ok {
		return
	}
	asOf, ok := dateParam(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	c := domain.BuildChart(series, s.opts.ChartWindow, asOf)
	if err := render.PNG(&buf, c, render.Options{Title: region.Info().Name}); err != nil {
		if errors.Is(err, render.ErrNoPoints) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		s.logger.Error("chart render failed", "region", region, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	region, ok := regionParam(w, r)
	if !ok {
		return
	}
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	if date == "" {
		writeError(w, http.StatusBadRequest, errors.New("date is required"))
		return
	}
	lookup, err := s.dashboard.LoadForDate(r.Context(), region, date)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, lookup)
}

type activeRegionRequest struct {
	Region string `json:"region"`
}

func (s *Server) handleActiveRegion(w http.ResponseWriter, r *http.Request) {
	var req activeRegionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	region, err := domain.ParseRegion(req.Region)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.dashboard.SetActiveRegion(r.Context(), region); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": string(region)})
}

type selectedDateRequest struct {
	Date string `json:"date"`
}

func (s *Server) handleSelectedDate(w http.ResponseWriter, r *http.Request) {
	var req selectedDateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := time.Parse(domain.DateLayout, req.Date); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
		return
	}
	s.dates.Publish(events.DateSelected{Date: req.Date})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "date": req.Date})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.dashboard.Refresh(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	var regions []domain.Region
	if raw := r.URL.Query().Get("region"); raw != "" {
		region, err := domain.ParseRegion(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		regions = append(regions, region)
	}
	s.cache.Clear(r.Context(), regions...)
	w.WriteHeader(http.StatusNoContent)
}

// loadedRegion resolves the {region} parameter and its dashboard series.
func (s *Server) loadedRegion(w http.ResponseWriter, r *http.Request) (domain.Region, domain.Series, bool) {
	region, ok := regionParam(w, r)
	if !ok {
		return "", nil, false
	}
	series, ok := s.dashboard.Series(region)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errors.New("no data loaded for "+string(region)))
		return "", nil, false
	}
	return region, series, true
}

func regionParam(w http.ResponseWriter, r *http.Request) (domain.Region, bool) {
	region, err := domain.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return "", false
	}
	return region, true
}

func dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return "", true
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
		return "", false
	}
	return date, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return false
	}
	return true
}

// statusFor maps coordinator and fetch errors onto HTTP status codes.
// Request input is validated before it reaches the coordinator, so anything
// unrecognized is an upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loader.ErrRefreshThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrInvalidRegion):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoDataForDate):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  domain.ErrorKind(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
