package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"carikemah/internal/app"
	"carikemah/internal/domain"
)

type Handlers struct {
	Engines    *app.EngineLoader
	Search     *app.SearchService
	Places     *app.PlaceService
	Scorecards *app.ScorecardService
	Bookings   *app.BookingService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/readyz", h.ready)

	s.mux.Route("/v1", func(r chi.Router) {
		r.With(RateLimit(s.search)).Get("/search", h.search)
		r.Get("/search/analyze", h.analyze)

		r.Get("/places", h.places)
		r.Get("/places/{id}", h.place)
		r.Get("/places/{id}/reviews", h.listReviews)
		r.Get("/places/{id}/scorecard", h.placeScorecard)
		r.Get("/scorecards", h.scorecards)

		r.Post("/bookings", h.createBooking)
		r.Get("/bookings", h.listBookings)
		r.Get("/bookings/{id}", h.getBooking)
		r.Post("/bookings/{id}/confirm", h.confirmBooking)
		r.Post("/bookings/{id}/cancel", h.cancelBooking)

		r.Get("/admin/history", h.history)
		r.Post("/admin/reindex", h.reindex)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrInvalidBooking):
		writeProblem(w, http.StatusBadRequest, "Invalid Booking", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Timeout", "request took too long")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached writes v with a weak ETag, answering 304 when the client
// already holds this version.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

// intParam reads an optional integer query parameter within [1, hi].
func intParam(w http.ResponseWriter, r *http.Request, name string, def, hi int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > hi {
		writeProblem(w, http.StatusBadRequest, "Invalid "+name, name+" must be an integer between 1 and "+strconv.Itoa(hi))
		return 0, false
	}
	return n, true
}

func (h *Handlers) ready(w http.ResponseWriter, r *http.Request) {
	eng := h.Engines.Current()
	if !eng.Ready() {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", domain.ErrEngineNotReady.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":      true,
		"generation": h.Engines.Generation(),
		"documents":  eng.Documents(),
		"places":     eng.Places(),
		"built_at":   eng.BuiltAt(),
	})
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid query", "q is required")
		return
	}
	k, ok := intParam(w, r, "k", 0, 100)
	if !ok {
		return
	}
	sortBy := r.URL.Query().Get("sort")
	if sortBy != "" && sortBy != app.SortScore && sortBy != app.SortRating {
		writeProblem(w, http.StatusBadRequest, "Invalid sort", "sort must be score or rating")
		return
	}
	resp, err := h.Search.Search(r.Context(), q, k, sortBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) analyze(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Search.Analyze(r.URL.Query().Get("q")))
}

func (h *Handlers) places(w http.ResponseWriter, r *http.Request) {
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		pv, err := h.Places.FindByName(r.Context(), name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeCached(w, r, pv)
		return
	}
	out, err := h.Places.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) place(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	pv, err := h.Places.Details(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, pv)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit, ok := intParam(w, r, "limit", 50, 200)
	if !ok {
		return
	}
	out, err := h.Places.Reviews(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) placeScorecard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sc, err := h.Scorecards.ForPlace(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, sc)
}

func (h *Handlers) scorecards(w http.ResponseWriter, r *http.Request) {
	all, err := h.Scorecards.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, all)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req app.CreateBookingRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	b, err := h.Bookings.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/bookings/"+strconv.FormatInt(b.ID, 10))
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", 100, 500)
	if !ok {
		return
	}
	f := domain.BookingFilter{
		Customer: strings.TrimSpace(r.URL.Query().Get("customer")),
		Status:   domain.BookingStatus(strings.ToUpper(r.URL.Query().Get("status"))),
		Limit:    limit,
	}
	out, err := h.Bookings.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.Bookings.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) confirmBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Bookings.Confirm)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Bookings.Cancel)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (domain.Booking, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) history(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", 50, 500)
	if !ok {
		return
	}
	out, err := h.Search.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) reindex(w http.ResponseWriter, r *http.Request) {
	eng, err := h.Engines.Reload(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	warmed := 0
	if eng.Ready() && h.Scorecards != nil {
		if warmed, err = h.Scorecards.Warm(r.Context()); err != nil {
			log.Warn().Err(err).Msg("scorecard warm-up after reindex failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":      eng.Ready(),
		"generation": h.Engines.Generation(),
		"documents":  eng.Documents(),
		"scorecards": warmed,
	})
}
