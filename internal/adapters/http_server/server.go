package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Options struct {
	Timeout time.Duration
	// SearchRPS and SearchBurst bound /v1/search; zero disables the limiter.
	SearchRPS   float64
	SearchBurst int
}

type Server struct {
	mux    *chi.Mux
	search *rate.Limiter
}

func New(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	m := chi.NewRouter()

	// middlewares must be registered before any route
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(Timeout(opts.Timeout))
	m.Use(Metrics)
	m.Use(Logger(log.Logger))

	s := &Server{mux: m}
	if opts.SearchRPS > 0 {
		burst := max(opts.SearchBurst, 1)
		s.search = rate.NewLimiter(rate.Limit(opts.SearchRPS), burst)
	}
	return s
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
