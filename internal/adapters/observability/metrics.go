package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "carikemah"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)

	SearchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "search_requests_total", Help: "Searches by detected intent."},
		[]string{"intent"},
	)
	SearchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "search_duration_seconds",
		Help:    "Engine search duration seconds.",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})
	SearchResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "search_results",
		Help:    "Number of places returned per search.",
		Buckets: []float64{0, 1, 3, 5, 10, 20, 50, 100},
	})
	EngineReady = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "engine_ready", Help: "1 when the search engine has a model and a corpus.",
	})
	EngineDocuments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "engine_documents", Help: "Review rows indexed by the current engine.",
	})
	BackgroundEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "background_events_total", Help: "History writes and ingestion outcomes."},
		[]string{"task", "result"}, // result: ok|error|skipped
	)
)

// Serve exposes reg on a dedicated listener. An empty addr disables it and
// returns nil.
func Serve(addr string, reg *prometheus.Registry) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency, CacheEvents,
		SearchRequests, SearchLatency, SearchResults,
		EngineReady, EngineDocuments, BackgroundEvents,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveSearch(intent string, results int, dur time.Duration) {
	SearchRequests.WithLabelValues(intent).Inc()
	SearchLatency.Observe(dur.Seconds())
	SearchResults.Observe(float64(results))
}

func SetEngine(ready bool, documents int) {
	v := 0.0
	if ready {
		v = 1
	}
	EngineReady.Set(v)
	EngineDocuments.Set(float64(documents))
}

func ObserveBackground(task string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	BackgroundEvents.WithLabelValues(task, result).Inc()
}
