// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Filter drop reasons used as label values.
const (
	ReasonStale    = "stale"
	ReasonKeywords = "keywords"
)

// Fetch strategy label values.
const (
	StrategyStandard = "standard"
	StrategyRender   = "render"
	StrategyHeadless = "headless"
)

var (
	fetchesTotal      *prometheus.CounterVec
	articlesTotal     *prometheus.CounterVec
	documentsFiltered *prometheus.CounterVec
	seedsTotal        *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors on the default registry. Safe to call more
// than once; the Observe helpers are no-ops until Init has run.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newshound_fetches_total",
				Help: "Total fetch attempts, labeled by strategy and outcome.",
			},
			[]string{"strategy", "outcome"},
		)

		articlesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newshound_articles_total",
				Help: "Total articles kept after filtering, labeled by source domain.",
			},
			[]string{"domain"},
		)

		documentsFiltered = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newshound_documents_filtered_total",
				Help: "Documents dropped by a filter, labeled by reason.",
			},
			[]string{"reason"},
		)

		seedsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newshound_session_seeds_total",
				Help: "Seeds processed per session, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// Handler returns an http.Handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch counts one fetch attempt.
func ObserveFetch(strategy, outcome string) {
	if fetchesTotal == nil {
		return
	}
	fetchesTotal.WithLabelValues(strategy, outcome).Inc()
}

// ObserveArticles adds the articles kept for one source domain.
func ObserveArticles(domain string, count int) {
	if articlesTotal == nil || count <= 0 {
		return
	}
	articlesTotal.WithLabelValues(domain).Add(float64(count))
}

// ObserveFiltered counts one document dropped by a filter.
func ObserveFiltered(reason string) {
	if documentsFiltered == nil {
		return
	}
	documentsFiltered.WithLabelValues(reason).Inc()
}

// ObserveSeed counts one processed seed with its outcome ("ok" or "error").
func ObserveSeed(outcome string) {
	if seedsTotal == nil {
		return
	}
	seedsTotal.WithLabelValues(outcome).Inc()
}
