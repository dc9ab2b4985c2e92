package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FeaturesLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "regionmap_features_loaded",
		Help: "Municipality features held in memory after the last load",
	})
	ParseFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "regionmap_parse_failures_total",
		Help: "Records whose WKT or embedded geometry could not be parsed",
	})
	SanitizeFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "regionmap_sanitize_failures_total",
		Help: "Geometries dropped because their coordinates could not be repaired",
	})
	AxisSwapsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "regionmap_axis_swaps_total",
		Help: "Geometries whose lat/lon order was corrected",
	})
	InsertFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "regionmap_insert_failures_total",
		Help: "Layer insert failures by pipeline stage",
	}, []string{"stage"})
	NetworkFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "regionmap_network_failures_total",
		Help: "Failed fetches of records or the region catalog",
	}, []string{"source"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "regionmap_cache_hits_total",
		Help: "Normalized feature loads served from redis",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "regionmap_cache_misses_total",
		Help: "Normalized feature loads that missed redis",
	})
)

func init() {
	prometheus.MustRegister(FeaturesLoaded)
	prometheus.MustRegister(ParseFailuresTotal)
	prometheus.MustRegister(SanitizeFailuresTotal)
	prometheus.MustRegister(AxisSwapsTotal)
	prometheus.MustRegister(InsertFailuresTotal)
	prometheus.MustRegister(NetworkFailuresTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
