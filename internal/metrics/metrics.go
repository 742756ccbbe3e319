package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "archive"

// CacheMetrics holds Prometheus metrics for the vods response cache.
type CacheMetrics struct {
	Hits   prometheus.Counter
	Misses prometheus.Counter
	Purges prometheus.Counter
}

// NewCacheMetrics creates and registers cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vods_cache",
			Name:      "hits_total",
			Help:      "Total number of vods cache hits.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vods_cache",
			Name:      "misses_total",
			Help:      "Total number of vods cache misses.",
		}),
		Purges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vods_cache",
			Name:      "purges_total",
			Help:      "Total number of collection-wide cache purges.",
		}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Purges)
	return m
}

// TwitchMetrics counts outbound Twitch API requests by surface and outcome.
type TwitchMetrics struct {
	Requests *prometheus.CounterVec
}

// NewTwitchMetrics creates and registers Twitch API metrics.
func NewTwitchMetrics(reg prometheus.Registerer) *TwitchMetrics {
	m := &TwitchMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "requests_total",
			Help:      "Total number of Twitch API requests, by surface and outcome.",
		}, []string{"surface", "outcome"}),
	}

	reg.MustRegister(m.Requests)
	return m
}
