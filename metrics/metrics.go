// Package metrics defines the relayer's prometheus series, exposed by
// httpapi on /metrics. Unlike the monolithic, package-level instrument
// registry this is grounded on, every series here is a field on an
// explicit Metrics struct threaded into the engines that increment it -
// no global registry, no package-level state.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters the execution pipeline reports against.
type Metrics struct {
	// MatchesFound is registered and exported; no engine increments it.
	MatchesFound      prometheus.Counter
	SubmissionsTotal  *prometheus.CounterVec
	NonceAllocations  prometheus.Counter
}

// New builds a Metrics and registers its series against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MatchesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relayer_matches_found_total",
			Help: "Matches produced by the matching engine.",
		}),
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relayer_submissions_total",
			Help: "Execution engine submissions by outcome.",
		}, []string{"status"}),
		NonceAllocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relayer_nonce_allocations_total",
			Help: "Nonces allocated by the nonce provider.",
		}),
	}
	reg.MustRegister(m.MatchesFound, m.SubmissionsTotal, m.NonceAllocations)
	return m
}

// NewForTesting builds a Metrics registered against a fresh, private
// registry, for tests that construct engines without an httpapi.Server.
func NewForTesting() *Metrics {
	return New(prometheus.NewRegistry())
}
