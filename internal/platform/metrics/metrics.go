// Package metrics registers the Prometheus metrics for the ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AssetsRegistered    prometheus.Counter
	TransitionsApplied  *prometheus.CounterVec
	BatchesApplied      prometheus.Counter
	BatchMembersFailed  prometheus.Counter
	ArtifactsIssued     *prometheus.CounterVec
	ArtifactsRevoked    prometheus.Counter
	SequencesExhausted  prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AssetsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_assets_registered_total",
			Help: "Total number of assets registered at intake",
		}),
		TransitionsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assetledger_transitions_applied_total",
			Help: "Total number of committed stage transitions",
		}, []string{"target"}),
		BatchesApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_batches_applied_total",
			Help: "Total number of committed batch transitions",
		}),
		BatchMembersFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_batch_members_failed_total",
			Help: "Total number of batch members rejected by validation",
		}),
		ArtifactsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assetledger_artifacts_issued_total",
			Help: "Total number of issued compliance artifacts",
		}, []string{"kind"}),
		ArtifactsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_artifacts_revoked_total",
			Help: "Total number of revoked compliance artifacts",
		}),
		SequencesExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assetledger_sequences_exhausted_total",
			Help: "Total number of identifier allocations rejected by counter overflow",
		}),
	}
}
