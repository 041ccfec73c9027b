package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ChainMetrics aggregates the prometheus series for consensus, DA, mempool,
// and runtime: one lazily-initialized, process-wide struct guarded by
// sync.Once. Only the mempool and runtime packages update series; the
// view-change, quorum-size, DA and slash collectors have no caller.
type ChainMetrics struct {
	blocksCommitted   prometheus.Counter
	viewChanges       prometheus.Counter
	quorumSize        prometheus.Gauge
	daBlobsPosted     prometheus.Counter
	daSampleFailures  *prometheus.CounterVec
	mempoolSize       prometheus.Gauge
	mempoolRejections *prometheus.CounterVec
	txApplied         *prometheus.CounterVec
	gasUsedPerBlock   prometheus.Histogram
	inflationMinted   prometheus.Counter
	slashesApplied    *prometheus.CounterVec
}

var (
	chainOnce     sync.Once
	chainRegistry *ChainMetrics
)

// Chain returns the process-wide chain metrics registry, registering its
// collectors with the default prometheus registry on first use.
func Chain() *ChainMetrics {
	chainOnce.Do(func() {
		chainRegistry = &ChainMetrics{
			blocksCommitted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "corechain_blocks_committed_total",
				Help: "Count of blocks committed by this replica.",
			}),
			viewChanges: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "corechain_view_changes_total",
				Help: "Count of consensus view changes triggered by timeout.",
			}),
			quorumSize: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "corechain_quorum_stake_threshold",
				Help: "Current stake-weighted quorum threshold.",
			}),
			daBlobsPosted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "corechain_da_blobs_posted_total",
				Help: "Count of blobs posted to the data availability layer.",
			}),
			daSampleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "corechain_da_sample_failures_total",
				Help: "Count of failed DA sampling proofs by reason.",
			}, []string{"reason"}),
			mempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "corechain_mempool_size",
				Help: "Current number of pending transactions in the mempool.",
			}),
			mempoolRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "corechain_mempool_rejections_total",
				Help: "Count of transactions rejected from the mempool by reason.",
			}, []string{"reason"}),
			txApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "corechain_tx_applied_total",
				Help: "Count of transactions applied by payload kind and outcome.",
			}, []string{"kind", "outcome"}),
			gasUsedPerBlock: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "corechain_block_gas_used",
				Help:    "Gas used per committed block.",
				Buckets: prometheus.DefBuckets,
			}),
			inflationMinted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "corechain_inflation_minted_total",
				Help: "Cumulative count of inflation-reward minting events.",
			}),
			slashesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "corechain_slashes_applied_total",
				Help: "Count of slash penalties applied by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			chainRegistry.blocksCommitted,
			chainRegistry.viewChanges,
			chainRegistry.quorumSize,
			chainRegistry.daBlobsPosted,
			chainRegistry.daSampleFailures,
			chainRegistry.mempoolSize,
			chainRegistry.mempoolRejections,
			chainRegistry.txApplied,
			chainRegistry.gasUsedPerBlock,
			chainRegistry.inflationMinted,
			chainRegistry.slashesApplied,
		)
	})
	return chainRegistry
}

func (m *ChainMetrics) IncBlocksCommitted() {
	if m == nil {
		return
	}
	m.blocksCommitted.Inc()
}

func (m *ChainMetrics) IncViewChanges() {
	if m == nil {
		return
	}
	m.viewChanges.Inc()
}

func (m *ChainMetrics) SetQuorumSize(stake float64) {
	if m == nil {
		return
	}
	m.quorumSize.Set(stake)
}

func (m *ChainMetrics) IncDABlobsPosted() {
	if m == nil {
		return
	}
	m.daBlobsPosted.Inc()
}

func (m *ChainMetrics) IncDASampleFailure(reason string) {
	if m == nil {
		return
	}
	m.daSampleFailures.WithLabelValues(normalise(reason)).Inc()
}

func (m *ChainMetrics) SetMempoolSize(size float64) {
	if m == nil {
		return
	}
	m.mempoolSize.Set(size)
}

func (m *ChainMetrics) IncMempoolRejection(reason string) {
	if m == nil {
		return
	}
	m.mempoolRejections.WithLabelValues(normalise(reason)).Inc()
}

func (m *ChainMetrics) IncTxApplied(kind, outcome string) {
	if m == nil {
		return
	}
	m.txApplied.WithLabelValues(normalise(kind), normalise(outcome)).Inc()
}

func (m *ChainMetrics) ObserveBlockGasUsed(gas float64) {
	if m == nil {
		return
	}
	m.gasUsedPerBlock.Observe(gas)
}

func (m *ChainMetrics) IncInflationMinted() {
	if m == nil {
		return
	}
	m.inflationMinted.Inc()
}

func (m *ChainMetrics) IncSlashApplied(reason string) {
	if m == nil {
		return
	}
	m.slashesApplied.WithLabelValues(normalise(reason)).Inc()
}

func normalise(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
