package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks block production and operation outcomes of the node.
type LedgerMetrics struct {
	height      prometheus.Gauge
	blocks      prometheus.Counter
	blockTxs    prometheus.Histogram
	operations  *prometheus.CounterVec
	distributed prometheus.Counter
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			height: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "ubi_ledger_height",
				Help: "Height of the last sealed block.",
			}),
			blocks: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "ubi_ledger_blocks_sealed_total",
				Help: "Number of blocks sealed since start.",
			}),
			blockTxs: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "ubi_ledger_block_operations",
				Help:    "Accepted operations per sealed block.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			}),
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "ubi_ledger_operations_total",
				Help: "Operations processed by the node segmented by operation and outcome kind.",
			}, []string{"operation", "outcome"}),
			distributed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "ubi_ledger_distributed_total",
				Help: "Sum of claim payouts in base units. Approximate for very large values.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.height,
			ledgerRegistry.blocks,
			ledgerRegistry.blockTxs,
			ledgerRegistry.operations,
			ledgerRegistry.distributed,
		)
	})
	return ledgerRegistry
}

// RecordBlock records a sealed block.
func (m *LedgerMetrics) RecordBlock(height uint64, operations int) {
	if m == nil {
		return
	}
	m.height.Set(float64(height))
	m.blocks.Inc()
	m.blockTxs.Observe(float64(operations))
}

// RecordOperation counts one processed operation. outcome is "ok" or the
// rejection kind.
func (m *LedgerMetrics) RecordOperation(operation, outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// RecordPayout adds a claim payout to the distributed counter.
func (m *LedgerMetrics) RecordPayout(amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.distributed.Add(value)
}
