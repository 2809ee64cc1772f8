package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const tokenUnit = 1e18

// wholeTokens down-scales an 18-decimal amount for gauge/counter use. Metric
// precision loss is acceptable; the ledger keeps the exact values.
func wholeTokens(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), big.NewFloat(tokenUnit)).Float64()
	return f
}

// StakingMetrics tracks deposit and withdrawal flow through the lock queue.
type StakingMetrics struct {
	deposits    prometheus.Counter
	withdrawals prometheus.Counter
	bonded      prometheus.Gauge
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the metrics registry for the stake ledger.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			deposits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "hatchnet",
				Subsystem: "staking",
				Name:      "deposits_total",
				Help:      "Count of accepted stake deposits.",
			}),
			withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "hatchnet",
				Subsystem: "staking",
				Name:      "withdrawals_total",
				Help:      "Count of settled stake withdrawals.",
			}),
			bonded: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "hatchnet",
				Subsystem: "staking",
				Name:      "bonded_tokens",
				Help:      "Net bonded amount in whole tokens.",
			}),
		}
		prometheus.MustRegister(stakingRegistry.deposits, stakingRegistry.withdrawals, stakingRegistry.bonded)
	})
	return stakingRegistry
}

// Deposited records an accepted deposit.
func (m *StakingMetrics) Deposited(amount *big.Int) {
	if m == nil {
		return
	}
	m.deposits.Inc()
	m.bonded.Add(wholeTokens(amount))
}

// Withdrawn records a settled withdrawal.
func (m *StakingMetrics) Withdrawn(amount *big.Int) {
	if m == nil {
		return
	}
	m.withdrawals.Inc()
	m.bonded.Sub(wholeTokens(amount))
}

// StoreMetrics tracks catalog purchases.
type StoreMetrics struct {
	purchases prometheus.Counter
	revenue   prometheus.Counter
}

var (
	storeOnce     sync.Once
	storeRegistry *StoreMetrics
)

// Store returns the metrics registry for the product catalog.
func Store() *StoreMetrics {
	storeOnce.Do(func() {
		storeRegistry = &StoreMetrics{
			purchases: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "hatchnet",
				Subsystem: "store",
				Name:      "purchases_total",
				Help:      "Count of completed catalog purchases.",
			}),
			revenue: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "hatchnet",
				Subsystem: "store",
				Name:      "revenue_tokens_total",
				Help:      "Cumulative purchase revenue in whole payment tokens.",
			}),
		}
		prometheus.MustRegister(storeRegistry.purchases, storeRegistry.revenue)
	})
	return storeRegistry
}

// Purchased records a completed purchase.
func (m *StoreMetrics) Purchased(price *big.Int) {
	if m == nil {
		return
	}
	m.purchases.Inc()
	m.revenue.Add(wholeTokens(price))
}
