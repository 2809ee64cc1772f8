package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// HatchMetrics tracks claim and supply activity for the capped token.
type HatchMetrics struct {
	claimsTotal   prometheus.Counter
	claimedTokens prometheus.Counter
	supply        *prometheus.GaugeVec
}

var (
	hatchOnce     sync.Once
	hatchRegistry *HatchMetrics
)

// Hatch returns the metrics registry for the claim/vesting engine.
func Hatch() *HatchMetrics {
	hatchOnce.Do(func() {
		hatchRegistry = &HatchMetrics{
			claimsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "hatchnet",
				Subsystem: "hatch",
				Name:      "claims_total",
				Help:      "Count of successful allocation claims.",
			}),
			claimedTokens: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "hatchnet",
				Subsystem: "hatch",
				Name:      "claimed_tokens_total",
				Help:      "Total whole tokens minted through claims.",
			}),
			supply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "hatchnet",
				Subsystem: "hatch",
				Name:      "token_supply",
				Help:      "Current total supply in whole tokens by symbol.",
			}, []string{"token"}),
		}
		prometheus.MustRegister(hatchRegistry.claimsTotal, hatchRegistry.claimedTokens, hatchRegistry.supply)
	})
	return hatchRegistry
}

// ClaimProcessed records a successful claim and its minted amount.
func (m *HatchMetrics) ClaimProcessed(amount *big.Int) {
	if m == nil {
		return
	}
	m.claimsTotal.Inc()
	m.claimedTokens.Add(wholeTokens(amount))
}

// SupplyChanged records the new total supply for the token.
func (m *HatchMetrics) SupplyChanged(token string, total *big.Int) {
	if m == nil {
		return
	}
	m.supply.WithLabelValues(token).Set(wholeTokens(total))
}
