package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type StakingMetrics struct {
	stakes        prometheus.Counter
	restakes      prometheus.Counter
	claims        prometheus.Counter
	rewardsMinted prometheus.Counter
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			stakes: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewardstake_stakes_total",
				Help: "Count of initial stake registrations.",
			}),
			restakes: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewardstake_restakes_total",
				Help: "Count of restakes on an existing position.",
			}),
			claims: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewardstake_claims_total",
				Help: "Count of reward claims.",
			}),
			rewardsMinted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewardstake_rewards_minted_total",
				Help: "Cumulative reward credit minted, in native units.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.stakes,
			stakingRegistry.restakes,
			stakingRegistry.claims,
			stakingRegistry.rewardsMinted,
		)
	})
	return stakingRegistry
}

func (m *StakingMetrics) ObserveStake() {
	if m == nil {
		return
	}
	m.stakes.Inc()
}

func (m *StakingMetrics) ObserveRestake(reward float64) {
	if m == nil {
		return
	}
	m.restakes.Inc()
	if reward > 0 {
		m.rewardsMinted.Add(reward)
	}
}

func (m *StakingMetrics) ObserveClaim(reward float64) {
	if m == nil {
		return
	}
	m.claims.Inc()
	if reward > 0 {
		m.rewardsMinted.Add(reward)
	}
}
