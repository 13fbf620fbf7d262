package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type LotteryMetrics struct {
	ticketsSold   *prometheus.CounterVec
	drawsExecuted *prometheus.CounterVec
	prizePaid     *prometheus.CounterVec
	bucketFunded  *prometheus.CounterVec
	vrfPending    prometheus.Gauge
}

var (
	lotteryOnce     sync.Once
	lotteryRegistry *LotteryMetrics
)

func Lottery() *LotteryMetrics {
	lotteryOnce.Do(func() {
		lotteryRegistry = &LotteryMetrics{
			ticketsSold: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lottery_tickets_sold_total",
				Help: "Count of tickets sold by tier.",
			}, []string{"tier"}),
			drawsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lottery_draws_executed_total",
				Help: "Count of completed draws by kind.",
			}, []string{"kind"}),
			prizePaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lottery_prize_paid_total",
				Help: "Cumulative base prize paid out by kind, in native units.",
			}, []string{"kind"}),
			bucketFunded: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lottery_bucket_funded_total",
				Help: "Count of bucket funding operations by kind.",
			}, []string{"kind"}),
			vrfPending: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lottery_vrf_pending_draws",
				Help: "Number of draws awaiting external entropy.",
			}),
		}
		prometheus.MustRegister(
			lotteryRegistry.ticketsSold,
			lotteryRegistry.drawsExecuted,
			lotteryRegistry.prizePaid,
			lotteryRegistry.bucketFunded,
			lotteryRegistry.vrfPending,
		)
	})
	return lotteryRegistry
}

func (m *LotteryMetrics) ObserveTicketSold(tier string) {
	if m == nil {
		return
	}
	if tier == "" {
		tier = "unknown"
	}
	m.ticketsSold.WithLabelValues(tier).Inc()
}

func (m *LotteryMetrics) ObserveDrawCompleted(kind string, prizePaid float64) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.drawsExecuted.WithLabelValues(kind).Inc()
	if prizePaid > 0 {
		m.prizePaid.WithLabelValues(kind).Add(prizePaid)
	}
}

func (m *LotteryMetrics) ObserveBucketFunded(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.bucketFunded.WithLabelValues(kind).Inc()
}

func (m *LotteryMetrics) IncVRFPending() {
	if m == nil {
		return
	}
	m.vrfPending.Inc()
}

func (m *LotteryMetrics) DecVRFPending() {
	if m == nil {
		return
	}
	m.vrfPending.Dec()
}
