package metrics

import (
	"strconv"
	"sync"

	"lottochain/core/events"
	"lottochain/core/types"
	"lottochain/native/lottery"
	"lottochain/native/rewardstake"
)

type payloadCarrier interface {
	Event() *types.Event
}

// Emitter observes engine events and translates them into prometheus
// samples. It can wrap another emitter so event sinks stack.
type Emitter struct {
	next    events.Emitter
	lottery *LotteryMetrics
	staking *StakingMetrics

	mu        sync.Mutex
	requested map[string]struct{}
}

// NewEmitter returns a metrics-recording emitter. next may be nil.
func NewEmitter(next events.Emitter) *Emitter {
	return &Emitter{
		next:      next,
		lottery:   Lottery(),
		staking:   Staking(),
		requested: make(map[string]struct{}),
	}
}

func (e *Emitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	var payload *types.Event
	if carrier, ok := evt.(payloadCarrier); ok {
		payload = carrier.Event()
	}
	if payload != nil {
		attrs := payload.Attributes
		switch payload.Type {
		case lottery.EventTypeTicketSold:
			e.lottery.ObserveTicketSold(attrs["tier"])
		case lottery.EventTypeBucketFunded:
			e.lottery.ObserveBucketFunded(attrs["kind"])
		case lottery.EventTypeDrawRequested:
			e.markRequested(attrs["drawId"])
		case lottery.EventTypeDrawCompleted:
			e.lottery.ObserveDrawCompleted(attrs["kind"], attrFloat(attrs, "prizePaid"))
			e.resolveRequested(attrs["drawId"])
		case rewardstake.EventTypeStaked:
			e.staking.ObserveStake()
		case rewardstake.EventTypeRestaked:
			e.staking.ObserveRestake(attrFloat(attrs, "reward"))
		case rewardstake.EventTypeClaimed:
			e.staking.ObserveClaim(attrFloat(attrs, "reward"))
		}
	}
	if e.next != nil {
		e.next.Emit(evt)
	}
}

// markRequested records an outstanding entropy request so the pending gauge
// only drops when the matching draw completes.
func (e *Emitter) markRequested(drawID string) {
	if drawID == "" {
		return
	}
	e.mu.Lock()
	e.requested[drawID] = struct{}{}
	e.mu.Unlock()
	e.lottery.IncVRFPending()
}

func (e *Emitter) resolveRequested(drawID string) {
	if drawID == "" {
		return
	}
	e.mu.Lock()
	_, ok := e.requested[drawID]
	if ok {
		delete(e.requested, drawID)
	}
	e.mu.Unlock()
	if ok {
		e.lottery.DecVRFPending()
	}
}

func attrFloat(attrs map[string]string, key string) float64 {
	raw, ok := attrs[key]
	if !ok {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}
