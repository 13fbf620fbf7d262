package lottery

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"lottochain/core/types"
)

const (
	EventTypeTicketSold     = "lottery.ticket.sold"
	EventTypeTicketBurned   = "lottery.ticket.burned"
	EventTypeBucketFunded   = "lottery.bucket.funded"
	EventTypeDrawConfigured = "lottery.draw.configured"
	EventTypeDrawRequested  = "lottery.draw.requested"
	EventTypeDrawCompleted  = "lottery.draw.completed"
)

type lotteryEvent struct {
	evt *types.Event
}

func (e lotteryEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e lotteryEvent) Event() *types.Event { return e.evt }

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newTicketSoldEvent(record *TicketRecord, payToken string) *types.Event {
	if record == nil {
		return nil
	}
	return &types.Event{Type: EventTypeTicketSold, Attributes: map[string]string{
		"owner":       hex.EncodeToString(record.Owner[:]),
		"ticketId":    strconv.FormatUint(record.TicketID, 10),
		"tier":        strconv.FormatUint(uint64(record.Tier), 10),
		"weightStart": strconv.FormatUint(record.WeightStart, 10),
		"weightEnd":   strconv.FormatUint(record.WeightEnd, 10),
		"payToken":    payToken,
	}}
}

func newTicketBurnedEvent(owner [20]byte, ticketID uint64) *types.Event {
	return &types.Event{Type: EventTypeTicketBurned, Attributes: map[string]string{
		"owner":    hex.EncodeToString(owner[:]),
		"ticketId": strconv.FormatUint(ticketID, 10),
	}}
}

func newBucketFundedEvent(kind DrawKind, funder [20]byte, base *big.Int, payouts []AuxPayout) *types.Event {
	attrs := map[string]string{
		"kind":   kind.String(),
		"funder": hex.EncodeToString(funder[:]),
		"base":   formatAmount(base),
	}
	for _, p := range payouts {
		attrs["aux."+p.Token] = formatAmount(p.Amount)
	}
	return &types.Event{Type: EventTypeBucketFunded, Attributes: attrs}
}

func newDrawConfiguredEvent(cfg *DrawConfig) *types.Event {
	if cfg == nil {
		return nil
	}
	return &types.Event{Type: EventTypeDrawConfigured, Attributes: map[string]string{
		"kind":            cfg.Kind.String(),
		"initialPrize":    formatAmount(cfg.InitialPrize),
		"halvingInterval": strconv.FormatUint(cfg.HalvingInterval, 10),
		"drawInterval":    strconv.FormatInt(cfg.DrawInterval, 10),
	}}
}

func newDrawRequestedEvent(pending *PendingDraw) *types.Event {
	if pending == nil {
		return nil
	}
	return &types.Event{Type: EventTypeDrawRequested, Attributes: map[string]string{
		"kind":        pending.Kind.String(),
		"drawId":      strconv.FormatUint(pending.DrawID, 10),
		"totalWeight": strconv.FormatUint(pending.TotalWeight, 10),
		"prize":       formatAmount(pending.Prize),
	}}
}

func newDrawCompletedEvent(draw *Draw) *types.Event {
	if draw == nil {
		return nil
	}
	attrs := map[string]string{
		"kind":        draw.Kind.String(),
		"drawId":      strconv.FormatUint(draw.ID, 10),
		"winner":      hex.EncodeToString(draw.Winner[:]),
		"ticketId":    strconv.FormatUint(draw.TicketID, 10),
		"randomValue": strconv.FormatUint(draw.RandomValue, 10),
		"prizePaid":   formatAmount(draw.PrizePaid),
		"totalWeight": strconv.FormatUint(draw.TotalWeight, 10),
	}
	for _, p := range draw.AuxPaid {
		attrs["aux."+p.Token] = formatAmount(p.Amount)
	}
	return &types.Event{Type: EventTypeDrawCompleted, Attributes: attrs}
}
