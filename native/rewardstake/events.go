package rewardstake

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"lottochain/core/types"
)

const (
	EventTypeStaked   = "rewardstake.staked"
	EventTypeRestaked = "rewardstake.restaked"
	EventTypeClaimed  = "rewardstake.claimed"
)

type stakeEvent struct {
	evt *types.Event
}

func (e stakeEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e stakeEvent) Event() *types.Event { return e.evt }

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newStakedEvent(addr [20]byte, balance *big.Int, now int64) *types.Event {
	return &types.Event{Type: EventTypeStaked, Attributes: map[string]string{
		"addr":    hex.EncodeToString(addr[:]),
		"balance": formatAmount(balance),
		"time":    strconv.FormatInt(now, 10),
	}}
}

func newRestakedEvent(addr [20]byte, oldBalance, newBalance, reward *big.Int) *types.Event {
	return &types.Event{Type: EventTypeRestaked, Attributes: map[string]string{
		"addr":       hex.EncodeToString(addr[:]),
		"oldBalance": formatAmount(oldBalance),
		"newBalance": formatAmount(newBalance),
		"reward":     formatAmount(reward),
	}}
}

func newClaimedEvent(addr [20]byte, effective, reward, totalClaimed *big.Int) *types.Event {
	return &types.Event{Type: EventTypeClaimed, Attributes: map[string]string{
		"addr":         hex.EncodeToString(addr[:]),
		"effective":    formatAmount(effective),
		"reward":       formatAmount(reward),
		"totalClaimed": formatAmount(totalClaimed),
	}}
}
