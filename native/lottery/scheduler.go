package lottery

import "math/big"

// NewDrawConfig validates and builds the schedule state for one draw kind.
// The cadence is fixed by the kind; the prize and halving interval come from
// the admin call.
func NewDrawConfig(kind DrawKind, initialPrize *big.Int, halvingInterval uint64, now int64) (*DrawConfig, error) {
	if !kind.Valid() {
		return nil, ErrDrawNotConfigured
	}
	if initialPrize == nil || initialPrize.Sign() <= 0 {
		return nil, ErrInvalidPrize
	}
	if halvingInterval == 0 {
		return nil, ErrInvalidInterval
	}
	return &DrawConfig{
		Kind:            kind,
		InitialPrize:    new(big.Int).Set(initialPrize),
		CurrentPrize:    new(big.Int).Set(initialPrize),
		HalvingInterval: halvingInterval,
		DrawCount:       0,
		LastDrawTime:    now,
		DrawInterval:    kind.IntervalSeconds(),
		Active:          true,
	}, nil
}

// CheckAndAdvance gates one draw attempt and moves the schedule forward. The
// halving check runs before the count advances, so the prize halves exactly
// when the completed-draw count is a nonzero multiple of the halving
// interval. Halving uses truncating division: a prize of 1 becomes 0 and
// stays there, which is the intended terminal state of the schedule.
func (c *DrawConfig) CheckAndAdvance(now int64) (*big.Int, error) {
	if c == nil {
		return nil, ErrDrawNotConfigured
	}
	if !c.Active {
		return nil, ErrDrawInactive
	}
	if now < c.LastDrawTime+c.DrawInterval {
		return nil, ErrDrawTooEarly
	}
	if c.CurrentPrize == nil {
		c.CurrentPrize = big.NewInt(0)
	}
	if c.DrawCount > 0 && c.HalvingInterval > 0 && c.DrawCount%c.HalvingInterval == 0 {
		c.CurrentPrize = new(big.Int).Quo(c.CurrentPrize, big.NewInt(2))
	}
	c.DrawCount++
	c.LastDrawTime = now
	return new(big.Int).Set(c.CurrentPrize), nil
}
