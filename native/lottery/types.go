package lottery

import (
	"fmt"
	"math/big"
)

// DrawKind identifies one of the four independent draw schedules. Each kind
// keeps its own configuration and prize bucket; nothing ties them together.
type DrawKind uint8

const (
	DrawKindWeekly DrawKind = iota
	DrawKindMonthly
	DrawKindQuarterly
	DrawKindYearly

	drawKindCount = 4
)

const secondsPerDay int64 = 86_400

// IntervalSeconds returns the fixed cadence for the draw kind.
func (k DrawKind) IntervalSeconds() int64 {
	switch k {
	case DrawKindWeekly:
		return 7 * secondsPerDay
	case DrawKindMonthly:
		return 30 * secondsPerDay
	case DrawKindQuarterly:
		return 90 * secondsPerDay
	case DrawKindYearly:
		return 365 * secondsPerDay
	default:
		return 0
	}
}

func (k DrawKind) Valid() bool { return k < drawKindCount }

func (k DrawKind) String() string {
	switch k {
	case DrawKindWeekly:
		return "weekly"
	case DrawKindMonthly:
		return "monthly"
	case DrawKindQuarterly:
		return "quarterly"
	case DrawKindYearly:
		return "yearly"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseDrawKind maps the textual kind used on the query surface back to the
// internal identifier.
func ParseDrawKind(s string) (DrawKind, bool) {
	switch s {
	case "weekly":
		return DrawKindWeekly, true
	case "monthly":
		return DrawKindMonthly, true
	case "quarterly":
		return DrawKindQuarterly, true
	case "yearly":
		return DrawKindYearly, true
	default:
		return 0, false
	}
}

// Tier prices one ticket class in each of the three accepted payment assets
// and fixes the probability weight granted per ticket.
type Tier struct {
	Weight   uint64
	PriceLTO *big.Int
	PriceZLT *big.Int
	PricePTS *big.Int
}

// Clone produces a deep copy to protect internal references.
func (t *Tier) Clone() *Tier {
	if t == nil {
		return nil
	}
	return &Tier{
		Weight:   t.Weight,
		PriceLTO: copyBigInt(t.PriceLTO),
		PriceZLT: copyBigInt(t.PriceZLT),
		PricePTS: copyBigInt(t.PricePTS),
	}
}

// TicketRecord is one entry of the weight ledger. Records are appended in
// weight order and never mutated or removed; burning a ticket leaves its
// range in place and eligible to win.
type TicketRecord struct {
	Owner       [20]byte
	TicketID    uint64
	Tier        uint8
	WeightStart uint64
	WeightEnd   uint64
}

// Weight returns the span of the record's range.
func (r *TicketRecord) Weight() uint64 {
	if r == nil {
		return 0
	}
	return r.WeightEnd - r.WeightStart
}

// Contains reports whether the half-open range [WeightStart, WeightEnd)
// covers the value.
func (r *TicketRecord) Contains(value uint64) bool {
	if r == nil {
		return false
	}
	return value >= r.WeightStart && value < r.WeightEnd
}

// DrawConfig carries the per-kind schedule state.
type DrawConfig struct {
	Kind            DrawKind
	InitialPrize    *big.Int
	CurrentPrize    *big.Int
	HalvingInterval uint64
	DrawCount       uint64
	LastDrawTime    int64
	DrawInterval    int64
	Active          bool
}

// Clone produces a deep copy to protect internal references.
func (c *DrawConfig) Clone() *DrawConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.InitialPrize = copyBigInt(c.InitialPrize)
	clone.CurrentPrize = copyBigInt(c.CurrentPrize)
	return &clone
}

// PrizeBucket accumulates the base coin plus any auxiliary assets funded for
// one draw kind. The winner drains it entirely.
type PrizeBucket struct {
	Base       *big.Int
	AuxAssets  []string
	AuxAmounts map[string]*big.Int
}

// NewPrizeBucket returns an empty bucket.
func NewPrizeBucket() *PrizeBucket {
	return &PrizeBucket{
		Base:       big.NewInt(0),
		AuxAmounts: make(map[string]*big.Int),
	}
}

// Clone produces a deep copy to protect internal references.
func (b *PrizeBucket) Clone() *PrizeBucket {
	if b == nil {
		return NewPrizeBucket()
	}
	clone := NewPrizeBucket()
	clone.Base = copyBigInt(b.Base)
	clone.AuxAssets = append([]string(nil), b.AuxAssets...)
	for token, amount := range b.AuxAmounts {
		clone.AuxAmounts[token] = copyBigInt(amount)
	}
	return clone
}

// AuxPayout is one auxiliary asset paid out on a completed draw.
type AuxPayout struct {
	Token  string
	Amount *big.Int
}

// Draw is the immutable record of a completed draw.
type Draw struct {
	ID           uint64
	Kind         DrawKind
	Timestamp    int64
	Winner       [20]byte
	TicketID     uint64
	RandomValue  uint64
	PrizePaid    *big.Int
	Participants uint64
	TotalWeight  uint64
	AuxPaid      []AuxPayout
}

// WinRecord indexes one win in a user's history.
type WinRecord struct {
	DrawID   uint64
	TicketID uint64
}

// PendingDraw captures the snapshot taken when a VRF-backed draw is issued.
// The draw kind stays locked until the oracle callback completes it.
type PendingDraw struct {
	DrawID       uint64
	Kind         DrawKind
	RequestedAt  int64
	Prize        *big.Int
	Participants uint64
	TotalWeight  uint64
}

// Clone produces a deep copy to protect internal references.
func (p *PendingDraw) Clone() *PendingDraw {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Prize = copyBigInt(p.Prize)
	return &clone
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
