package lottery

import (
	"errors"
	"math/big"
	"testing"
)

func TestNewDrawConfigValidation(t *testing.T) {
	if _, err := NewDrawConfig(DrawKindWeekly, big.NewInt(0), 2, 0); !errors.Is(err, ErrInvalidPrize) {
		t.Fatalf("zero prize: %v", err)
	}
	if _, err := NewDrawConfig(DrawKindWeekly, big.NewInt(1000), 0, 0); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("zero halving interval: %v", err)
	}
	cfg, err := NewDrawConfig(DrawKindMonthly, big.NewInt(1000), 2, 100)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if cfg.DrawInterval != 30*secondsPerDay {
		t.Fatalf("monthly interval %d", cfg.DrawInterval)
	}
	if !cfg.Active || cfg.DrawCount != 0 || cfg.LastDrawTime != 100 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestCheckAndAdvanceHalvingSequence(t *testing.T) {
	cfg, err := NewDrawConfig(DrawKindWeekly, big.NewInt(1000), 2, 0)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	want := []int64{1000, 1000, 500, 500, 250, 250}
	now := int64(0)
	for i, expect := range want {
		now += cfg.DrawInterval
		prize, err := cfg.CheckAndAdvance(now)
		if err != nil {
			t.Fatalf("draw %d: %v", i+1, err)
		}
		if prize.Cmp(big.NewInt(expect)) != 0 {
			t.Fatalf("draw %d: prize %s, want %d", i+1, prize, expect)
		}
	}
}

func TestCheckAndAdvancePrizeReachesZero(t *testing.T) {
	cfg, err := NewDrawConfig(DrawKindWeekly, big.NewInt(1), 1, 0)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	now := int64(0)
	now += cfg.DrawInterval
	prize, err := cfg.CheckAndAdvance(now)
	if err != nil {
		t.Fatalf("draw 1: %v", err)
	}
	if prize.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("draw 1 prize %s, want 1", prize)
	}
	// 1/2 truncates to 0: the schedule's intended terminal state.
	now += cfg.DrawInterval
	prize, err = cfg.CheckAndAdvance(now)
	if err != nil {
		t.Fatalf("draw 2: %v", err)
	}
	if prize.Sign() != 0 {
		t.Fatalf("draw 2 prize %s, want 0", prize)
	}
	now += cfg.DrawInterval
	prize, err = cfg.CheckAndAdvance(now)
	if err != nil {
		t.Fatalf("draw 3: %v", err)
	}
	if prize.Sign() != 0 {
		t.Fatalf("draw 3 prize %s, want 0", prize)
	}
}

func TestCheckAndAdvanceGates(t *testing.T) {
	cfg, err := NewDrawConfig(DrawKindWeekly, big.NewInt(1000), 2, 0)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if _, err := cfg.CheckAndAdvance(cfg.DrawInterval - 1); !errors.Is(err, ErrDrawTooEarly) {
		t.Fatalf("early draw: %v", err)
	}
	cfg.Active = false
	if _, err := cfg.CheckAndAdvance(cfg.DrawInterval); !errors.Is(err, ErrDrawInactive) {
		t.Fatalf("inactive draw: %v", err)
	}
	cfg.Active = true
	if _, err := cfg.CheckAndAdvance(cfg.DrawInterval); err != nil {
		t.Fatalf("on-time draw: %v", err)
	}
	if cfg.DrawCount != 1 {
		t.Fatalf("draw count %d, want 1", cfg.DrawCount)
	}
}
