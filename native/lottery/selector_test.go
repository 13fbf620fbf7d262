package lottery

import (
	"errors"
	"testing"
)

func buildLedger(t *testing.T, weights []uint64) *memLedger {
	t.Helper()
	ledger := &memLedger{}
	for i, weight := range weights {
		if _, err := AppendTicket(ledger, ownerAddr(byte(i+1)), uint64(i), 0, weight); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	return ledger
}

func TestSelectWinnerBoundaries(t *testing.T) {
	ledger := buildLedger(t, []uint64{1, 512, 8})
	cases := []struct {
		value  uint64
		ticket uint64
	}{
		{0, 0},
		{1, 1},
		{512, 1},
		{513, 2},
		{520, 2},
	}
	for _, tc := range cases {
		record, err := SelectWinner(ledger, tc.value)
		if err != nil {
			t.Fatalf("select %d: %v", tc.value, err)
		}
		if record.TicketID != tc.ticket {
			t.Fatalf("select %d: ticket %d, want %d", tc.value, record.TicketID, tc.ticket)
		}
	}
}

func TestSelectWinnerExhaustiveSweep(t *testing.T) {
	ledger := buildLedger(t, []uint64{3, 1, 7, 2, 64, 1, 5})
	for index, record := range ledger.records {
		for _, value := range []uint64{record.WeightStart, record.WeightEnd - 1} {
			got, err := SelectWinner(ledger, value)
			if err != nil {
				t.Fatalf("select %d: %v", value, err)
			}
			if got.TicketID != record.TicketID {
				t.Fatalf("value %d resolved to ticket %d, want %d (record %d)", value, got.TicketID, record.TicketID, index)
			}
		}
	}
	// Every value in range resolves to the unique covering record.
	for value := uint64(0); value < ledger.total; value++ {
		got, err := SelectWinner(ledger, value)
		if err != nil {
			t.Fatalf("select %d: %v", value, err)
		}
		if !got.Contains(value) {
			t.Fatalf("record %d does not contain %d", got.TicketID, value)
		}
	}
}

func TestSelectWinnerOutOfRangeIsFatal(t *testing.T) {
	ledger := buildLedger(t, []uint64{4})
	if _, err := SelectWinner(ledger, 4); !errors.Is(err, ErrCorruptWeightLedger) {
		t.Fatalf("expected ErrCorruptWeightLedger, got %v", err)
	}
}

func TestSelectWinnerDetectsCorruption(t *testing.T) {
	ledger := buildLedger(t, []uint64{4, 4})
	// Break contiguity: open a hole between the two records.
	ledger.records[1].WeightStart = 6
	if _, err := SelectWinner(ledger, 5); !errors.Is(err, ErrCorruptWeightLedger) {
		t.Fatalf("expected ErrCorruptWeightLedger, got %v", err)
	}
}
