package lottery

import "fmt"

// SelectWinner maps a random value in [0, totalWeight) to the ticket whose
// weight range contains it. Binary search over the ordered ranges keeps draw
// cost at O(log n) in the participant count; a linear scan becomes infeasible
// past a few thousand tickets under the host's per-operation cost ceiling.
//
// Correctness rests entirely on the ledger invariant: ranges are sorted,
// contiguous and non-overlapping because appends happen at a single ordered
// append point. A miss therefore means the ledger is corrupted and the error
// must be treated as fatal, never mapped to a default winner.
func SelectWinner(view LedgerView, randomValue uint64) (*TicketRecord, error) {
	if view == nil {
		return nil, ErrNilState
	}
	total, err := view.TotalWeight()
	if err != nil {
		return nil, err
	}
	if randomValue >= total {
		return nil, fmt.Errorf("%w: value %d outside [0, %d)", ErrCorruptWeightLedger, randomValue, total)
	}
	count, err := view.TicketCount()
	if err != nil {
		return nil, err
	}
	low, high := int64(0), int64(count)-1
	for low <= high {
		mid := low + (high-low)/2
		record, err := view.TicketByIndex(uint64(mid))
		if err != nil {
			return nil, err
		}
		switch {
		case randomValue < record.WeightStart:
			high = mid - 1
		case randomValue >= record.WeightEnd:
			low = mid + 1
		default:
			return record, nil
		}
	}
	return nil, fmt.Errorf("%w: no range contains %d", ErrCorruptWeightLedger, randomValue)
}
