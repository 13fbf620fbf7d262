package lottery

import "math"

// LedgerView is the read side of the weight ledger. Records are indexed in
// append order, which by construction is also weight order.
type LedgerView interface {
	TicketCount() (uint64, error)
	TicketByIndex(index uint64) (*TicketRecord, error)
	TotalWeight() (uint64, error)
}

// LedgerState adds the append path. There is deliberately no update or
// delete: removing a range would force an O(n) reindex of every subsequent
// record, which the range-based design exists to avoid.
type LedgerState interface {
	LedgerView
	AppendTicket(record *TicketRecord) error
	SetTotalWeight(total uint64) error
}

// AppendTicket assigns the next weight range to the ticket and grows the
// total weight. The append is O(1); the only failure modes are a zero weight
// (rejected at tier configuration, checked again here) and overflow of the
// cumulative weight space.
func AppendTicket(st LedgerState, owner [20]byte, ticketID uint64, tier uint8, weight uint64) (*TicketRecord, error) {
	if st == nil {
		return nil, ErrNilState
	}
	if weight == 0 {
		return nil, ErrZeroWeight
	}
	total, err := st.TotalWeight()
	if err != nil {
		return nil, err
	}
	if weight > math.MaxUint64-total {
		return nil, ErrWeightOverflow
	}
	record := &TicketRecord{
		Owner:       owner,
		TicketID:    ticketID,
		Tier:        tier,
		WeightStart: total,
		WeightEnd:   total + weight,
	}
	if err := st.AppendTicket(record); err != nil {
		return nil, err
	}
	if err := st.SetTotalWeight(record.WeightEnd); err != nil {
		return nil, err
	}
	return record, nil
}
