package lottery

import (
	"fmt"
	"math/big"
	"time"

	"lottochain/core/events"
	"lottochain/core/types"
	nativecommon "lottochain/native/common"
)

// State is the persistence surface the engine mutates. Callers are expected
// to apply engine operations against a transactional working copy of the
// host state: any error returned mid-operation must discard the copy, which
// is what makes draw payouts all-or-nothing.
type State interface {
	LedgerState

	TicketByID(id uint64) (*TicketRecord, error)
	TicketsOf(owner [20]byte) ([]uint64, error)
	AppendOwnedTicket(owner [20]byte, id uint64) error
	TicketBurned(id uint64) (bool, error)
	SetTicketBurned(id uint64, burned bool) error

	Tier(index uint8) (*Tier, error)
	SetTier(index uint8, tier *Tier) error

	DrawConfig(kind DrawKind) (*DrawConfig, bool, error)
	SetDrawConfig(kind DrawKind, cfg *DrawConfig) error
	PrizeBucket(kind DrawKind) (*PrizeBucket, error)
	SetPrizeBucket(kind DrawKind, bucket *PrizeBucket) error
	PendingDraw(kind DrawKind) (*PendingDraw, bool, error)
	SetPendingDraw(kind DrawKind, pending *PendingDraw) error
	ClearPendingDraw(kind DrawKind) error
	NextDrawID() (uint64, error)
	PutDraw(draw *Draw) error
	DrawByID(id uint64) (*Draw, bool, error)
	AppendWin(owner [20]byte, record WinRecord) error
	WinsOf(owner [20]byte) ([]WinRecord, error)

	Transfer(from, to [20]byte, token string, amount *big.Int) error
	TokenBalance(addr [20]byte, token string) (*big.Int, error)
}

// Engine orchestrates ticket sales, bucket funding and draw execution for
// all four draw kinds.
type Engine struct {
	state   State
	emitter events.Emitter
	pauses  nativecommon.PauseView
	entropy EntropySource
	mode    EntropyMode
	admin   [20]byte
	oracle  [20]byte
	vault   [20]byte
	nowFn   func() int64
}

// NewEngine creates a lottery engine with a no-op emitter and pseudo entropy
// seeded from zero. Callers wire state, addresses and overrides afterwards.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		entropy: NewPseudoEntropy([32]byte{}),
		mode:    EntropyModePseudo,
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state State) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses configures the pause view consulted before state mutations.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEntropy overrides the synchronous entropy source.
func (e *Engine) SetEntropy(src EntropySource) {
	if src == nil {
		e.entropy = NewPseudoEntropy([32]byte{})
		return
	}
	e.entropy = src
}

// SetAdmin configures the single admin allowed to mutate configuration.
func (e *Engine) SetAdmin(addr [20]byte) { e.admin = addr }

// SetOracle configures the only address allowed to call CompleteDraw.
func (e *Engine) SetOracle(addr [20]byte) { e.oracle = addr }

// SetVault configures the pool address holding ticket proceeds and prizes.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// EntropyModeOf reports the active entropy mode.
func (e *Engine) EntropyModeOf() EntropyMode { return e.mode }

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(lotteryEvent{evt: evt})
}

func (e *Engine) requireState() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	return nil
}

func (e *Engine) requireAdmin(caller [20]byte) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	return nil
}

// --- Administration ---

// Bootstrap seeds the ten default tiers. Existing tiers are overwritten, so
// this is meant for genesis wiring only.
func (e *Engine) Bootstrap(caller [20]byte) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	tiers := DefaultTiers()
	for i, tier := range tiers {
		if err := e.state.SetTier(uint8(i), tier); err != nil {
			return err
		}
	}
	return nil
}

// SetTier replaces one tier's prices and weight. The weight must stay
// positive: a zero weight would make the ticket's range empty and the
// selector invariant meaningless.
func (e *Engine) SetTier(caller [20]byte, index uint8, tier *Tier) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if index >= TierCount || tier == nil {
		return ErrInvalidTier
	}
	if tier.Weight == 0 {
		return ErrZeroWeight
	}
	return e.state.SetTier(index, tier.Clone())
}

// SetEntropyMode switches between synchronous pseudo entropy and the
// two-phase VRF path.
func (e *Engine) SetEntropyMode(caller [20]byte, mode EntropyMode) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if !mode.Valid() {
		return fmt.Errorf("lottery: invalid entropy mode %d", mode)
	}
	e.mode = mode
	return nil
}

// ConfigureDraw activates a draw kind with a fresh schedule. Reconfiguring
// resets the halving progression but leaves the prize bucket untouched.
func (e *Engine) ConfigureDraw(caller [20]byte, kind DrawKind, initialPrize *big.Int, halvingInterval uint64) (*DrawConfig, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	cfg, err := NewDrawConfig(kind, initialPrize, halvingInterval, e.now())
	if err != nil {
		return nil, err
	}
	if err := e.state.SetDrawConfig(kind, cfg); err != nil {
		return nil, err
	}
	e.emit(newDrawConfiguredEvent(cfg))
	return cfg.Clone(), nil
}

// SetDrawActive toggles a configured draw kind.
func (e *Engine) SetDrawActive(caller [20]byte, kind DrawKind, active bool) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	cfg, ok, err := e.state.DrawConfig(kind)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDrawNotConfigured
	}
	cfg.Active = active
	return e.state.SetDrawConfig(kind, cfg)
}

// --- Ticket sales ---

func tierPrice(tier *Tier, token string) *big.Int {
	if tier == nil {
		return nil
	}
	switch token {
	case TokenLTO:
		return tier.PriceLTO
	case TokenZLT:
		return tier.PriceZLT
	case TokenPTS:
		return tier.PricePTS
	default:
		return nil
	}
}

// BuyTicket charges the tier price in the chosen asset and appends the
// ticket's weight range. Ticket ids are the ledger append sequence, so id
// and record index always coincide.
func (e *Engine) BuyTicket(buyer [20]byte, tierIndex uint8, payToken string) (*TicketRecord, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	if tierIndex >= TierCount {
		return nil, ErrInvalidTier
	}
	tier, err := e.state.Tier(tierIndex)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, ErrInvalidTier
	}
	price := tierPrice(tier, payToken)
	if price == nil {
		return nil, ErrUnknownToken
	}
	if price.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := e.state.Transfer(buyer, e.vault, payToken, price); err != nil {
		return nil, fmt.Errorf("lottery: ticket payment: %w", err)
	}
	ticketID, err := e.state.TicketCount()
	if err != nil {
		return nil, err
	}
	record, err := AppendTicket(e.state, buyer, ticketID, tierIndex, tier.Weight)
	if err != nil {
		return nil, err
	}
	if err := e.state.AppendOwnedTicket(buyer, ticketID); err != nil {
		return nil, err
	}
	e.emit(newTicketSoldEvent(record, payToken))
	return record, nil
}

// BurnTicket marks a ticket as burned. The weight range stays in the ledger
// and remains eligible to win; removing it would force an O(n) reindex of
// every later range. TicketLive exposes the resulting dead weight to
// auditors.
func (e *Engine) BurnTicket(caller [20]byte, ticketID uint64) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return err
	}
	record, err := e.state.TicketByID(ticketID)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrTicketNotFound
	}
	if record.Owner != caller && caller != e.admin {
		return ErrUnauthorized
	}
	if err := e.state.SetTicketBurned(ticketID, true); err != nil {
		return err
	}
	e.emit(newTicketBurnedEvent(record.Owner, ticketID))
	return nil
}

// --- Bucket funding ---

// FundBucket pulls the base amount plus each (asset, amount) pair from the
// funder into the vault and credits the kind's bucket. Pair validation and a
// full balance preflight run before the first transfer: a bad pair or a
// short balance anywhere in the batch mutates nothing.
func (e *Engine) FundBucket(funder [20]byte, kind DrawKind, baseAmount *big.Int, auxTokens []string, auxAmounts []*big.Int) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return err
	}
	if !kind.Valid() {
		return ErrDrawNotConfigured
	}
	if len(auxTokens) != len(auxAmounts) {
		return ErrLengthMismatch
	}
	for i, token := range auxTokens {
		if token == "" {
			return ErrUnknownToken
		}
		if auxAmounts[i] == nil || auxAmounts[i].Sign() <= 0 {
			return ErrInvalidAmount
		}
	}
	required := make(map[string]*big.Int, len(auxTokens)+1)
	if baseAmount != nil && baseAmount.Sign() > 0 {
		required[TokenLTO] = new(big.Int).Set(baseAmount)
	}
	for i, token := range auxTokens {
		total, ok := required[token]
		if !ok {
			total = big.NewInt(0)
		}
		required[token] = new(big.Int).Add(total, auxAmounts[i])
	}
	for token, total := range required {
		balance, err := e.state.TokenBalance(funder, token)
		if err != nil {
			return err
		}
		if balance == nil || balance.Cmp(total) < 0 {
			return fmt.Errorf("%w: bucket funding needs %s %s", ErrInsufficientFunds, total, token)
		}
	}
	bucket, err := e.state.PrizeBucket(kind)
	if err != nil {
		return err
	}
	funded := make([]AuxPayout, 0, len(auxTokens))
	if baseAmount != nil && baseAmount.Sign() > 0 {
		if err := e.state.Transfer(funder, e.vault, TokenLTO, baseAmount); err != nil {
			return fmt.Errorf("lottery: bucket funding: %w", err)
		}
		bucket.CreditBase(baseAmount)
	}
	for i, token := range auxTokens {
		if err := e.state.Transfer(funder, e.vault, token, auxAmounts[i]); err != nil {
			return fmt.Errorf("lottery: bucket funding %s: %w", token, err)
		}
		bucket.CreditAux(token, auxAmounts[i])
		funded = append(funded, AuxPayout{Token: token, Amount: new(big.Int).Set(auxAmounts[i])})
	}
	if err := e.state.SetPrizeBucket(kind, bucket); err != nil {
		return err
	}
	e.emit(newBucketFundedEvent(kind, funder, baseAmount, funded))
	return nil
}

// --- Draw execution ---

// ExecuteDraw runs one draw for the kind. In pseudo mode the draw completes
// synchronously and the returned Draw is final. In VRF mode the snapshot is
// persisted as a PendingDraw, an entropy request event is emitted and the
// kind stays locked until CompleteDraw.
func (e *Engine) ExecuteDraw(caller [20]byte, kind DrawKind) (*Draw, *PendingDraw, error) {
	if err := e.requireState(); err != nil {
		return nil, nil, err
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, nil, err
	}
	cfg, ok, err := e.state.DrawConfig(kind)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrDrawNotConfigured
	}
	if _, pending, err := e.state.PendingDraw(kind); err != nil {
		return nil, nil, err
	} else if pending {
		return nil, nil, ErrDrawPending
	}
	participants, err := e.state.TicketCount()
	if err != nil {
		return nil, nil, err
	}
	totalWeight, err := e.state.TotalWeight()
	if err != nil {
		return nil, nil, err
	}
	if participants == 0 || totalWeight == 0 {
		return nil, nil, ErrNoParticipants
	}
	now := e.now()
	prize, err := cfg.CheckAndAdvance(now)
	if err != nil {
		return nil, nil, err
	}
	if err := e.state.SetDrawConfig(kind, cfg); err != nil {
		return nil, nil, err
	}
	drawID, err := e.state.NextDrawID()
	if err != nil {
		return nil, nil, err
	}

	if e.mode == EntropyModeVRF {
		pending := &PendingDraw{
			DrawID:       drawID,
			Kind:         kind,
			RequestedAt:  now,
			Prize:        prize,
			Participants: participants,
			TotalWeight:  totalWeight,
		}
		if err := e.state.SetPendingDraw(kind, pending); err != nil {
			return nil, nil, err
		}
		e.emit(newDrawRequestedEvent(pending))
		return nil, pending.Clone(), nil
	}

	randomValue, err := e.entropy.Draw(totalWeight, drawID, caller, now)
	if err != nil {
		return nil, nil, err
	}
	draw, err := e.finalizeDraw(kind, drawID, prize, participants, totalWeight, randomValue, now)
	if err != nil {
		return nil, nil, err
	}
	return draw, nil, nil
}

// CompleteDraw resolves a pending VRF draw. Only the registered oracle may
// call it; the random word is reduced modulo the total weight snapshot taken
// when the request was issued, so later ticket sales cannot shift the odds
// of an in-flight draw.
func (e *Engine) CompleteDraw(caller [20]byte, drawID uint64, randomWord uint64) (*Draw, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	if caller != e.oracle {
		return nil, ErrUnauthorized
	}
	var pending *PendingDraw
	for kind := DrawKind(0); kind.Valid(); kind++ {
		candidate, ok, err := e.state.PendingDraw(kind)
		if err != nil {
			return nil, err
		}
		if ok && candidate.DrawID == drawID {
			pending = candidate
			break
		}
	}
	if pending == nil {
		return nil, ErrNoPendingDraw
	}
	if pending.TotalWeight == 0 {
		return nil, ErrCorruptWeightLedger
	}
	randomValue := randomWord % pending.TotalWeight
	draw, err := e.finalizeDraw(pending.Kind, pending.DrawID, pending.Prize, pending.Participants, pending.TotalWeight, randomValue, e.now())
	if err != nil {
		return nil, err
	}
	if err := e.state.ClearPendingDraw(pending.Kind); err != nil {
		return nil, err
	}
	return draw, nil
}

// finalizeDraw performs selection, bucket drain, payouts and record keeping.
// Bucket state is mutated before any transfer runs; a failed transfer
// returns an error and relies on the host transaction boundary to discard
// the working state, so a drained bucket can never double-pay.
func (e *Engine) finalizeDraw(kind DrawKind, drawID uint64, prize *big.Int, participants, totalWeight, randomValue uint64, now int64) (*Draw, error) {
	record, err := SelectWinner(e.state, randomValue)
	if err != nil {
		return nil, err
	}
	bucket, err := e.state.PrizeBucket(kind)
	if err != nil {
		return nil, err
	}
	paidBase, auxPaid := bucket.Drain(prize)
	if err := e.state.SetPrizeBucket(kind, bucket); err != nil {
		return nil, err
	}
	if paidBase.Sign() > 0 {
		if err := e.state.Transfer(e.vault, record.Owner, TokenLTO, paidBase); err != nil {
			return nil, fmt.Errorf("lottery: prize payout: %w", err)
		}
	}
	for _, payout := range auxPaid {
		if err := e.state.Transfer(e.vault, record.Owner, payout.Token, payout.Amount); err != nil {
			return nil, fmt.Errorf("lottery: prize payout %s: %w", payout.Token, err)
		}
	}
	draw := &Draw{
		ID:           drawID,
		Kind:         kind,
		Timestamp:    now,
		Winner:       record.Owner,
		TicketID:     record.TicketID,
		RandomValue:  randomValue,
		PrizePaid:    paidBase,
		Participants: participants,
		TotalWeight:  totalWeight,
		AuxPaid:      auxPaid,
	}
	if err := e.state.PutDraw(draw); err != nil {
		return nil, err
	}
	if err := e.state.AppendWin(record.Owner, WinRecord{DrawID: drawID, TicketID: record.TicketID}); err != nil {
		return nil, err
	}
	e.emit(newDrawCompletedEvent(draw))
	return draw, nil
}

// --- Queries ---

// TierOf returns a copy of the tier configuration.
func (e *Engine) TierOf(index uint8) (*Tier, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	if index >= TierCount {
		return nil, ErrInvalidTier
	}
	tier, err := e.state.Tier(index)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, ErrInvalidTier
	}
	return tier.Clone(), nil
}

// ConfigOf returns a copy of the kind's schedule state.
func (e *Engine) ConfigOf(kind DrawKind) (*DrawConfig, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	cfg, ok, err := e.state.DrawConfig(kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDrawNotConfigured
	}
	return cfg.Clone(), nil
}

// BucketOf returns a copy of the kind's prize bucket.
func (e *Engine) BucketOf(kind DrawKind) (*PrizeBucket, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, ErrDrawNotConfigured
	}
	bucket, err := e.state.PrizeBucket(kind)
	if err != nil {
		return nil, err
	}
	return bucket.Clone(), nil
}

// PendingOf returns the in-flight VRF draw for the kind, if any.
func (e *Engine) PendingOf(kind DrawKind) (*PendingDraw, bool, error) {
	if err := e.requireState(); err != nil {
		return nil, false, err
	}
	pending, ok, err := e.state.PendingDraw(kind)
	if err != nil || !ok {
		return nil, false, err
	}
	return pending.Clone(), true, nil
}

// DrawOf returns a completed draw by id.
func (e *Engine) DrawOf(id uint64) (*Draw, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	draw, ok, err := e.state.DrawByID(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDrawNotFound
	}
	return draw, nil
}

// TicketsOf returns the ticket ids owned by the address.
func (e *Engine) TicketsOf(owner [20]byte) ([]uint64, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	return e.state.TicketsOf(owner)
}

// WinsOf returns the address's win history.
func (e *Engine) WinsOf(owner [20]byte) ([]WinRecord, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	return e.state.WinsOf(owner)
}

// TicketOf returns a copy of the ticket record.
func (e *Engine) TicketOf(ticketID uint64) (*TicketRecord, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	record, err := e.state.TicketByID(ticketID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTicketNotFound
	}
	clone := *record
	return &clone, nil
}

// TicketLive reports whether the ticket's owner-of-record still holds a live
// ticket. A false result flags dead weight: a burned ticket whose range
// remains eligible to win.
func (e *Engine) TicketLive(ticketID uint64) (bool, error) {
	if err := e.requireState(); err != nil {
		return false, err
	}
	record, err := e.state.TicketByID(ticketID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, ErrTicketNotFound
	}
	burned, err := e.state.TicketBurned(ticketID)
	if err != nil {
		return false, err
	}
	return !burned, nil
}

// Stats returns the participant count and total weight.
func (e *Engine) Stats() (uint64, uint64, error) {
	if err := e.requireState(); err != nil {
		return 0, 0, err
	}
	count, err := e.state.TicketCount()
	if err != nil {
		return 0, 0, err
	}
	total, err := e.state.TotalWeight()
	if err != nil {
		return 0, 0, err
	}
	return count, total, nil
}
