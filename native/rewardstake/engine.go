package rewardstake

import (
	"math/big"
	"time"

	"lottochain/core/events"
	"lottochain/core/types"
	nativecommon "lottochain/native/common"
)

// State is the persistence surface the accrual engine needs. HeldBalance is
// the external balance oracle for the staked asset; MintReward credits the
// non-transferable reward asset.
type State interface {
	Position(addr [20]byte) (*Position, bool, error)
	SetPosition(addr [20]byte, position *Position) error
	HeldBalance(addr [20]byte) (*big.Int, error)
	MintReward(addr [20]byte, amount *big.Int) error
}

// Engine drives stake, restake and claim flows against the accrual ledger.
type Engine struct {
	state   State
	emitter events.Emitter
	pauses  nativecommon.PauseView
	params  Params
	tiers   *TierTable
	admin   [20]byte
	nowFn   func() int64
}

// NewEngine creates an accrual engine with default params and tiers and a
// no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  DefaultParams(),
		tiers:   DefaultTierTable(),
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

// SetAdmin configures the single admin allowed to mutate configuration.
func (e *Engine) SetAdmin(addr [20]byte) { e.admin = addr }

// SetParams replaces the accrual constants.
func (e *Engine) SetParams(caller [20]byte, params Params) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params.Clone()
	return nil
}

// SetTiers replaces the multiplier table.
func (e *Engine) SetTiers(caller [20]byte, tiers []MultiplierTier) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	table, err := NewTierTable(tiers)
	if err != nil {
		return err
	}
	e.tiers = table
	return nil
}

// ParamsOf returns the active accrual constants.
func (e *Engine) ParamsOf() Params { return e.params.Clone() }

// TiersOf returns the active multiplier table.
func (e *Engine) TiersOf() []MultiplierTier { return e.tiers.Tiers() }

// MultiplierFor returns the multiplier applied to the balance.
func (e *Engine) MultiplierFor(balance *big.Int) uint32 { return e.tiers.MultiplierFor(balance) }

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
	e.emitter.Emit(stakeEvent{evt: evt})
}

// Stake records or re-bases the caller's accrual position. The thin dispatch
// keeps the two flows and their reward formulas testable in isolation.
func (e *Engine) Stake(addr [20]byte) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	balance, err := e.state.HeldBalance(addr)
	if err != nil {
		return nil, err
	}
	if balance == nil || balance.Sign() <= 0 {
		return nil, ErrNothingToStake
	}
	position, staked, err := e.state.Position(addr)
	if err != nil {
		return nil, err
	}
	if !staked {
		return e.initialStake(addr, balance)
	}
	return e.restake(addr, position, balance)
}

func (e *Engine) initialStake(addr [20]byte, balance *big.Int) (*Position, error) {
	now := e.now()
	position := &Position{
		StakedBalance: new(big.Int).Set(balance),
		StakeTime:     now,
		LastClaimTime: now,
		TotalClaimed:  big.NewInt(0),
	}
	if err := e.state.SetPosition(addr, position); err != nil {
		return nil, err
	}
	e.emit(newStakedEvent(addr, balance, now))
	return position.Clone(), nil
}

func (e *Engine) restake(addr [20]byte, position *Position, balance *big.Int) (*Position, error) {
	now := e.now()
	elapsed := now - position.LastClaimTime
	reward := restakeReward(position.StakedBalance, balance, elapsed, e.params, e.tiers)
	if reward.Sign() > 0 {
		if err := e.state.MintReward(addr, reward); err != nil {
			return nil, err
		}
	}
	old := copyBigInt(position.StakedBalance)
	position.StakedBalance = new(big.Int).Set(balance)
	position.StakeTime = now
	position.LastClaimTime = now
	position.TotalClaimed = new(big.Int).Add(copyBigInt(position.TotalClaimed), reward)
	if err := e.state.SetPosition(addr, position); err != nil {
		return nil, err
	}
	e.emit(newRestakedEvent(addr, old, balance, reward))
	return position.Clone(), nil
}

// ClaimRewards settles the accrued reward since the last claim. The claim
// throttle is an anti-spam gate, not an accrual boundary: once it passes,
// the full fractional elapsed period pays out.
func (e *Engine) ClaimRewards(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	position, staked, err := e.state.Position(addr)
	if err != nil {
		return nil, err
	}
	if !staked {
		return nil, ErrNoActiveStake
	}
	now := e.now()
	if now < position.LastClaimTime+e.params.MinClaimSeconds {
		return nil, ErrClaimTooSoon
	}
	external, err := e.state.HeldBalance(addr)
	if err != nil {
		return nil, err
	}
	elapsed := now - position.LastClaimTime
	reward := claimReward(position.StakedBalance, external, elapsed, e.params, e.tiers)
	if reward.Sign() > 0 {
		if err := e.state.MintReward(addr, reward); err != nil {
			return nil, err
		}
	}
	position.LastClaimTime = now
	position.TotalClaimed = new(big.Int).Add(copyBigInt(position.TotalClaimed), reward)
	if err := e.state.SetPosition(addr, position); err != nil {
		return nil, err
	}
	effective := copyBigInt(position.StakedBalance)
	if external != nil && external.Cmp(effective) < 0 {
		effective = copyBigInt(external)
	}
	e.emit(newClaimedEvent(addr, effective, reward, position.TotalClaimed))
	return reward, nil
}

// PendingRewards reports the reward a claim would mint right now. It is pure
// and monotonically non-decreasing in elapsed time for a fixed balance. An
// unstaked address has nothing pending.
func (e *Engine) PendingRewards(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	position, staked, err := e.state.Position(addr)
	if err != nil {
		return nil, err
	}
	if !staked {
		return big.NewInt(0), nil
	}
	external, err := e.state.HeldBalance(addr)
	if err != nil {
		return nil, err
	}
	elapsed := e.now() - position.LastClaimTime
	return claimReward(position.StakedBalance, external, elapsed, e.params, e.tiers), nil
}

// EffectiveMultiplierOf returns the multiplier a claim would accrue at right
// now: the tier of min(external, staked), not of the stake snapshot alone.
func (e *Engine) EffectiveMultiplierOf(addr [20]byte) (uint32, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	position, staked, err := e.state.Position(addr)
	if err != nil {
		return 0, err
	}
	external, err := e.state.HeldBalance(addr)
	if err != nil {
		return 0, err
	}
	if !staked {
		return e.tiers.MultiplierFor(external), nil
	}
	effective := position.StakedBalance
	if external != nil && (effective == nil || external.Cmp(effective) < 0) {
		effective = external
	}
	return e.tiers.MultiplierFor(effective), nil
}

// PositionOf returns a copy of the address's accrual record.
func (e *Engine) PositionOf(addr [20]byte) (*Position, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	position, staked, err := e.state.Position(addr)
	if err != nil || !staked {
		return nil, false, err
	}
	return position.Clone(), true, nil
}
