package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"lottochain/core/types"
	"lottochain/native/lottery"
	"lottochain/native/rewardstake"
	"lottochain/storage"
)

var (
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	ErrInvalidAmount       = errors.New("state: amount must be positive")
	ErrSoulboundTransfer   = errors.New("state: PTS transfers restricted to authorized destinations")
)

// zeroAddress is the mint/burn sentinel: PTS may always move to or from it.
var zeroAddress [20]byte

// Manager persists every durable entity behind the engines' state
// interfaces. All mutations funnel through one mutex, which keeps the weight
// ledger a single serialized append point; the sorted-contiguous-ranges
// invariant does not survive concurrent unordered appends.
type Manager struct {
	mu sync.RWMutex
	db storage.Database

	paused    map[string]bool
	soulbound map[[20]byte]bool
}

// NewManager wraps a key-value store.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:        db,
		paused:    make(map[string]bool),
		soulbound: make(map[[20]byte]bool),
	}
}

// --- keys ---

func be64(v uint64) []byte {
	return []byte{
		byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}
}

func accountKey(addr []byte) []byte    { return append([]byte("acct/"), addr...) }
func ticketKey(index uint64) []byte    { return append([]byte("ticket/"), be64(index)...) }
func ticketOwnerKey(a [20]byte) []byte { return append([]byte("ticketowner/"), a[:]...) }
func ticketBurnKey(id uint64) []byte   { return append([]byte("ticketburn/"), be64(id)...) }
func tierKey(index uint8) []byte       { return append([]byte("tier/"), index) }

func drawConfigKey(k lottery.DrawKind) []byte { return append([]byte("drawcfg/"), byte(k)) }
func bucketKey(k lottery.DrawKind) []byte     { return append([]byte("bucket/"), byte(k)) }
func pendingKey(k lottery.DrawKind) []byte    { return append([]byte("pending/"), byte(k)) }

func drawKey(id uint64) []byte      { return append([]byte("draw/"), be64(id)...) }
func winsKey(a [20]byte) []byte     { return append([]byte("wins/"), a[:]...) }
func positionKey(a [20]byte) []byte { return append([]byte("stake/"), a[:]...) }

var (
	totalWeightKey = []byte("meta/totalweight")
	ticketSeqKey   = []byte("meta/ticketcount")
	drawSeqKey     = []byte("meta/drawseq")
)

func (m *Manager) getUint64(key []byte) (uint64, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("state: malformed counter at %q", key)
	}
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func (m *Manager) putUint64(key []byte, v uint64) error {
	return m.db.Put(key, be64(v))
}

// --- pause switch ---

// IsPaused implements native/common.PauseView.
func (m *Manager) IsPaused(module string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused[module]
}

// SetPaused toggles a module's pause switch.
func (m *Manager) SetPaused(module string, paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused[module] = paused
}

// AuthorizeSoulboundDest registers a destination allowed to receive PTS.
// The reward credit is otherwise non-transferable.
func (m *Manager) AuthorizeSoulboundDest(addr [20]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.soulbound[addr] = true
}

// --- accounts and token ledger ---

// GetAccount loads an account, returning a fresh zero account when absent.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	data, err := m.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return types.NewAccount(), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeAccount(data)
}

// PutAccount persists an account.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	data, err := encodeAccount(account)
	if err != nil {
		return err
	}
	return m.db.Put(accountKey(addr), data)
}

func balanceRef(account *types.Account, token string) *big.Int {
	switch token {
	case lottery.TokenLTO:
		return account.BalanceLTO
	case lottery.TokenZLT:
		return account.BalanceZLT
	case lottery.TokenPTS:
		return account.BalancePTS
	default:
		if account.TokenBalances == nil {
			return big.NewInt(0)
		}
		if amount, ok := account.TokenBalances[token]; ok && amount != nil {
			return amount
		}
		return big.NewInt(0)
	}
}

func setBalance(account *types.Account, token string, amount *big.Int) {
	switch token {
	case lottery.TokenLTO:
		account.BalanceLTO = amount
	case lottery.TokenZLT:
		account.BalanceZLT = amount
	case lottery.TokenPTS:
		account.BalancePTS = amount
	default:
		if account.TokenBalances == nil {
			account.TokenBalances = make(map[string]*big.Int)
		}
		account.TokenBalances[token] = amount
	}
}

// Transfer moves one token between accounts. PTS is soulbound: the
// destination must be pre-authorized or the mint/burn sentinel.
func (m *Manager) Transfer(from, to [20]byte, token string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if token == lottery.TokenPTS && to != zeroAddress && !m.soulbound[to] {
		return ErrSoulboundTransfer
	}
	fromAcc, err := m.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromBalance := balanceRef(fromAcc, token)
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s %s, need %s", ErrInsufficientBalance, addrHex(from), fromBalance, token, amount)
	}
	toAcc, err := m.GetAccount(to[:])
	if err != nil {
		return err
	}
	setBalance(fromAcc, token, new(big.Int).Sub(fromBalance, amount))
	setBalance(toAcc, token, new(big.Int).Add(balanceRef(toAcc, token), amount))
	if err := m.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return m.PutAccount(to[:], toAcc)
}

// TokenBalance reports an account's balance in one token.
func (m *Manager) TokenBalance(addr [20]byte, token string) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, err := m.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(balanceRef(account, token)), nil
}

// Credit mints tokens into an account. Used for genesis allocation and
// bucket seeding in tests and tooling.
func (m *Manager) Credit(addr [20]byte, token string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, err := m.GetAccount(addr[:])
	if err != nil {
		return err
	}
	setBalance(account, token, new(big.Int).Add(balanceRef(account, token), amount))
	return m.PutAccount(addr[:], account)
}

func addrHex(addr [20]byte) string {
	return fmt.Sprintf("%x", addr[:])
}

// --- weight ledger ---

func (m *Manager) TicketCount() (uint64, error) {
	return m.getUint64(ticketSeqKey)
}

func (m *Manager) TicketByIndex(index uint64) (*lottery.TicketRecord, error) {
	data, err := m.db.Get(ticketKey(index))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, lottery.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeTicket(data)
}

// TicketByID resolves a ticket by id. Ids are the append sequence, so id and
// index coincide.
func (m *Manager) TicketByID(id uint64) (*lottery.TicketRecord, error) {
	return m.TicketByIndex(id)
}

func (m *Manager) TotalWeight() (uint64, error) {
	return m.getUint64(totalWeightKey)
}

func (m *Manager) SetTotalWeight(total uint64) error {
	return m.putUint64(totalWeightKey, total)
}

func (m *Manager) AppendTicket(record *lottery.TicketRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	count, err := m.getUint64(ticketSeqKey)
	if err != nil {
		return err
	}
	data, err := encodeTicket(record)
	if err != nil {
		return err
	}
	if err := m.db.Put(ticketKey(count), data); err != nil {
		return err
	}
	return m.putUint64(ticketSeqKey, count+1)
}

func (m *Manager) AppendOwnedTicket(owner [20]byte, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, err := m.ownedTickets(owner)
	if err != nil {
		return err
	}
	data, err := encodeIDList(append(ids, id))
	if err != nil {
		return err
	}
	return m.db.Put(ticketOwnerKey(owner), data)
}

func (m *Manager) ownedTickets(owner [20]byte) ([]uint64, error) {
	data, err := m.db.Get(ticketOwnerKey(owner))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeIDList(data)
}

func (m *Manager) TicketsOf(owner [20]byte) ([]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ownedTickets(owner)
}

func (m *Manager) TicketBurned(id uint64) (bool, error) {
	ok, err := m.db.Has(ticketBurnKey(id))
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (m *Manager) SetTicketBurned(id uint64, burned bool) error {
	if !burned {
		return nil
	}
	return m.db.Put(ticketBurnKey(id), []byte{1})
}

// --- tiers ---

func (m *Manager) Tier(index uint8) (*lottery.Tier, error) {
	data, err := m.db.Get(tierKey(index))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeTier(data)
}

func (m *Manager) SetTier(index uint8, tier *lottery.Tier) error {
	data, err := encodeTier(tier)
	if err != nil {
		return err
	}
	return m.db.Put(tierKey(index), data)
}

// --- draw schedule, buckets, records ---

func (m *Manager) DrawConfig(kind lottery.DrawKind) (*lottery.DrawConfig, bool, error) {
	data, err := m.db.Get(drawConfigKey(kind))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	cfg, err := decodeDrawConfig(data)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

func (m *Manager) SetDrawConfig(kind lottery.DrawKind, cfg *lottery.DrawConfig) error {
	data, err := encodeDrawConfig(cfg)
	if err != nil {
		return err
	}
	return m.db.Put(drawConfigKey(kind), data)
}

func (m *Manager) PrizeBucket(kind lottery.DrawKind) (*lottery.PrizeBucket, error) {
	data, err := m.db.Get(bucketKey(kind))
	if errors.Is(err, storage.ErrNotFound) {
		return lottery.NewPrizeBucket(), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeBucket(data)
}

func (m *Manager) SetPrizeBucket(kind lottery.DrawKind, bucket *lottery.PrizeBucket) error {
	data, err := encodeBucket(bucket)
	if err != nil {
		return err
	}
	return m.db.Put(bucketKey(kind), data)
}

func (m *Manager) PendingDraw(kind lottery.DrawKind) (*lottery.PendingDraw, bool, error) {
	data, err := m.db.Get(pendingKey(kind))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		// Cleared pending slot; see ClearPendingDraw.
		return nil, false, nil
	}
	pending, err := decodePendingDraw(data)
	if err != nil {
		return nil, false, err
	}
	return pending, true, nil
}

func (m *Manager) SetPendingDraw(kind lottery.DrawKind, pending *lottery.PendingDraw) error {
	data, err := encodePendingDraw(pending)
	if err != nil {
		return err
	}
	return m.db.Put(pendingKey(kind), data)
}

func (m *Manager) ClearPendingDraw(kind lottery.DrawKind) error {
	// Tombstone rather than delete: the Database interface has no delete.
	return m.db.Put(pendingKey(kind), nil)
}

func (m *Manager) NextDrawID() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := m.getUint64(drawSeqKey)
	if err != nil {
		return 0, err
	}
	if err := m.putUint64(drawSeqKey, next+1); err != nil {
		return 0, err
	}
	return next, nil
}

func (m *Manager) PutDraw(draw *lottery.Draw) error {
	data, err := encodeDraw(draw)
	if err != nil {
		return err
	}
	return m.db.Put(drawKey(draw.ID), data)
}

func (m *Manager) DrawByID(id uint64) (*lottery.Draw, bool, error) {
	data, err := m.db.Get(drawKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	draw, err := decodeDraw(data)
	if err != nil {
		return nil, false, err
	}
	return draw, true, nil
}

func (m *Manager) AppendWin(owner [20]byte, record lottery.WinRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	wins, err := m.winsOf(owner)
	if err != nil {
		return err
	}
	data, err := encodeWins(append(wins, record))
	if err != nil {
		return err
	}
	return m.db.Put(winsKey(owner), data)
}

func (m *Manager) winsOf(owner [20]byte) ([]lottery.WinRecord, error) {
	data, err := m.db.Get(winsKey(owner))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeWins(data)
}

func (m *Manager) WinsOf(owner [20]byte) ([]lottery.WinRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.winsOf(owner)
}

// --- reward accrual ---

func (m *Manager) Position(addr [20]byte) (*rewardstake.Position, bool, error) {
	data, err := m.db.Get(positionKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	position, err := decodePosition(data)
	if err != nil {
		return nil, false, err
	}
	return position, true, nil
}

func (m *Manager) SetPosition(addr [20]byte, position *rewardstake.Position) error {
	data, err := encodePosition(position)
	if err != nil {
		return err
	}
	return m.db.Put(positionKey(addr), data)
}

// HeldBalance is the external balance oracle for the staked asset.
func (m *Manager) HeldBalance(addr [20]byte) (*big.Int, error) {
	account, err := m.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(account.BalanceZLT), nil
}

// MintReward credits PTS from the mint sentinel.
func (m *Manager) MintReward(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, err := m.GetAccount(addr[:])
	if err != nil {
		return err
	}
	account.BalancePTS = new(big.Int).Add(account.BalancePTS, amount)
	return m.PutAccount(addr[:], account)
}
