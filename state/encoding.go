package state

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"lottochain/core/types"
	"lottochain/native/lottery"
	"lottochain/native/rewardstake"
)

// RLP needs deterministic, map-free, unsigned shapes, so every persisted
// entity has a stored mirror here. Token maps become symbol-sorted slices
// and unix timestamps widen to uint64.

type storedTokenBalance struct {
	Symbol string
	Amount *big.Int
}

type storedAccount struct {
	Nonce      uint64
	BalanceLTO *big.Int
	BalanceZLT *big.Int
	BalancePTS *big.Int
	Tokens     []storedTokenBalance
}

func encodeAccount(account *types.Account) ([]byte, error) {
	account = account.Normalize()
	stored := storedAccount{
		Nonce:      account.Nonce,
		BalanceLTO: account.BalanceLTO,
		BalanceZLT: account.BalanceZLT,
		BalancePTS: account.BalancePTS,
	}
	symbols := make([]string, 0, len(account.TokenBalances))
	for symbol := range account.TokenBalances {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		amount := account.TokenBalances[symbol]
		if amount == nil || amount.Sign() == 0 {
			continue
		}
		stored.Tokens = append(stored.Tokens, storedTokenBalance{Symbol: symbol, Amount: amount})
	}
	return rlp.EncodeToBytes(&stored)
}

func decodeAccount(data []byte) (*types.Account, error) {
	var stored storedAccount
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	account := &types.Account{
		Nonce:      stored.Nonce,
		BalanceLTO: stored.BalanceLTO,
		BalanceZLT: stored.BalanceZLT,
		BalancePTS: stored.BalancePTS,
	}
	if len(stored.Tokens) > 0 {
		account.TokenBalances = make(map[string]*big.Int, len(stored.Tokens))
		for _, tb := range stored.Tokens {
			account.TokenBalances[tb.Symbol] = tb.Amount
		}
	}
	return account.Normalize(), nil
}

type storedTicket struct {
	Owner       [20]byte
	TicketID    uint64
	Tier        uint8
	WeightStart uint64
	WeightEnd   uint64
}

func encodeTicket(record *lottery.TicketRecord) ([]byte, error) {
	return rlp.EncodeToBytes(&storedTicket{
		Owner:       record.Owner,
		TicketID:    record.TicketID,
		Tier:        record.Tier,
		WeightStart: record.WeightStart,
		WeightEnd:   record.WeightEnd,
	})
}

func decodeTicket(data []byte) (*lottery.TicketRecord, error) {
	var stored storedTicket
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	return &lottery.TicketRecord{
		Owner:       stored.Owner,
		TicketID:    stored.TicketID,
		Tier:        stored.Tier,
		WeightStart: stored.WeightStart,
		WeightEnd:   stored.WeightEnd,
	}, nil
}

type storedTier struct {
	Weight   uint64
	PriceLTO *big.Int
	PriceZLT *big.Int
	PricePTS *big.Int
}

func encodeTier(tier *lottery.Tier) ([]byte, error) {
	tier = tier.Clone()
	return rlp.EncodeToBytes(&storedTier{
		Weight:   tier.Weight,
		PriceLTO: tier.PriceLTO,
		PriceZLT: tier.PriceZLT,
		PricePTS: tier.PricePTS,
	})
}

func decodeTier(data []byte) (*lottery.Tier, error) {
	var stored storedTier
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	return &lottery.Tier{
		Weight:   stored.Weight,
		PriceLTO: stored.PriceLTO,
		PriceZLT: stored.PriceZLT,
		PricePTS: stored.PricePTS,
	}, nil
}

type storedDrawConfig struct {
	Kind            uint8
	InitialPrize    *big.Int
	CurrentPrize    *big.Int
	HalvingInterval uint64
	DrawCount       uint64
	LastDrawTime    uint64
	DrawInterval    uint64
	Active          bool
}

func encodeDrawConfig(cfg *lottery.DrawConfig) ([]byte, error) {
	cfg = cfg.Clone()
	return rlp.EncodeToBytes(&storedDrawConfig{
		Kind:            uint8(cfg.Kind),
		InitialPrize:    cfg.InitialPrize,
		CurrentPrize:    cfg.CurrentPrize,
		HalvingInterval: cfg.HalvingInterval,
		DrawCount:       cfg.DrawCount,
		LastDrawTime:    uint64(cfg.LastDrawTime),
		DrawInterval:    uint64(cfg.DrawInterval),
		Active:          cfg.Active,
	})
}

func decodeDrawConfig(data []byte) (*lottery.DrawConfig, error) {
	var stored storedDrawConfig
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	return &lottery.DrawConfig{
		Kind:            lottery.DrawKind(stored.Kind),
		InitialPrize:    stored.InitialPrize,
		CurrentPrize:    stored.CurrentPrize,
		HalvingInterval: stored.HalvingInterval,
		DrawCount:       stored.DrawCount,
		LastDrawTime:    int64(stored.LastDrawTime),
		DrawInterval:    int64(stored.DrawInterval),
		Active:          stored.Active,
	}, nil
}

type storedBucket struct {
	Base   *big.Int
	Tokens []storedTokenBalance
}

func encodeBucket(bucket *lottery.PrizeBucket) ([]byte, error) {
	bucket = bucket.Clone()
	stored := storedBucket{Base: bucket.Base}
	for _, token := range bucket.AuxAssets {
		amount := bucket.AuxAmounts[token]
		if amount == nil {
			amount = big.NewInt(0)
		}
		stored.Tokens = append(stored.Tokens, storedTokenBalance{Symbol: token, Amount: amount})
	}
	return rlp.EncodeToBytes(&stored)
}

func decodeBucket(data []byte) (*lottery.PrizeBucket, error) {
	var stored storedBucket
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	bucket := lottery.NewPrizeBucket()
	bucket.Base = stored.Base
	if bucket.Base == nil {
		bucket.Base = big.NewInt(0)
	}
	for _, tb := range stored.Tokens {
		bucket.AuxAssets = append(bucket.AuxAssets, tb.Symbol)
		bucket.AuxAmounts[tb.Symbol] = tb.Amount
	}
	return bucket, nil
}

type storedAuxPayout struct {
	Token  string
	Amount *big.Int
}

type storedDraw struct {
	ID           uint64
	Kind         uint8
	Timestamp    uint64
	Winner       [20]byte
	TicketID     uint64
	RandomValue  uint64
	PrizePaid    *big.Int
	Participants uint64
	TotalWeight  uint64
	AuxPaid      []storedAuxPayout
}

func encodeDraw(draw *lottery.Draw) ([]byte, error) {
	stored := storedDraw{
		ID:           draw.ID,
		Kind:         uint8(draw.Kind),
		Timestamp:    uint64(draw.Timestamp),
		Winner:       draw.Winner,
		TicketID:     draw.TicketID,
		RandomValue:  draw.RandomValue,
		PrizePaid:    draw.PrizePaid,
		Participants: draw.Participants,
		TotalWeight:  draw.TotalWeight,
	}
	if stored.PrizePaid == nil {
		stored.PrizePaid = big.NewInt(0)
	}
	for _, p := range draw.AuxPaid {
		stored.AuxPaid = append(stored.AuxPaid, storedAuxPayout{Token: p.Token, Amount: p.Amount})
	}
	return rlp.EncodeToBytes(&stored)
}

func decodeDraw(data []byte) (*lottery.Draw, error) {
	var stored storedDraw
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	draw := &lottery.Draw{
		ID:           stored.ID,
		Kind:         lottery.DrawKind(stored.Kind),
		Timestamp:    int64(stored.Timestamp),
		Winner:       stored.Winner,
		TicketID:     stored.TicketID,
		RandomValue:  stored.RandomValue,
		PrizePaid:    stored.PrizePaid,
		Participants: stored.Participants,
		TotalWeight:  stored.TotalWeight,
	}
	for _, p := range stored.AuxPaid {
		draw.AuxPaid = append(draw.AuxPaid, lottery.AuxPayout{Token: p.Token, Amount: p.Amount})
	}
	return draw, nil
}

type storedPendingDraw struct {
	DrawID       uint64
	Kind         uint8
	RequestedAt  uint64
	Prize        *big.Int
	Participants uint64
	TotalWeight  uint64
}

func encodePendingDraw(pending *lottery.PendingDraw) ([]byte, error) {
	pending = pending.Clone()
	return rlp.EncodeToBytes(&storedPendingDraw{
		DrawID:       pending.DrawID,
		Kind:         uint8(pending.Kind),
		RequestedAt:  uint64(pending.RequestedAt),
		Prize:        pending.Prize,
		Participants: pending.Participants,
		TotalWeight:  pending.TotalWeight,
	})
}

func decodePendingDraw(data []byte) (*lottery.PendingDraw, error) {
	var stored storedPendingDraw
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	return &lottery.PendingDraw{
		DrawID:       stored.DrawID,
		Kind:         lottery.DrawKind(stored.Kind),
		RequestedAt:  int64(stored.RequestedAt),
		Prize:        stored.Prize,
		Participants: stored.Participants,
		TotalWeight:  stored.TotalWeight,
	}, nil
}

type storedWin struct {
	DrawID   uint64
	TicketID uint64
}

func encodeWins(wins []lottery.WinRecord) ([]byte, error) {
	stored := make([]storedWin, 0, len(wins))
	for _, w := range wins {
		stored = append(stored, storedWin{DrawID: w.DrawID, TicketID: w.TicketID})
	}
	return rlp.EncodeToBytes(stored)
}

func decodeWins(data []byte) ([]lottery.WinRecord, error) {
	var stored []storedWin
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	wins := make([]lottery.WinRecord, 0, len(stored))
	for _, w := range stored {
		wins = append(wins, lottery.WinRecord{DrawID: w.DrawID, TicketID: w.TicketID})
	}
	return wins, nil
}

type storedPosition struct {
	StakedBalance *big.Int
	StakeTime     uint64
	LastClaimTime uint64
	TotalClaimed  *big.Int
}

func encodePosition(position *rewardstake.Position) ([]byte, error) {
	position = position.Clone()
	return rlp.EncodeToBytes(&storedPosition{
		StakedBalance: position.StakedBalance,
		StakeTime:     uint64(position.StakeTime),
		LastClaimTime: uint64(position.LastClaimTime),
		TotalClaimed:  position.TotalClaimed,
	})
}

func decodePosition(data []byte) (*rewardstake.Position, error) {
	var stored storedPosition
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	return &rewardstake.Position{
		StakedBalance: stored.StakedBalance,
		StakeTime:     int64(stored.StakeTime),
		LastClaimTime: int64(stored.LastClaimTime),
		TotalClaimed:  stored.TotalClaimed,
	}, nil
}

func encodeIDList(ids []uint64) ([]byte, error) {
	return rlp.EncodeToBytes(ids)
}

func decodeIDList(data []byte) ([]uint64, error) {
	var ids []uint64
	if err := rlp.DecodeBytes(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
