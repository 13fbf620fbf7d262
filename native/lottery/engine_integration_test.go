package lottery_test

import (
	"errors"
	"math/big"
	"testing"

	nativecommon "lottochain/native/common"
	"lottochain/native/lottery"
	"lottochain/state"
	"lottochain/storage"
)

var (
	adminAddr  = fixedAddr(0xA0)
	oracleAddr = fixedAddr(0xB0)
	vaultAddr  = fixedAddr(0xC0)
)

func fixedAddr(index byte) [20]byte {
	var out [20]byte
	out[19] = index
	return out
}

type fixedEntropy struct {
	value uint64
}

func (f fixedEntropy) Draw(bound, drawID uint64, caller [20]byte, now int64) (uint64, error) {
	return f.value % bound, nil
}

type fixture struct {
	manager *state.Manager
	engine  *lottery.Engine
	now     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	manager.AuthorizeSoulboundDest(vaultAddr)
	engine := lottery.NewEngine()
	engine.SetState(manager)
	engine.SetPauses(manager)
	engine.SetAdmin(adminAddr)
	engine.SetOracle(oracleAddr)
	engine.SetVault(vaultAddr)
	f := &fixture{manager: manager, engine: engine, now: 1_000_000}
	engine.SetNowFunc(func() int64 { return f.now })
	if err := engine.Bootstrap(adminAddr); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return f
}

func (f *fixture) fund(t *testing.T, addr [20]byte, token string, amount int64) {
	t.Helper()
	if err := f.manager.Credit(addr, token, big.NewInt(amount)); err != nil {
		t.Fatalf("credit %s: %v", token, err)
	}
}

func (f *fixture) buy(t *testing.T, buyer [20]byte, tier uint8) *lottery.TicketRecord {
	t.Helper()
	tierCfg, err := f.engine.TierOf(tier)
	if err != nil {
		t.Fatalf("tier %d: %v", tier, err)
	}
	if err := f.manager.Credit(buyer, lottery.TokenLTO, tierCfg.PriceLTO); err != nil {
		t.Fatalf("credit buyer: %v", err)
	}
	record, err := f.engine.BuyTicket(buyer, tier, lottery.TokenLTO)
	if err != nil {
		t.Fatalf("buy tier %d: %v", tier, err)
	}
	return record
}

// Seeds the scenario ledger: A tier 0 (weight 1), B tier 9 (weight 512),
// A tier 3 (weight 8) => ranges [0,1) [1,513) [513,521), total 521.
func (f *fixture) seedScenario(t *testing.T) ([20]byte, [20]byte) {
	t.Helper()
	userA, userB := fixedAddr(1), fixedAddr(2)
	f.buy(t, userA, 0)
	f.buy(t, userB, 9)
	f.buy(t, userA, 3)
	return userA, userB
}

func TestBuyTicketBuildsScenarioLedger(t *testing.T) {
	f := newFixture(t)
	userA, userB := f.seedScenario(t)

	count, total, err := f.engine.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 3 || total != 521 {
		t.Fatalf("stats (%d, %d), want (3, 521)", count, total)
	}
	ticketsA, err := f.engine.TicketsOf(userA)
	if err != nil {
		t.Fatalf("tickets of A: %v", err)
	}
	if len(ticketsA) != 2 || ticketsA[0] != 0 || ticketsA[1] != 2 {
		t.Fatalf("tickets of A: %v", ticketsA)
	}
	ticketsB, err := f.engine.TicketsOf(userB)
	if err != nil {
		t.Fatalf("tickets of B: %v", err)
	}
	if len(ticketsB) != 1 || ticketsB[0] != 1 {
		t.Fatalf("tickets of B: %v", ticketsB)
	}
}

func TestBuyTicketRequiresPayment(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.BuyTicket(fixedAddr(1), 0, lottery.TokenLTO); !errors.Is(err, state.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if _, err := f.engine.BuyTicket(fixedAddr(1), 0, "DOGE"); !errors.Is(err, lottery.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
	if _, err := f.engine.BuyTicket(fixedAddr(1), lottery.TierCount, lottery.TokenLTO); !errors.Is(err, lottery.ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}

func executeDrawAt(t *testing.T, f *fixture, kind lottery.DrawKind, entropyValue uint64) *lottery.Draw {
	t.Helper()
	f.engine.SetEntropy(fixedEntropy{value: entropyValue})
	cfg, err := f.engine.ConfigOf(kind)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	f.now = cfg.LastDrawTime + cfg.DrawInterval
	draw, pending, err := f.engine.ExecuteDraw(fixedAddr(7), kind)
	if err != nil {
		t.Fatalf("execute draw: %v", err)
	}
	if pending != nil {
		t.Fatalf("unexpected pending draw in pseudo mode")
	}
	return draw
}

func TestExecuteDrawSelectsByRandomValue(t *testing.T) {
	f := newFixture(t)
	userA, userB := f.seedScenario(t)
	if _, err := f.engine.ConfigureDraw(adminAddr, lottery.DrawKindWeekly, big.NewInt(1000), 2); err != nil {
		t.Fatalf("configure: %v", err)
	}
	f.fund(t, vaultAddr, lottery.TokenLTO, 1_000_000)
	bucketFunder := fixedAddr(9)
	f.fund(t, bucketFunder, lottery.TokenLTO, 1_000_000)
	if err := f.engine.FundBucket(bucketFunder, lottery.DrawKindWeekly, big.NewInt(10_000), nil, nil); err != nil {
		t.Fatalf("fund bucket: %v", err)
	}

	cases := []struct {
		value  uint64
		winner [20]byte
		ticket uint64
	}{
		{0, userA, 0},
		{1, userB, 1},
		{520, userA, 2},
	}
	for _, tc := range cases {
		draw := executeDrawAt(t, f, lottery.DrawKindWeekly, tc.value)
		if draw.Winner != tc.winner || draw.TicketID != tc.ticket {
			t.Fatalf("value %d: winner %x ticket %d, want %x ticket %d", tc.value, draw.Winner, draw.TicketID, tc.winner, tc.ticket)
		}
		if draw.TotalWeight != 521 || draw.Participants != 3 {
			t.Fatalf("snapshot (%d, %d), want (521, 3)", draw.TotalWeight, draw.Participants)
		}
	}
}

func TestExecuteDrawPaysCappedBaseAndFullAux(t *testing.T) {
	f := newFixture(t)
	userA, _ := f.seedScenario(t)
	if _, err := f.engine.ConfigureDraw(adminAddr, lottery.DrawKindWeekly, big.NewInt(1000), 2); err != nil {
		t.Fatalf("configure: %v", err)
	}
	funder := fixedAddr(9)
	f.fund(t, funder, lottery.TokenLTO, 10)
	f.fund(t, funder, "USDX", 1000)
	if err := f.engine.FundBucket(funder, lottery.DrawKindWeekly, big.NewInt(10), []string{"USDX"}, []*big.Int{big.NewInt(1000)}); err != nil {
		t.Fatalf("fund bucket: %v", err)
	}

	draw := executeDrawAt(t, f, lottery.DrawKindWeekly, 0)
	if draw.Winner != userA {
		t.Fatalf("winner %x", draw.Winner)
	}
	if draw.PrizePaid.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("prize paid %s, want 10 (capped by bucket)", draw.PrizePaid)
	}
	if len(draw.AuxPaid) != 1 || draw.AuxPaid[0].Token != "USDX" || draw.AuxPaid[0].Amount.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("aux paid %v", draw.AuxPaid)
	}

	bucket, err := f.engine.BucketOf(lottery.DrawKindWeekly)
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	if bucket.Base.Sign() != 0 || len(bucket.AuxAssets) != 0 {
		t.Fatalf("bucket not drained: %+v", bucket)
	}

	winnerAcc, err := f.manager.GetAccount(userA[:])
	if err != nil {
		t.Fatalf("winner account: %v", err)
	}
	if winnerAcc.TokenBalances["USDX"].Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("winner aux balance %v", winnerAcc.TokenBalances)
	}

	wins, err := f.engine.WinsOf(userA)
	if err != nil {
		t.Fatalf("wins: %v", err)
	}
	if len(wins) != 1 || wins[0].DrawID != draw.ID || wins[0].TicketID != draw.TicketID {
		t.Fatalf("win index %v", wins)
	}
}

func TestExecuteDrawGates(t *testing.T) {
	f := newFixture(t)
	if _, _, err := f.engine.ExecuteDraw(fixedAddr(7), lottery.DrawKindWeekly); !errors.Is(err, lottery.ErrDrawNotConfigured) {
		t.Fatalf("unconfigured: %v", err)
	}
	if _, err := f.engine.ConfigureDraw(adminAddr, lottery.DrawKindWeekly, big.NewInt(1000), 2); err != nil {
		t.Fatalf("configure: %v", err)
	}
	f.now += lottery.DrawKindWeekly.IntervalSeconds()
	if _, _, err := f.engine.ExecuteDraw(fixedAddr(7), lottery.DrawKindWeekly); !errors.Is(err, lottery.ErrNoParticipants) {
		t.Fatalf("no participants: %v", err)
	}
	f.seedScenario(t)
	f.now -= lottery.DrawKindWeekly.IntervalSeconds()
	if _, _, err := f.engine.ExecuteDraw(fixedAddr(7), lottery.DrawKindWeekly); !errors.Is(err, lottery.ErrDrawTooEarly) {
		t.Fatalf("too early: %v", err)
	}
	if err := f.engine.SetDrawActive(adminAddr, lottery.DrawKindWeekly, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	f.now += lottery.DrawKindWeekly.IntervalSeconds()
	if _, _, err := f.engine.ExecuteDraw(fixedAddr(7), lottery.DrawKindWeekly); !errors.Is(err, lottery.ErrDrawInactive) {
		t.Fatalf("inactive: %v", err)
	}
}

func TestExecuteDrawPaused(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	if _, err := f.engine.ConfigureDraw(adminAddr, lottery.DrawKindWeekly, big.NewInt(1000), 2); err != nil {
		t.Fatalf("configure: %v", err)
	}
	f.manager.SetPaused(lottery.ModuleName, true)
	if _, _, err := f.engine.ExecuteDraw(fixedAddr(7), lottery.DrawKindWeekly); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if _, err := f.engine.BuyTicket(fixedAddr(1), 0, lottery.TokenLTO); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused on buy, got %v", err)
	}
}

func TestCompleteDrawPaused(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	if _, err := f.engine.ConfigureDraw(adminAddr, lottery.DrawKindWeekly, big.NewInt(100), 2); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := f.engine.SetEntropyMode(adminAddr, lottery.EntropyModeVRF); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	f.now += lottery.DrawKindWeekly.IntervalSeconds()
	_, pending, err := f.engine.ExecuteDraw(fixedAddr(7), lottery.DrawKindWeekly)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	// Pausing mid-flight must hold the oracle callback too, not only the
	// request side.
	f.manager.SetPaused(lottery.ModuleName, true)
	if _, err := f.engine.CompleteDraw(oracleAddr, pending.DrawID, 0); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if _, ok, err := f.engine.PendingOf(lottery.DrawKindWeekly); err != nil || !ok {
		t.Fatalf("pending draw consumed while paused: ok=%v err=%v", ok, err)
	}

	f.manager.SetPaused(lottery.ModuleName, false)
	if _, err := f.engine.CompleteDraw(oracleAddr, pending.DrawID, 0); err != nil {
		t.Fatalf("complete after unpause: %v", err)
	}
}

func TestTwoPhaseVRFDraw(t *testing.T) {
	f := newFixture(t)
	_, userB := f.seedScenario(t)
	if _, err := f.engine.ConfigureDraw(adminAddr, lottery.DrawKindMonthly, big.NewInt(500), 2); err != nil {
		t.Fatalf("configure: %v", err)
	}
	funder := fixedAddr(9)
	f.fund(t, funder, lottery.TokenLTO, 10_000)
	if err := f.engine.FundBucket(funder, lottery.DrawKindMonthly, big.NewInt(10_000), nil, nil); err != nil {
		t.Fatalf("fund bucket: %v", err)
	}
	if err := f.engine.SetEntropyMode(adminAddr, lottery.EntropyModeVRF); err != nil {
		t.Fatalf("set mode: %v", err)
	}

	f.now += lottery.DrawKindMonthly.IntervalSeconds()
	draw, pending, err := f.engine.ExecuteDraw(fixedAddr(7), lottery.DrawKindMonthly)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if draw != nil || pending == nil {
		t.Fatalf("expected pending draw, got draw=%v pending=%v", draw, pending)
	}
	if pending.TotalWeight != 521 {
		t.Fatalf("pending snapshot weight %d", pending.TotalWeight)
	}

	// The kind is locked while awaiting entropy.
	f.now += lottery.DrawKindMonthly.IntervalSeconds()
	if _, _, err := f.engine.ExecuteDraw(fixedAddr(7), lottery.DrawKindMonthly); !errors.Is(err, lottery.ErrDrawPending) {
		t.Fatalf("expected ErrDrawPending, got %v", err)
	}

	// Only the oracle may complete.
	if _, err := f.engine.CompleteDraw(fixedAddr(7), pending.DrawID, 1); !errors.Is(err, lottery.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	completed, err := f.engine.CompleteDraw(oracleAddr, pending.DrawID, 521+1)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	// 522 % 521 == 1, which lands in B's range [1, 513).
	if completed.Winner != userB || completed.RandomValue != 1 {
		t.Fatalf("winner %x random %d", completed.Winner, completed.RandomValue)
	}

	// Pending slot cleared; the kind draws again next interval.
	if _, ok, err := f.engine.PendingOf(lottery.DrawKindMonthly); err != nil || ok {
		t.Fatalf("pending not cleared: ok=%v err=%v", ok, err)
	}
	if _, err := f.engine.CompleteDraw(oracleAddr, pending.DrawID, 1); !errors.Is(err, lottery.ErrNoPendingDraw) {
		t.Fatalf("expected ErrNoPendingDraw, got %v", err)
	}
}

func TestFundBucketValidation(t *testing.T) {
	f := newFixture(t)
	funder := fixedAddr(9)
	if err := f.engine.FundBucket(funder, lottery.DrawKindWeekly, nil, []string{"USDX"}, nil); !errors.Is(err, lottery.ErrLengthMismatch) {
		t.Fatalf("length mismatch: %v", err)
	}
	if err := f.engine.FundBucket(funder, lottery.DrawKindWeekly, nil, []string{"USDX"}, []*big.Int{big.NewInt(0)}); !errors.Is(err, lottery.ErrInvalidAmount) {
		t.Fatalf("zero amount: %v", err)
	}
	if err := f.engine.FundBucket(funder, lottery.DrawKindWeekly, nil, []string{""}, []*big.Int{big.NewInt(1)}); !errors.Is(err, lottery.ErrUnknownToken) {
		t.Fatalf("empty token: %v", err)
	}
	// A short balance anywhere in the batch moves nothing: the funder can
	// cover the first pair but not the second.
	f.fund(t, funder, "AAA", 10)
	err := f.engine.FundBucket(funder, lottery.DrawKindWeekly, nil, []string{"AAA", "BBB"}, []*big.Int{big.NewInt(10), big.NewInt(5)})
	if !errors.Is(err, lottery.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	funderBalance, err := f.manager.TokenBalance(funder, "AAA")
	if err != nil {
		t.Fatalf("funder balance: %v", err)
	}
	if funderBalance.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("funder AAA %s, want 10 untouched", funderBalance)
	}
	vaultBalance, err := f.manager.TokenBalance(vaultAddr, "AAA")
	if err != nil {
		t.Fatalf("vault balance: %v", err)
	}
	if vaultBalance.Sign() != 0 {
		t.Fatalf("vault AAA %s, want 0", vaultBalance)
	}
	bucket, err := f.engine.BucketOf(lottery.DrawKindWeekly)
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	if len(bucket.AuxAssets) != 0 {
		t.Fatalf("bucket credited on failed funding: %+v", bucket)
	}

	// Additive funding across two calls.
	f.fund(t, funder, "USDX", 20)
	for i := 0; i < 2; i++ {
		if err := f.engine.FundBucket(funder, lottery.DrawKindWeekly, nil, []string{"USDX"}, []*big.Int{big.NewInt(10)}); err != nil {
			t.Fatalf("fund %d: %v", i, err)
		}
	}
	bucket, err = f.engine.BucketOf(lottery.DrawKindWeekly)
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	if bucket.AuxAmounts["USDX"].Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("bucket aux %s, want 20", bucket.AuxAmounts["USDX"])
	}
}

func TestBurnTicketLeavesDeadWeight(t *testing.T) {
	f := newFixture(t)
	userA, _ := f.seedScenario(t)

	live, err := f.engine.TicketLive(0)
	if err != nil || !live {
		t.Fatalf("fresh ticket live=%v err=%v", live, err)
	}
	if err := f.engine.BurnTicket(fixedAddr(3), 0); !errors.Is(err, lottery.ErrUnauthorized) {
		t.Fatalf("non-owner burn: %v", err)
	}
	if err := f.engine.BurnTicket(userA, 0); err != nil {
		t.Fatalf("burn: %v", err)
	}
	live, err = f.engine.TicketLive(0)
	if err != nil || live {
		t.Fatalf("burned ticket live=%v err=%v", live, err)
	}

	// The range stays in the ledger: total weight unchanged and the burned
	// ticket can still win.
	_, total, err := f.engine.Stats()
	if err != nil || total != 521 {
		t.Fatalf("total weight %d err=%v", total, err)
	}
	if _, err := f.engine.ConfigureDraw(adminAddr, lottery.DrawKindWeekly, big.NewInt(100), 2); err != nil {
		t.Fatalf("configure: %v", err)
	}
	draw := executeDrawAt(t, f, lottery.DrawKindWeekly, 0)
	if draw.TicketID != 0 {
		t.Fatalf("burned ticket did not win: ticket %d", draw.TicketID)
	}
}

func TestAdminGating(t *testing.T) {
	f := newFixture(t)
	outsider := fixedAddr(5)
	if _, err := f.engine.ConfigureDraw(outsider, lottery.DrawKindWeekly, big.NewInt(1), 1); !errors.Is(err, lottery.ErrUnauthorized) {
		t.Fatalf("configure: %v", err)
	}
	if err := f.engine.SetDrawActive(outsider, lottery.DrawKindWeekly, false); !errors.Is(err, lottery.ErrUnauthorized) {
		t.Fatalf("set active: %v", err)
	}
	if err := f.engine.SetEntropyMode(outsider, lottery.EntropyModeVRF); !errors.Is(err, lottery.ErrUnauthorized) {
		t.Fatalf("set mode: %v", err)
	}
	if err := f.engine.SetTier(outsider, 0, &lottery.Tier{Weight: 1}); !errors.Is(err, lottery.ErrUnauthorized) {
		t.Fatalf("set tier: %v", err)
	}
	if err := f.engine.SetTier(adminAddr, 0, &lottery.Tier{Weight: 0}); !errors.Is(err, lottery.ErrZeroWeight) {
		t.Fatalf("zero weight tier: %v", err)
	}
}
