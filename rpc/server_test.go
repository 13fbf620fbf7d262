package rpc

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"lottochain/native/lottery"
	"lottochain/native/rewardstake"
	"lottochain/state"
	"lottochain/storage"
)

func rpcAddr(index byte) [20]byte {
	var out [20]byte
	out[19] = index
	return out
}

type testEnv struct {
	manager *state.Manager
	lottery *lottery.Engine
	staking *rewardstake.Engine
	server  *httptest.Server
	now     int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	admin, vault := rpcAddr(0xA0), rpcAddr(0xC0)

	lotto := lottery.NewEngine()
	lotto.SetState(manager)
	lotto.SetPauses(manager)
	lotto.SetAdmin(admin)
	lotto.SetVault(vault)
	require.NoError(t, lotto.Bootstrap(admin))

	staking := rewardstake.NewEngine()
	staking.SetState(manager)
	staking.SetPauses(manager)

	env := &testEnv{manager: manager, lottery: lotto, staking: staking, now: 1_000_000}
	lotto.SetNowFunc(func() int64 { return env.now })
	staking.SetNowFunc(func() int64 { return env.now })

	srv := NewServer(Config{Lottery: lotto, Staking: staking})
	env.server = httptest.NewServer(srv.Handler())
	t.Cleanup(env.server.Close)
	return env
}

func (env *testEnv) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(env.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (env *testEnv) buyTicket(t *testing.T, buyer [20]byte, tier uint8) {
	t.Helper()
	tierCfg, err := env.lottery.TierOf(tier)
	require.NoError(t, err)
	require.NoError(t, env.manager.Credit(buyer, lottery.TokenLTO, tierCfg.PriceLTO))
	_, err = env.lottery.BuyTicket(buyer, tier, lottery.TokenLTO)
	require.NoError(t, err)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.get(t, "/healthz", nil))
}

func TestGetStatsAndTiers(t *testing.T) {
	env := newTestEnv(t)
	env.buyTicket(t, rpcAddr(1), 0)
	env.buyTicket(t, rpcAddr(1), 9)

	var stats map[string]uint64
	require.Equal(t, http.StatusOK, env.get(t, "/v1/lottery/stats", &stats))
	require.Equal(t, uint64(2), stats["participants"])
	require.Equal(t, uint64(513), stats["totalWeight"])

	var tiers []tierPayload
	require.Equal(t, http.StatusOK, env.get(t, "/v1/lottery/tiers", &tiers))
	require.Len(t, tiers, lottery.TierCount)
	require.Equal(t, uint64(1), tiers[0].Weight)
	require.Equal(t, uint64(512), tiers[9].Weight)
}

func TestGetAccountTickets(t *testing.T) {
	env := newTestEnv(t)
	owner := rpcAddr(1)
	env.buyTicket(t, owner, 0)
	env.buyTicket(t, owner, 3)
	require.NoError(t, env.lottery.BurnTicket(owner, 1))

	var tickets []ticketPayload
	path := "/v1/lottery/accounts/" + hex.EncodeToString(owner[:]) + "/tickets"
	require.Equal(t, http.StatusOK, env.get(t, path, &tickets))
	require.Len(t, tickets, 2)
	require.True(t, tickets[0].Live)
	require.False(t, tickets[1].Live)
	require.Equal(t, uint64(1), tickets[1].TicketID)
	require.Equal(t, uint64(1), tickets[1].WeightStart)
	require.Equal(t, uint64(9), tickets[1].WeightEnd)

	require.Equal(t, http.StatusBadRequest, env.get(t, "/v1/lottery/accounts/nothex/tickets", nil))
}

func TestGetDrawLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := rpcAddr(0xA0)
	winner := rpcAddr(1)
	env.buyTicket(t, winner, 0)
	_, err := env.lottery.ConfigureDraw(admin, lottery.DrawKindWeekly, big.NewInt(1000), 2)
	require.NoError(t, err)

	var cfg drawConfigPayload
	require.Equal(t, http.StatusOK, env.get(t, "/v1/lottery/kinds/weekly/config", &cfg))
	require.Equal(t, "weekly", cfg.Kind)
	require.Equal(t, "1000", cfg.CurrentPrize)
	require.True(t, cfg.Active)

	require.Equal(t, http.StatusNotFound, env.get(t, "/v1/lottery/kinds/monthly/config", nil))
	require.Equal(t, http.StatusBadRequest, env.get(t, "/v1/lottery/kinds/daily/config", nil))
	require.Equal(t, http.StatusNotFound, env.get(t, "/v1/lottery/kinds/weekly/pending", nil))
	require.Equal(t, http.StatusNotFound, env.get(t, "/v1/lottery/draws/99", nil))

	funder := rpcAddr(9)
	require.NoError(t, env.manager.Credit(funder, lottery.TokenLTO, big.NewInt(5000)))
	require.NoError(t, env.lottery.FundBucket(funder, lottery.DrawKindWeekly, big.NewInt(5000), nil, nil))

	var bucket bucketPayload
	require.Equal(t, http.StatusOK, env.get(t, "/v1/lottery/kinds/weekly/bucket", &bucket))
	require.Equal(t, "5000", bucket.Base)

	env.now += lottery.DrawKindWeekly.IntervalSeconds()
	draw, _, err := env.lottery.ExecuteDraw(rpcAddr(7), lottery.DrawKindWeekly)
	require.NoError(t, err)

	var gotDraw drawPayload
	require.Equal(t, http.StatusOK, env.get(t, "/v1/lottery/draws/0", &gotDraw))
	require.Equal(t, draw.ID, gotDraw.ID)
	require.Equal(t, hex.EncodeToString(winner[:]), gotDraw.Winner)
	require.Equal(t, "1000", gotDraw.PrizePaid)

	var wins []winPayload
	path := "/v1/lottery/accounts/" + hex.EncodeToString(winner[:]) + "/wins"
	require.Equal(t, http.StatusOK, env.get(t, path, &wins))
	require.Len(t, wins, 1)
	require.Equal(t, draw.ID, wins[0].DrawID)
}

func TestStakingQueries(t *testing.T) {
	env := newTestEnv(t)
	staker := rpcAddr(1)

	var params stakingParamsPayload
	require.Equal(t, http.StatusOK, env.get(t, "/v1/staking/params", &params))
	require.Equal(t, int64(86_400), params.EpochSeconds)

	var tiers []stakingTierPayload
	require.Equal(t, http.StatusOK, env.get(t, "/v1/staking/tiers", &tiers))
	require.NotEmpty(t, tiers)
	require.Equal(t, "0", tiers[0].MinBalance)

	path := "/v1/staking/accounts/" + hex.EncodeToString(staker[:])
	require.Equal(t, http.StatusNotFound, env.get(t, path, nil))

	require.NoError(t, env.manager.Credit(staker, lottery.TokenZLT, big.NewInt(10_000)))
	_, err := env.staking.Stake(staker)
	require.NoError(t, err)
	env.now += env.staking.ParamsOf().EpochSeconds

	var account stakingAccountPayload
	require.Equal(t, http.StatusOK, env.get(t, path, &account))
	require.Equal(t, "10000", account.StakedBalance)
	require.Equal(t, "10000", account.PendingReward)
	require.Equal(t, uint32(10_000), account.MultiplierBps)
}

func TestStakingAccountReportsEffectiveMultiplier(t *testing.T) {
	env := newTestEnv(t)
	staker := rpcAddr(2)
	oneToken := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	tierOne := new(big.Int).Mul(big.NewInt(10_000), oneToken)

	require.NoError(t, env.manager.Credit(staker, lottery.TokenZLT, tierOne))
	_, err := env.staking.Stake(staker)
	require.NoError(t, err)

	path := "/v1/staking/accounts/" + hex.EncodeToString(staker[:])
	var account stakingAccountPayload
	require.Equal(t, http.StatusOK, env.get(t, path, &account))
	require.Equal(t, uint32(11_000), account.MultiplierBps)

	// Selling down below the tier threshold drops the accrual multiplier even
	// though the stake snapshot is unchanged.
	require.NoError(t, env.manager.Transfer(staker, rpcAddr(3), lottery.TokenZLT, oneToken))
	require.Equal(t, http.StatusOK, env.get(t, path, &account))
	require.Equal(t, tierOne.String(), account.StakedBalance)
	require.Equal(t, uint32(10_000), account.MultiplierBps)
}

func TestRateLimit(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	lotto := lottery.NewEngine()
	lotto.SetState(manager)
	staking := rewardstake.NewEngine()
	staking.SetState(manager)
	srv := NewServer(Config{
		Lottery:   lotto,
		Staking:   staking,
		RateLimit: RateLimit{RequestsPerSecond: 1, Burst: 2},
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}
	require.Equal(t, http.StatusOK, statuses[0])
	require.Equal(t, http.StatusOK, statuses[1])
	require.Equal(t, http.StatusTooManyRequests, statuses[2])
}
