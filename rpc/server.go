package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"lottochain/native/lottery"
	"lottochain/native/rewardstake"
)

// Config carries the dependencies for the read-only query service.
type Config struct {
	Lottery   *lottery.Engine
	Staking   *rewardstake.Engine
	RateLimit RateLimit
	Logger    *slog.Logger
}

// Server exposes the engines' query surface over HTTP. All routes are
// read-only; mutations enter the system through transactions, not this API.
type Server struct {
	lottery *lottery.Engine
	staking *rewardstake.Engine
	logger  *slog.Logger
	router  http.Handler
}

// NewServer constructs the configured router.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{lottery: cfg.Lottery, staking: cfg.Staking, logger: logger}
	srv.router = srv.buildRouter(cfg.RateLimit)
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter(limit RateLimit) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(newRateLimiter(limit).middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1/lottery", func(api chi.Router) {
		api.Get("/stats", s.getStats)
		api.Get("/tiers", s.getTiers)
		api.Get("/draws/{id}", s.getDraw)
		api.Get("/kinds/{kind}/config", s.getDrawConfig)
		api.Get("/kinds/{kind}/bucket", s.getBucket)
		api.Get("/kinds/{kind}/pending", s.getPending)
		api.Get("/tickets/{id}", s.getTicket)
		api.Get("/accounts/{addr}/tickets", s.getAccountTickets)
		api.Get("/accounts/{addr}/wins", s.getAccountWins)
	})
	r.Route("/v1/staking", func(api chi.Router) {
		api.Get("/params", s.getStakingParams)
		api.Get("/tiers", s.getStakingTiers)
		api.Get("/accounts/{addr}", s.getStakingAccount)
	})
	return r
}

// --- wire shapes ---

type tierPayload struct {
	Index    uint8  `json:"index"`
	Weight   uint64 `json:"weight"`
	PriceLTO string `json:"priceLto"`
	PriceZLT string `json:"priceZlt"`
	PricePTS string `json:"pricePts"`
}

type ticketPayload struct {
	TicketID    uint64 `json:"ticketId"`
	Owner       string `json:"owner"`
	Tier        uint8  `json:"tier"`
	WeightStart uint64 `json:"weightStart"`
	WeightEnd   uint64 `json:"weightEnd"`
	Live        bool   `json:"live"`
}

type drawConfigPayload struct {
	Kind            string `json:"kind"`
	InitialPrize    string `json:"initialPrize"`
	CurrentPrize    string `json:"currentPrize"`
	HalvingInterval uint64 `json:"halvingInterval"`
	DrawCount       uint64 `json:"drawCount"`
	LastDrawTime    int64  `json:"lastDrawTime"`
	DrawInterval    int64  `json:"drawInterval"`
	Active          bool   `json:"active"`
}

type bucketPayload struct {
	Base string            `json:"base"`
	Aux  map[string]string `json:"aux"`
}

type auxPayoutPayload struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type drawPayload struct {
	ID           uint64             `json:"id"`
	Kind         string             `json:"kind"`
	Timestamp    int64              `json:"timestamp"`
	Winner       string             `json:"winner"`
	TicketID     uint64             `json:"ticketId"`
	RandomValue  uint64             `json:"randomValue"`
	PrizePaid    string             `json:"prizePaid"`
	Participants uint64             `json:"participants"`
	TotalWeight  uint64             `json:"totalWeight"`
	AuxPaid      []auxPayoutPayload `json:"auxPaid,omitempty"`
}

type pendingPayload struct {
	DrawID       uint64 `json:"drawId"`
	Kind         string `json:"kind"`
	RequestedAt  int64  `json:"requestedAt"`
	Prize        string `json:"prize"`
	Participants uint64 `json:"participants"`
	TotalWeight  uint64 `json:"totalWeight"`
}

type winPayload struct {
	DrawID   uint64 `json:"drawId"`
	TicketID uint64 `json:"ticketId"`
}

type stakingParamsPayload struct {
	EpochSeconds    int64  `json:"epochSeconds"`
	BaseRateWad     string `json:"baseRateWad"`
	BuyCreditBps    uint32 `json:"buyCreditBps"`
	MinClaimSeconds int64  `json:"minClaimSeconds"`
}

type stakingTierPayload struct {
	MinBalance    string `json:"minBalance"`
	MultiplierBps uint32 `json:"multiplierBps"`
}

type stakingAccountPayload struct {
	Address       string `json:"address"`
	StakedBalance string `json:"stakedBalance"`
	StakeTime     int64  `json:"stakeTime"`
	LastClaimTime int64  `json:"lastClaimTime"`
	TotalClaimed  string `json:"totalClaimed"`
	PendingReward string `json:"pendingReward"`
	MultiplierBps uint32 `json:"multiplierBps"`
}

func formatBig(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// --- lottery handlers ---

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	participants, totalWeight, err := s.lottery.Stats()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]uint64{"participants": participants, "totalWeight": totalWeight})
}

func (s *Server) getTiers(w http.ResponseWriter, r *http.Request) {
	payload := make([]tierPayload, 0, lottery.TierCount)
	for i := uint8(0); i < lottery.TierCount; i++ {
		tier, err := s.lottery.TierOf(i)
		if err != nil {
			s.writeError(w, err)
			return
		}
		payload = append(payload, tierPayload{
			Index:    i,
			Weight:   tier.Weight,
			PriceLTO: formatBig(tier.PriceLTO),
			PriceZLT: formatBig(tier.PriceZLT),
			PricePTS: formatBig(tier.PricePTS),
		})
	}
	s.writeJSON(w, payload)
}

func (s *Server) getDraw(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	draw, err := s.lottery.DrawOf(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, drawToPayload(draw))
}

func drawToPayload(draw *lottery.Draw) drawPayload {
	payload := drawPayload{
		ID:           draw.ID,
		Kind:         draw.Kind.String(),
		Timestamp:    draw.Timestamp,
		Winner:       hex.EncodeToString(draw.Winner[:]),
		TicketID:     draw.TicketID,
		RandomValue:  draw.RandomValue,
		PrizePaid:    formatBig(draw.PrizePaid),
		Participants: draw.Participants,
		TotalWeight:  draw.TotalWeight,
	}
	for _, aux := range draw.AuxPaid {
		payload.AuxPaid = append(payload.AuxPaid, auxPayoutPayload{Token: aux.Token, Amount: formatBig(aux.Amount)})
	}
	return payload
}

func (s *Server) getDrawConfig(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	cfg, err := s.lottery.ConfigOf(kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, drawConfigPayload{
		Kind:            cfg.Kind.String(),
		InitialPrize:    formatBig(cfg.InitialPrize),
		CurrentPrize:    formatBig(cfg.CurrentPrize),
		HalvingInterval: cfg.HalvingInterval,
		DrawCount:       cfg.DrawCount,
		LastDrawTime:    cfg.LastDrawTime,
		DrawInterval:    cfg.DrawInterval,
		Active:          cfg.Active,
	})
}

func (s *Server) getBucket(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	bucket, err := s.lottery.BucketOf(kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	payload := bucketPayload{Base: formatBig(bucket.Base), Aux: make(map[string]string, len(bucket.AuxAssets))}
	for _, token := range bucket.AuxAssets {
		payload.Aux[token] = formatBig(bucket.AuxAmounts[token])
	}
	s.writeJSON(w, payload)
}

func (s *Server) getPending(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	pending, exists, err := s.lottery.PendingOf(kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !exists {
		http.Error(w, "no pending draw", http.StatusNotFound)
		return
	}
	s.writeJSON(w, pendingPayload{
		DrawID:       pending.DrawID,
		Kind:         pending.Kind.String(),
		RequestedAt:  pending.RequestedAt,
		Prize:        formatBig(pending.Prize),
		Participants: pending.Participants,
		TotalWeight:  pending.TotalWeight,
	})
}

func (s *Server) getTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	record, err := s.lottery.TicketOf(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	live, err := s.lottery.TicketLive(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, ticketToPayload(record, live))
}

func ticketToPayload(record *lottery.TicketRecord, live bool) ticketPayload {
	return ticketPayload{
		TicketID:    record.TicketID,
		Owner:       hex.EncodeToString(record.Owner[:]),
		Tier:        record.Tier,
		WeightStart: record.WeightStart,
		WeightEnd:   record.WeightEnd,
		Live:        live,
	}
}

func (s *Server) getAccountTickets(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddr(w, r)
	if !ok {
		return
	}
	ids, err := s.lottery.TicketsOf(addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	payload := make([]ticketPayload, 0, len(ids))
	for _, id := range ids {
		record, err := s.lottery.TicketOf(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		live, err := s.lottery.TicketLive(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		payload = append(payload, ticketToPayload(record, live))
	}
	s.writeJSON(w, payload)
}

func (s *Server) getAccountWins(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddr(w, r)
	if !ok {
		return
	}
	wins, err := s.lottery.WinsOf(addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	payload := make([]winPayload, 0, len(wins))
	for _, win := range wins {
		payload = append(payload, winPayload{DrawID: win.DrawID, TicketID: win.TicketID})
	}
	s.writeJSON(w, payload)
}

// --- staking handlers ---

func (s *Server) getStakingParams(w http.ResponseWriter, r *http.Request) {
	params := s.staking.ParamsOf()
	s.writeJSON(w, stakingParamsPayload{
		EpochSeconds:    params.EpochSeconds,
		BaseRateWad:     formatBig(params.BaseRateWad),
		BuyCreditBps:    params.BuyCreditBps,
		MinClaimSeconds: params.MinClaimSeconds,
	})
}

func (s *Server) getStakingTiers(w http.ResponseWriter, r *http.Request) {
	tiers := s.staking.TiersOf()
	payload := make([]stakingTierPayload, 0, len(tiers))
	for _, tier := range tiers {
		payload = append(payload, stakingTierPayload{
			MinBalance:    formatBig(tier.MinBalance),
			MultiplierBps: tier.MultiplierBps,
		})
	}
	s.writeJSON(w, payload)
}

func (s *Server) getStakingAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddr(w, r)
	if !ok {
		return
	}
	position, exists, err := s.staking.PositionOf(addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !exists {
		http.Error(w, "no staking position", http.StatusNotFound)
		return
	}
	pending, err := s.staking.PendingRewards(addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	multiplier, err := s.staking.EffectiveMultiplierOf(addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, stakingAccountPayload{
		Address:       hex.EncodeToString(addr[:]),
		StakedBalance: formatBig(position.StakedBalance),
		StakeTime:     position.StakeTime,
		LastClaimTime: position.LastClaimTime,
		TotalClaimed:  formatBig(position.TotalClaimed),
		PendingReward: formatBig(pending),
		MultiplierBps: multiplier,
	})
}

// --- helpers ---

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func parseKind(w http.ResponseWriter, r *http.Request) (lottery.DrawKind, bool) {
	kind, ok := lottery.ParseDrawKind(chi.URLParam(r, "kind"))
	if !ok {
		http.Error(w, "invalid draw kind", http.StatusBadRequest)
		return 0, false
	}
	return kind, true
}

func parseAddr(w http.ResponseWriter, r *http.Request) ([20]byte, bool) {
	var addr [20]byte
	raw := strings.TrimPrefix(strings.TrimSpace(chi.URLParam(r, "addr")), "0x")
	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != 20 {
		http.Error(w, "invalid address", http.StatusBadRequest)
		return addr, false
	}
	copy(addr[:], decoded)
	return addr, true
}

func (s *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("rpc: encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lottery.ErrDrawNotFound),
		errors.Is(err, lottery.ErrTicketNotFound),
		errors.Is(err, lottery.ErrDrawNotConfigured):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, lottery.ErrInvalidTier):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("rpc: query failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
