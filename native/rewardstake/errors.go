package rewardstake

import "errors"

var (
	ErrNilState       = errors.New("rewardstake: state not configured")
	ErrUnauthorized   = errors.New("rewardstake: unauthorized")
	ErrNothingToStake = errors.New("rewardstake: nothing to stake")
	ErrNoActiveStake  = errors.New("rewardstake: no active stake")
	ErrClaimTooSoon   = errors.New("rewardstake: claim too soon")
	ErrInvalidParams  = errors.New("rewardstake: invalid params")
	ErrInvalidTiers   = errors.New("rewardstake: invalid multiplier tiers")
)
