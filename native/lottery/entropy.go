package lottery

import (
	"encoding/binary"
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// EntropyMode selects how draws obtain their random value.
type EntropyMode uint8

const (
	// EntropyModePseudo draws synchronously from a cheap keccak mix. A block
	// producer can bias the result at a cost bounded by its opportunity cost;
	// acceptable only because participants cannot pre-select a winning value,
	// merely their relative weight before the draw closes.
	EntropyModePseudo EntropyMode = iota
	// EntropyModeVRF defers the draw to an external oracle callback. The draw
	// kind stays locked until CompleteDraw resolves it. There is no timeout or
	// re-request path: a callback that never arrives leaves the kind pending
	// forever. Known gap carried over from the original schedule design.
	EntropyModeVRF
)

func (m EntropyMode) Valid() bool { return m == EntropyModePseudo || m == EntropyModeVRF }

func (m EntropyMode) String() string {
	switch m {
	case EntropyModePseudo:
		return "pseudo"
	case EntropyModeVRF:
		return "vrf"
	default:
		return "unknown"
	}
}

// ParseEntropyMode maps the textual mode used in configuration files.
func ParseEntropyMode(s string) (EntropyMode, bool) {
	switch s {
	case "pseudo":
		return EntropyModePseudo, true
	case "vrf":
		return EntropyModeVRF, true
	default:
		return 0, false
	}
}

// EntropySource produces a uniformly distributed value in [0, bound).
type EntropySource interface {
	Draw(bound uint64, drawID uint64, caller [20]byte, now int64) (uint64, error)
}

var errZeroBound = errors.New("lottery: entropy bound must be positive")

// PseudoEntropy mixes the previous seed, timestamp, caller, draw id and
// bound through keccak256 and reduces the first word modulo the bound. The
// rolling seed stands in for the previous block hash on the host chain.
type PseudoEntropy struct {
	seed [32]byte
}

// NewPseudoEntropy seeds the source; a zero seed is valid.
func NewPseudoEntropy(seed [32]byte) *PseudoEntropy {
	return &PseudoEntropy{seed: seed}
}

// Draw implements EntropySource.
func (p *PseudoEntropy) Draw(bound uint64, drawID uint64, caller [20]byte, now int64) (uint64, error) {
	if bound == 0 {
		return 0, errZeroBound
	}
	var buf [32 + 8 + 20 + 8 + 8]byte
	copy(buf[:32], p.seed[:])
	binary.BigEndian.PutUint64(buf[32:40], uint64(now))
	copy(buf[40:60], caller[:])
	binary.BigEndian.PutUint64(buf[60:68], drawID)
	binary.BigEndian.PutUint64(buf[68:76], bound)
	digest := ethcrypto.Keccak256(buf[:])
	copy(p.seed[:], digest)
	return binary.BigEndian.Uint64(digest[:8]) % bound, nil
}
