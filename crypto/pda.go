package crypto

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/calehh/vote-app/types"
	"github.com/cometbft/cometbft/crypto/tmhash"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

// pdaMarker is appended to every derivation preimage so that derived
// addresses cannot be produced by hashing any other structure.
var pdaMarker = []byte("ProgramDerivedAddress")

var (
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidSeeds          = errors.New("provided seeds do not result in a valid address")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump seed")
)

// IsOnCurve reports whether b decodes to a point of the ed25519 curve, that
// is whether some private key could sign for it.
func IsOnCurve(b []byte) bool {
	if len(b) != types.AddressLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

func checkSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return fmt.Errorf("%w: %d seeds", ErrMaxSeedLengthExceeded, len(seeds))
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return fmt.Errorf("%w: seed %d has %d bytes", ErrMaxSeedLengthExceeded, i, len(seed))
		}
	}
	return nil
}

// CreateProgramAddress hashes seeds and the program identity into an address
// that lies off the ed25519 curve. Seeds are used in order.
func CreateProgramAddress(seeds [][]byte, programID types.Address) (addr types.Address, err error) {
	if err = checkSeeds(seeds); err != nil {
		return
	}
	h := tmhash.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write(pdaMarker)
	sum := h.Sum(nil)
	if IsOnCurve(sum) {
		err = ErrInvalidSeeds
		return
	}
	copy(addr[:], sum)
	return
}

// FindProgramAddress searches bump values from 255 down to 0 and returns the
// first one for which seeds||[bump] yields a valid program address.
func FindProgramAddress(seeds [][]byte, programID types.Address) (addr types.Address, bump uint8, err error) {
	if err = checkSeeds(seeds); err != nil {
		return
	}
	if len(seeds) >= MaxSeeds {
		err = fmt.Errorf("%w: no room for bump seed", ErrMaxSeedLengthExceeded)
		return
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for b := 255; b >= 0; b-- {
		withBump[len(seeds)] = []byte{uint8(b)}
		addr, err = CreateProgramAddress(withBump, programID)
		if err == nil {
			bump = uint8(b)
			return
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return
		}
	}
	err = ErrNoViableBump
	return
}

// VerifyProgramAddress recomputes the address for seeds and a stored bump.
func VerifyProgramAddress(seeds [][]byte, bump uint8, programID types.Address, addr types.Address) bool {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	withBump[len(seeds)] = []byte{bump}
	derived, err := CreateProgramAddress(withBump, programID)
	if err != nil {
		return false
	}
	return derived == addr
}

// ProposalSeeds returns the seeds locating the proposal of owner.
func ProposalSeeds(seed string, owner types.Address) [][]byte {
	return [][]byte{[]byte(seed), owner.Bytes()}
}

var registryScopeTag = []byte("voters")

// RegistrySeeds returns the seeds locating a voter registry. Under the
// proposer scope the proposal location is ignored.
func RegistrySeeds(scope types.RegistryScope, proposer types.Address, proposal types.Address) [][]byte {
	if scope == types.RegistryScopeProposal {
		return [][]byte{registryScopeTag, proposer.Bytes(), proposal.Bytes()}
	}
	return [][]byte{proposer.Bytes()}
}

func DeriveProposalAddress(seed string, owner types.Address, programID types.Address) (types.Address, uint8, error) {
	return FindProgramAddress(ProposalSeeds(seed, owner), programID)
}

func DeriveRegistryAddress(scope types.RegistryScope, proposer types.Address, proposal types.Address, programID types.Address) (types.Address, uint8, error) {
	return FindProgramAddress(RegistrySeeds(scope, proposer, proposal), programID)
}
