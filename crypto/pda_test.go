package crypto

import (
	"bytes"
	"testing"

	"github.com/calehh/vote-app/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/require"
)

func testProgramID() types.Address {
	return types.MustParseAddress(types.DefaultProgramID)
}

func randomIdentity(t *testing.T) types.Address {
	addr, err := types.PubKeyToAddress(ed25519.GenPrivKey().PubKey().(ed25519.PubKey))
	require.NoError(t, err)
	return addr
}

func TestFindProgramAddressDeterministic(t *testing.T) {
	owner := randomIdentity(t)
	a1, b1, err := DeriveProposalAddress("thevotingseed", owner, testProgramID())
	require.NoError(t, err)
	a2, b2, err := DeriveProposalAddress("thevotingseed", owner, testProgramID())
	require.NoError(t, err)
	require.Equal(t, a1, a2)
	require.Equal(t, b1, b2)
	require.False(t, IsOnCurve(a1[:]))
	require.True(t, VerifyProgramAddress(ProposalSeeds("thevotingseed", owner), b1, testProgramID(), a1))
}

func TestFindProgramAddressSeparatesInputs(t *testing.T) {
	owner := randomIdentity(t)
	other := randomIdentity(t)
	pid := testProgramID()

	base, _, err := DeriveProposalAddress("thevotingseed", owner, pid)
	require.NoError(t, err)

	otherOwner, _, err := DeriveProposalAddress("thevotingseed", other, pid)
	require.NoError(t, err)
	require.NotEqual(t, base, otherOwner)

	otherSeed, _, err := DeriveProposalAddress("anotherseed", owner, pid)
	require.NoError(t, err)
	require.NotEqual(t, base, otherSeed)

	otherProgram, _, err := DeriveProposalAddress("thevotingseed", owner, other)
	require.NoError(t, err)
	require.NotEqual(t, base, otherProgram)

	registry, _, err := DeriveRegistryAddress(types.RegistryScopeProposer, owner, base, pid)
	require.NoError(t, err)
	require.NotEqual(t, base, registry)
}

func TestRegistryScope(t *testing.T) {
	proposer := randomIdentity(t)
	pid := testProgramID()
	p1, _, err := DeriveProposalAddress("one", proposer, pid)
	require.NoError(t, err)
	p2, _, err := DeriveProposalAddress("two", proposer, pid)
	require.NoError(t, err)

	shared1, _, err := DeriveRegistryAddress(types.RegistryScopeProposer, proposer, p1, pid)
	require.NoError(t, err)
	shared2, _, err := DeriveRegistryAddress(types.RegistryScopeProposer, proposer, p2, pid)
	require.NoError(t, err)
	require.Equal(t, shared1, shared2)

	scoped1, _, err := DeriveRegistryAddress(types.RegistryScopeProposal, proposer, p1, pid)
	require.NoError(t, err)
	scoped2, _, err := DeriveRegistryAddress(types.RegistryScopeProposal, proposer, p2, pid)
	require.NoError(t, err)
	require.NotEqual(t, scoped1, scoped2)
	require.NotEqual(t, shared1, scoped1)
}

func TestSeedLimits(t *testing.T) {
	pid := testProgramID()

	_, _, err := FindProgramAddress([][]byte{bytes.Repeat([]byte{1}, MaxSeedLength+1)}, pid)
	require.ErrorIs(t, err, ErrMaxSeedLengthExceeded)

	seeds := make([][]byte, MaxSeeds)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}
	_, _, err = FindProgramAddress(seeds, pid)
	require.ErrorIs(t, err, ErrMaxSeedLengthExceeded)

	_, _, err = FindProgramAddress(seeds[:MaxSeeds-1], pid)
	require.NoError(t, err)

	_, _, err = FindProgramAddress([][]byte{bytes.Repeat([]byte{1}, MaxSeedLength)}, pid)
	require.NoError(t, err)
}

func TestCreateProgramAddressRejectsOnCurve(t *testing.T) {
	pid := testProgramID()
	// Walk bumps until one produces an on-curve hash; about half do.
	for b := 255; b >= 0; b-- {
		seeds := [][]byte{[]byte("curve"), {uint8(b)}}
		_, err := CreateProgramAddress(seeds, pid)
		if err != nil {
			require.ErrorIs(t, err, ErrInvalidSeeds)
			return
		}
	}
	t.Fatal("expected at least one on-curve candidate")
}

func TestIsOnCurve(t *testing.T) {
	pk := ed25519.GenPrivKey().PubKey()
	require.True(t, IsOnCurve(pk.Bytes()))
	require.False(t, IsOnCurve([]byte{1, 2, 3}))
}
