package state

import (
	"testing"

	"github.com/calehh/vote-app/crypto"
	"github.com/calehh/vote-app/tx"
	"github.com/calehh/vote-app/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	dbm "github.com/cosmos/iavl/db"
	"github.com/stretchr/testify/require"
)

const (
	testSeed        = "thevotingseed"
	testDescription = "We should increase gas fees on Solana"
	testChainId     = "vote-test"
)

type identity struct {
	priv ed25519.PrivKey
	addr types.Address
}

func newIdentity(t *testing.T) identity {
	priv := ed25519.GenPrivKey()
	addr, err := types.PubKeyToAddress(priv.PubKey().(ed25519.PubKey))
	require.NoError(t, err)
	return identity{priv: priv, addr: addr}
}

func newTestDB(t *testing.T) (*StateDB, dbm.DB) {
	mem := dbm.NewMemDB()
	db, err := NewStateDBWithDB(mem, cmtlog.NewNopLogger())
	require.NoError(t, err)
	return db, mem
}

func newTestState(t *testing.T, params types.Params, funded ...identity) *State {
	db, _ := newTestDB(t)
	st := db.NewState()
	st.SetChainId(testChainId)
	require.NoError(t, st.SetParams(params))
	for _, id := range funded {
		require.NoError(t, st.Credit(id.addr, types.DefaultGenesisBalance))
	}
	return st
}

func createProposalTx(t *testing.T, st *State, owner identity, seed string, id uint64) *tx.CreateProposalTx {
	loc, _, err := crypto.DeriveProposalAddress(seed, owner.addr, st.Params().ProgramID)
	require.NoError(t, err)
	return &tx.CreateProposalTx{Seed: seed, Description: testDescription, Id: id, Proposal: loc}
}

func registerVotersTx(t *testing.T, st *State, proposer identity, proposal types.Address, id uint64, voters ...identity) *tx.RegisterVotersTx {
	params := st.Params()
	loc, _, err := crypto.DeriveRegistryAddress(params.RegistryScope, proposer.addr, proposal, params.ProgramID)
	require.NoError(t, err)
	addrs := make([]types.Address, len(voters))
	for i := range voters {
		addrs[i] = voters[i].addr
	}
	return &tx.RegisterVotersTx{ProposalId: id, Voters: addrs, Proposal: proposal, Registry: loc}
}

func requireTallies(t *testing.T, st *State, loc types.Address, up, down, total uint64) {
	p, err := st.Proposal(loc)
	require.NoError(t, err)
	require.Equal(t, up, p.UpVotes)
	require.Equal(t, down, p.DownVotes)
	require.Equal(t, total, p.TotalVotes)
	require.Equal(t, p.UpVotes+p.DownVotes, p.TotalVotes)
}

// setupVoting creates a proposal of owner and registers voters for it.
func setupVoting(t *testing.T, st *State, owner identity, voters ...identity) (proposal, registry types.Address) {
	ctx := createProposalTx(t, st, owner, testSeed, 0)
	_, err := st.CreateProposal(ctx, owner.addr, false)
	require.NoError(t, err)
	rtx := registerVotersTx(t, st, owner, ctx.Proposal, 0, voters...)
	_, err = st.RegisterVoters(rtx, owner.addr, false)
	require.NoError(t, err)
	return ctx.Proposal, rtx.Registry
}

func TestVotingScenario(t *testing.T) {
	owner := newIdentity(t)
	voter1, voter2, voter3 := newIdentity(t), newIdentity(t), newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner)

	// create the proposal
	ctx := createProposalTx(t, st, owner, testSeed, 0)
	event, err := st.CreateProposal(ctx, owner.addr, false)
	require.NoError(t, err)
	require.NotNil(t, event)
	p, err := st.Proposal(ctx.Proposal)
	require.NoError(t, err)
	require.Equal(t, uint64(0), p.Id)
	require.Equal(t, testDescription, p.Description)
	require.Equal(t, owner.addr, p.Owner)
	requireTallies(t, st, ctx.Proposal, 0, 0, 0)

	// register voter1 and voter2
	rtx := registerVotersTx(t, st, owner, ctx.Proposal, 0, voter1, voter2)
	revent, err := st.RegisterVoters(rtx, owner.addr, false)
	require.NoError(t, err)
	require.Equal(t, []types.Address{voter1.addr, voter2.addr}, revent.Voters)
	reg, err := st.VoterRegistry(rtx.Registry)
	require.NoError(t, err)
	require.Equal(t, []types.Address{voter1.addr, voter2.addr}, reg.Voters)
	require.Equal(t, uint64(0), reg.ProposalId)

	vote := func(voter identity, flag uint8) *types.EventVoteCast {
		ev, err := st.CastVote(&tx.CastVoteTx{Vote: flag, Proposal: ctx.Proposal, Registry: rtx.Registry}, voter.addr, false)
		require.NoError(t, err)
		return ev
	}

	// voter1 votes down
	require.NotNil(t, vote(voter1, 0))
	requireTallies(t, st, ctx.Proposal, 0, 1, 1)

	// voter3 is not registered, nothing changes
	require.Nil(t, vote(voter3, 1))
	requireTallies(t, st, ctx.Proposal, 0, 1, 1)

	// voter2 votes up
	ev := vote(voter2, 1)
	require.NotNil(t, ev)
	require.Equal(t, uint64(2), ev.TotalVotes)
	requireTallies(t, st, ctx.Proposal, 1, 1, 2)

	// voter1 votes again, nothing changes
	require.Nil(t, vote(voter1, 0))
	requireTallies(t, st, ctx.Proposal, 1, 1, 2)
}

func TestCreateProposalTwice(t *testing.T) {
	owner := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner)

	ctx := createProposalTx(t, st, owner, testSeed, 0)
	_, err := st.CreateProposal(ctx, owner.addr, false)
	require.NoError(t, err)
	before, err := st.Proposal(ctx.Proposal)
	require.NoError(t, err)
	acnt, err := st.GetAccount(owner.addr)
	require.NoError(t, err)
	balance := acnt.Balance

	ctx2 := createProposalTx(t, st, owner, testSeed, 7)
	_, err = st.CreateProposal(ctx2, owner.addr, false)
	require.ErrorIs(t, err, ErrAlreadyExists)
	require.Equal(t, CodeAlreadyExists, ErrorCode(err))

	after, err := st.Proposal(ctx.Proposal)
	require.NoError(t, err)
	require.Equal(t, before, after)
	acnt, err = st.GetAccount(owner.addr)
	require.NoError(t, err)
	require.Equal(t, balance, acnt.Balance)
}

func TestCreateProposalInvalidInput(t *testing.T) {
	owner := newIdentity(t)
	other := newIdentity(t)
	params := types.DefaultParams()
	st := newTestState(t, params, owner)

	ctx := createProposalTx(t, st, owner, testSeed, 0)
	ctx.Seed = ""
	_, err := st.CreateProposal(ctx, owner.addr, false)
	require.ErrorIs(t, err, ErrEmptySeed)

	ctx = createProposalTx(t, st, owner, testSeed, 0)
	ctx.Seed = "this seed is far longer than thirty two bytes"
	_, err = st.CreateProposal(ctx, owner.addr, false)
	require.ErrorIs(t, err, ErrInvalidInput)

	ctx = createProposalTx(t, st, owner, testSeed, 0)
	ctx.Description = string(make([]byte, params.MaxDescriptionLength+1))
	_, err = st.CreateProposal(ctx, owner.addr, false)
	require.ErrorIs(t, err, ErrDescriptionTooLong)

	// a location derived for somebody else
	ctx = createProposalTx(t, st, other, testSeed, 0)
	_, err = st.CreateProposal(ctx, owner.addr, false)
	require.ErrorIs(t, err, ErrProposalLocation)
	require.Equal(t, CodeInvalidInput, ErrorCode(err))

	_, err = st.Proposal(ctx.Proposal)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProposalDescriptionBoundary(t *testing.T) {
	owner := newIdentity(t)
	params := types.DefaultParams()
	st := newTestState(t, params, owner)

	ctx := createProposalTx(t, st, owner, testSeed, 0)
	ctx.Description = string(make([]byte, params.MaxDescriptionLength))
	_, err := st.CreateProposal(ctx, owner.addr, false)
	require.NoError(t, err)
}

func TestStorageCharge(t *testing.T) {
	owner := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner)

	ctx := createProposalTx(t, st, owner, testSeed, 0)
	event, err := st.CreateProposal(ctx, owner.addr, false)
	require.NoError(t, err)
	require.NotZero(t, event.Deposit)

	p, err := st.Proposal(ctx.Proposal)
	require.NoError(t, err)
	require.Equal(t, event.Deposit, p.Deposit)

	acnt, err := st.GetAccount(owner.addr)
	require.NoError(t, err)
	require.Equal(t, uint64(types.DefaultGenesisBalance)-event.Deposit, acnt.Balance)
	require.Equal(t, uint64(1), acnt.Nonce)

	poor := newIdentity(t)
	pctx := createProposalTx(t, st, poor, testSeed, 0)
	_, err = st.CreateProposal(pctx, poor.addr, false)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, CodeInsufficientFunds, ErrorCode(err))

	params := types.DefaultParams()
	params.LamportsPerByte = 0
	free := newTestState(t, params)
	fctx := createProposalTx(t, free, poor, testSeed, 0)
	event, err = free.CreateProposal(fctx, poor.addr, false)
	require.NoError(t, err)
	require.Zero(t, event.Deposit)
}

func TestCheckOnlyLeavesStateUntouched(t *testing.T) {
	owner := newIdentity(t)
	voter := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner)

	ctx := createProposalTx(t, st, owner, testSeed, 0)
	event, err := st.CreateProposal(ctx, owner.addr, true)
	require.NoError(t, err)
	require.Nil(t, event)
	_, err = st.Proposal(ctx.Proposal)
	require.ErrorIs(t, err, ErrNotFound)

	proposal, registry := setupVoting(t, st, owner, voter)
	ev, err := st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: proposal, Registry: registry}, voter.addr, true)
	require.NoError(t, err)
	require.Nil(t, ev)
	requireTallies(t, st, proposal, 0, 0, 0)
	acnt, err := st.GetAccount(voter.addr)
	require.NoError(t, err)
	require.Zero(t, acnt.Nonce)
}

func TestRegisterVoters(t *testing.T) {
	owner := newIdentity(t)
	voter1, voter2 := newIdentity(t), newIdentity(t)

	t.Run("duplicates collapse", func(t *testing.T) {
		st := newTestState(t, types.DefaultParams(), owner)
		ctx := createProposalTx(t, st, owner, testSeed, 0)
		_, err := st.CreateProposal(ctx, owner.addr, false)
		require.NoError(t, err)
		rtx := registerVotersTx(t, st, owner, ctx.Proposal, 0, voter1, voter2, voter1)
		_, err = st.RegisterVoters(rtx, owner.addr, false)
		require.NoError(t, err)
		reg, err := st.VoterRegistry(rtx.Registry)
		require.NoError(t, err)
		require.Equal(t, []types.Address{voter1.addr, voter2.addr}, reg.Voters)

		_, err = st.RegisterVoters(rtx, owner.addr, false)
		require.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("list size", func(t *testing.T) {
		params := types.DefaultParams()
		params.MaxVoters = 2
		st := newTestState(t, params, owner)
		ctx := createProposalTx(t, st, owner, testSeed, 0)
		_, err := st.CreateProposal(ctx, owner.addr, false)
		require.NoError(t, err)

		rtx := registerVotersTx(t, st, owner, ctx.Proposal, 0)
		_, err = st.RegisterVoters(rtx, owner.addr, false)
		require.ErrorIs(t, err, ErrEmptyVoters)

		rtx = registerVotersTx(t, st, owner, ctx.Proposal, 0, voter1, voter2, newIdentity(t))
		_, err = st.RegisterVoters(rtx, owner.addr, false)
		require.ErrorIs(t, err, ErrTooManyVoters)
		require.Equal(t, CodeInvalidInput, ErrorCode(err))
	})

	t.Run("ownership", func(t *testing.T) {
		intruder := newIdentity(t)
		st := newTestState(t, types.DefaultParams(), owner, intruder)
		ctx := createProposalTx(t, st, owner, testSeed, 3)
		_, err := st.CreateProposal(ctx, owner.addr, false)
		require.NoError(t, err)

		rtx := registerVotersTx(t, st, intruder, ctx.Proposal, 3, voter1)
		_, err = st.RegisterVoters(rtx, intruder.addr, false)
		require.ErrorIs(t, err, ErrNotProposalOwner)
		require.Equal(t, CodeUnauthorized, ErrorCode(err))

		rtx = registerVotersTx(t, st, owner, ctx.Proposal, 4, voter1)
		_, err = st.RegisterVoters(rtx, owner.addr, false)
		require.ErrorIs(t, err, ErrProposalIdMismatch)

		rtx = registerVotersTx(t, st, owner, ctx.Proposal, 3, voter1)
		rtx.Registry = voter1.addr
		_, err = st.RegisterVoters(rtx, owner.addr, false)
		require.ErrorIs(t, err, ErrRegistryLocation)
	})

	t.Run("missing proposal", func(t *testing.T) {
		st := newTestState(t, types.DefaultParams(), owner)
		ctx := createProposalTx(t, st, owner, testSeed, 0)
		rtx := registerVotersTx(t, st, owner, ctx.Proposal, 0, voter1)
		_, err := st.RegisterVoters(rtx, owner.addr, false)
		require.ErrorIs(t, err, ErrNotFound)
		require.Equal(t, CodeNotFound, ErrorCode(err))
	})
}

func TestCastVoteFlagValidation(t *testing.T) {
	owner := newIdentity(t)
	voter := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner)
	proposal, registry := setupVoting(t, st, owner, voter)

	for _, flag := range []uint8{2, 3, 255} {
		_, err := st.CastVote(&tx.CastVoteTx{Vote: flag, Proposal: proposal, Registry: registry}, voter.addr, false)
		require.ErrorIs(t, err, ErrInvalidVoteFlag)
		require.Equal(t, CodeInvalidInput, ErrorCode(err))
		requireTallies(t, st, proposal, 0, 0, 0)
	}

	status, err := st.VoteStatus(proposal, voter.addr)
	require.NoError(t, err)
	require.Equal(t, types.VoteStatusEligible, status.Status)
}

func TestCastVoteNonMemberNeverCounts(t *testing.T) {
	owner := newIdentity(t)
	voter := newIdentity(t)
	outsider := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner)
	proposal, registry := setupVoting(t, st, owner, voter)

	for i := 0; i < 5; i++ {
		ev, err := st.CastVote(&tx.CastVoteTx{Vote: uint8(i % 2), Proposal: proposal, Registry: registry}, outsider.addr, false)
		require.NoError(t, err)
		require.Nil(t, ev)
		requireTallies(t, st, proposal, 0, 0, 0)
	}
	acnt, err := st.GetAccount(outsider.addr)
	require.NoError(t, err)
	require.Equal(t, uint64(5), acnt.Nonce)

	status, err := st.VoteStatus(proposal, outsider.addr)
	require.NoError(t, err)
	require.Equal(t, types.VoteStatusNotEligible, status.Status)
	require.Nil(t, status.Vote)
}

func TestCastVoteAtMostOnce(t *testing.T) {
	owner := newIdentity(t)
	voter := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner)
	proposal, registry := setupVoting(t, st, owner, voter)

	ev, err := st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: proposal, Registry: registry}, voter.addr, false)
	require.NoError(t, err)
	require.NotNil(t, ev)
	for _, flag := range []uint8{1, 0, 1} {
		ev, err = st.CastVote(&tx.CastVoteTx{Vote: flag, Proposal: proposal, Registry: registry}, voter.addr, false)
		require.NoError(t, err)
		require.Nil(t, ev)
		requireTallies(t, st, proposal, 1, 0, 1)
	}

	status, err := st.VoteStatus(proposal, voter.addr)
	require.NoError(t, err)
	require.Equal(t, types.VoteStatusVoted, status.Status)
	require.NotNil(t, status.Vote)
	require.Equal(t, types.VoteUp, *status.Vote)
}

func TestCastVoteMissingRecords(t *testing.T) {
	owner := newIdentity(t)
	voter := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner)
	proposal, registry := setupVoting(t, st, owner, voter)

	_, err := st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: newIdentity(t).addr, Registry: registry}, voter.addr, false)
	require.ErrorIs(t, err, ErrProposalNotFound)

	_, err = st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: proposal, Registry: newIdentity(t).addr}, voter.addr, false)
	require.ErrorIs(t, err, ErrRegistryNotFound)

	// records swapped
	_, err = st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: registry, Registry: proposal}, voter.addr, false)
	require.ErrorIs(t, err, ErrRecordKindMismatch)
	require.Equal(t, CodeInvalidInput, ErrorCode(err))
}

func TestCastVoteRejectsForeignRegistry(t *testing.T) {
	owner := newIdentity(t)
	attacker := newIdentity(t)
	voter := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner, attacker)
	proposal, _ := setupVoting(t, st, owner, voter)

	// the attacker builds their own proposal and a registry listing themself
	actx := createProposalTx(t, st, attacker, "attack", 0)
	_, err := st.CreateProposal(actx, attacker.addr, false)
	require.NoError(t, err)
	artx := registerVotersTx(t, st, attacker, actx.Proposal, 0, attacker)
	_, err = st.RegisterVoters(artx, attacker.addr, false)
	require.NoError(t, err)

	_, err = st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: proposal, Registry: artx.Registry}, attacker.addr, false)
	require.ErrorIs(t, err, ErrRegistryNotGoverning)
	requireTallies(t, st, proposal, 0, 0, 0)
}

func TestSharedRegistryAcrossProposals(t *testing.T) {
	owner := newIdentity(t)
	voter := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner)
	first, registry := setupVoting(t, st, owner, voter)

	ctx := createProposalTx(t, st, owner, "second", 1)
	_, err := st.CreateProposal(ctx, owner.addr, false)
	require.NoError(t, err)

	// one registry per proposer
	rtx := registerVotersTx(t, st, owner, ctx.Proposal, 1, voter)
	require.Equal(t, registry, rtx.Registry)
	_, err = st.RegisterVoters(rtx, owner.addr, false)
	require.ErrorIs(t, err, ErrRegistryExists)

	// voting state is kept per proposal
	_, err = st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: first, Registry: registry}, voter.addr, false)
	require.NoError(t, err)
	ev, err := st.CastVote(&tx.CastVoteTx{Vote: 0, Proposal: ctx.Proposal, Registry: registry}, voter.addr, false)
	require.NoError(t, err)
	require.NotNil(t, ev)
	requireTallies(t, st, first, 1, 0, 1)
	requireTallies(t, st, ctx.Proposal, 0, 1, 1)
}

func TestPerProposalRegistryScope(t *testing.T) {
	owner := newIdentity(t)
	voter1, voter2 := newIdentity(t), newIdentity(t)
	params := types.DefaultParams()
	params.RegistryScope = types.RegistryScopeProposal
	st := newTestState(t, params, owner)
	first, firstReg := setupVoting(t, st, owner, voter1)

	ctx := createProposalTx(t, st, owner, "second", 1)
	_, err := st.CreateProposal(ctx, owner.addr, false)
	require.NoError(t, err)
	rtx := registerVotersTx(t, st, owner, ctx.Proposal, 1, voter2)
	require.NotEqual(t, firstReg, rtx.Registry)
	_, err = st.RegisterVoters(rtx, owner.addr, false)
	require.NoError(t, err)

	// a registry of another proposal does not govern this one
	_, err = st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: first, Registry: rtx.Registry}, voter2.addr, false)
	require.ErrorIs(t, err, ErrRegistryNotGoverning)

	ev, err := st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: ctx.Proposal, Registry: rtx.Registry}, voter2.addr, false)
	require.NoError(t, err)
	require.NotNil(t, ev)
	ev, err = st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: ctx.Proposal, Registry: rtx.Registry}, voter1.addr, false)
	require.NoError(t, err)
	require.Nil(t, ev)
	requireTallies(t, st, ctx.Proposal, 1, 0, 1)
	requireTallies(t, st, first, 0, 0, 0)
}

func TestTallyInvariantUnderRandomSequence(t *testing.T) {
	owner := newIdentity(t)
	voters := make([]identity, 8)
	for i := range voters {
		voters[i] = newIdentity(t)
	}
	st := newTestState(t, types.DefaultParams(), owner)
	proposal, registry := setupVoting(t, st, owner, voters[:5]...)

	var up, down uint64
	voted := make(map[types.Address]bool)
	for round := 0; round < 3; round++ {
		for i, v := range voters {
			flag := uint8((i + round) % 2)
			ev, err := st.CastVote(&tx.CastVoteTx{Vote: flag, Proposal: proposal, Registry: registry}, v.addr, false)
			require.NoError(t, err)
			if i < 5 && !voted[v.addr] {
				require.NotNil(t, ev)
				voted[v.addr] = true
				if flag == 1 {
					up++
				} else {
					down++
				}
			} else {
				require.Nil(t, ev)
			}
			requireTallies(t, st, proposal, up, down, up+down)
		}
	}
	require.Equal(t, uint64(5), up+down)
}

func TestVerify(t *testing.T) {
	signer := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), signer)

	vtx := &tx.VoteTx{
		Type:   tx.TxTypeCastVote,
		Nonce:  0,
		Signer: signer.addr,
		Tx:     &tx.CastVoteTx{Vote: 1},
	}
	dat, err := vtx.SigData([]byte(testChainId))
	require.NoError(t, err)
	sig, err := signer.priv.Sign(dat)
	require.NoError(t, err)
	vtx.Sig = [][]byte{sig}

	succ, err := st.Verify(vtx, false)
	require.NoError(t, err)
	require.True(t, succ)

	vtx.Nonce = 1
	_, err = st.Verify(vtx, false)
	require.ErrorIs(t, err, ErrTxNonceInvalid)
	require.Equal(t, CodeUnauthorized, ErrorCode(err))

	// ahead of the account only passes with a gap allowed, and the
	// signature no longer covers the changed nonce
	_, err = st.Verify(vtx, true)
	require.ErrorIs(t, err, ErrTxSigInvalid)

	vtx.Nonce = 0
	vtx.Signer = newIdentity(t).addr
	_, err = st.Verify(vtx, false)
	require.ErrorIs(t, err, ErrTxSigInvalid)
}
