package state

import (
	"sync"
	"testing"

	"github.com/calehh/vote-app/tx"
	"github.com/calehh/vote-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/require"
)

func TestCommitAndReload(t *testing.T) {
	owner := newIdentity(t)
	voter := newIdentity(t)
	db, mem := newTestDB(t)

	st := db.NewState()
	st.SetChainId(testChainId)
	st.SetHeight(1)
	params := types.DefaultParams()
	params.MaxVoters = 9
	require.NoError(t, st.SetParams(params))
	require.NoError(t, st.Credit(owner.addr, types.DefaultGenesisBalance))
	proposal, registry := setupVoting(t, st, owner, voter)
	_, err := st.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: proposal, Registry: registry}, voter.addr, false)
	require.NoError(t, err)

	working, err := st.Update()
	require.NoError(t, err)
	committed, err := db.SetState(st)
	require.NoError(t, err)
	require.Equal(t, working, committed)
	require.Equal(t, committed, db.State().Hash())

	p, height, err := db.GetProposal(proposal)
	require.NoError(t, err)
	require.Equal(t, uint64(1), height)
	require.Equal(t, uint64(1), p.UpVotes)

	reopened, err := NewStateDBWithDB(mem, cmtlog.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, committed, reopened.State().Hash())
	require.Equal(t, testChainId, reopened.Header().ChainId)
	require.Equal(t, uint64(9), reopened.Params().MaxVoters)

	p, _, err = reopened.GetProposal(proposal)
	require.NoError(t, err)
	require.Equal(t, owner.addr, p.Owner)
	require.Equal(t, []types.Ballot{{Voter: voter.addr, Vote: types.VoteUp}}, p.Ballots)

	reg, _, err := reopened.GetVoterRegistry(registry)
	require.NoError(t, err)
	require.Equal(t, []types.Address{voter.addr}, reg.Voters)

	acnt, _, err := reopened.GetAccount(voter.addr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), acnt.Nonce)

	status, _, err := reopened.GetVoteStatus(proposal, voter.addr)
	require.NoError(t, err)
	require.Equal(t, types.VoteStatusVoted, status.Status)

	locs, proposals, _, err := reopened.GetProposals()
	require.NoError(t, err)
	require.Equal(t, []types.Address{proposal}, locs)
	require.Len(t, proposals, 1)
}

func TestUpdateIsDeterministic(t *testing.T) {
	owner := newIdentity(t)
	voters := []identity{newIdentity(t), newIdentity(t), newIdentity(t)}

	run := func() []byte {
		db, _ := newTestDB(t)
		st := db.NewState()
		st.SetChainId(testChainId)
		require.NoError(t, st.SetParams(types.DefaultParams()))
		require.NoError(t, st.Credit(owner.addr, types.DefaultGenesisBalance))
		proposal, registry := setupVoting(t, st, owner, voters...)
		for _, v := range voters {
			_, err := st.CastVote(&tx.CastVoteTx{Vote: 0, Proposal: proposal, Registry: registry}, v.addr, false)
			require.NoError(t, err)
		}
		h, err := st.Update()
		require.NoError(t, err)
		return h[:]
	}
	require.Equal(t, run(), run())
}

func TestCloneIsIndependent(t *testing.T) {
	owner := newIdentity(t)
	voter := newIdentity(t)
	st := newTestState(t, types.DefaultParams(), owner)
	proposal, registry := setupVoting(t, st, owner, voter)

	n := st.Clone()
	_, err := n.CastVote(&tx.CastVoteTx{Vote: 1, Proposal: proposal, Registry: registry}, voter.addr, false)
	require.NoError(t, err)
	requireTallies(t, n, proposal, 1, 0, 1)
	requireTallies(t, st, proposal, 0, 0, 0)

	a, err := st.GetAccount(voter.addr)
	require.NoError(t, err)
	require.Zero(t, a.Nonce)
}

// Queries filling the committed caches may run alongside each other.
func TestConcurrentQueries(t *testing.T) {
	owner := newIdentity(t)
	voter := newIdentity(t)
	db, mem := newTestDB(t)

	st := db.NewState()
	st.SetChainId(testChainId)
	st.SetHeight(1)
	require.NoError(t, st.SetParams(types.DefaultParams()))
	require.NoError(t, st.Credit(owner.addr, types.DefaultGenesisBalance))
	proposal, registry := setupVoting(t, st, owner, voter)
	_, err := st.Update()
	require.NoError(t, err)
	_, err = db.SetState(st)
	require.NoError(t, err)

	// a fresh handle starts with empty caches
	db, err = NewStateDBWithDB(mem, cmtlog.NewNopLogger())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := db.GetAccount(voter.addr); err != nil {
				errs <- err
			}
			if _, _, err := db.GetProposal(proposal); err != nil {
				errs <- err
			}
			if _, _, err := db.GetVoterRegistry(registry); err != nil {
				errs <- err
			}
			if _, _, err := db.GetVoteStatus(proposal, voter.addr); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
