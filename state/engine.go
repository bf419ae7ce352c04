package state

import (
	"errors"
	"fmt"

	"github.com/calehh/vote-app/crypto"
	"github.com/calehh/vote-app/tx"
	"github.com/calehh/vote-app/types"
)

// Verify checks the signer nonce and signature of t against this state.
// allowNonceGap accepts nonces ahead of the account, for the mempool.
func (s *State) Verify(t *tx.VoteTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(t.Signer)
	if err != nil {
		return succ, err
	}
	if !(a.Nonce == t.Nonce || (allowNonceGap && a.Nonce < t.Nonce)) {
		err = fmt.Errorf("%w: account %v expects %v got %v", ErrTxNonceInvalid, t.Signer, a.Nonce, t.Nonce)
		return
	}
	dat, err := t.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, t.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

// storageCharge prices a record by its encoded size.
func (s *State) storageCharge(kind RecordKind, record any) (uint64, error) {
	dat, err := encodeRecord(kind, record)
	if err != nil {
		return 0, err
	}
	lpb := s.Params().LamportsPerByte
	size := uint64(len(dat))
	if lpb != 0 && size > ^uint64(0)/lpb {
		return 0, ErrStorageChargeOverflows
	}
	return lpb * size, nil
}

func (s *State) checkFunds(a *Account, amount uint64) error {
	if a.Balance < amount {
		return fmt.Errorf("%w: %v has %v needs %v", ErrInsufficientFunds, a.Address, a.Balance, amount)
	}
	return nil
}

// commitSigner debits the signer and advances its nonce.
func (s *State) commitSigner(a *Account, charge uint64) {
	n := a.Clone()
	n.Balance -= charge
	n.Nonce += 1
	s.putAccount(n)
}

func (s *State) CreateProposal(t *tx.CreateProposalTx, signer types.Address, checkOnly bool) (event *types.EventProposalCreated, err error) {
	s.logger.Debug("apply create proposal", "owner", signer, "id", t.Id, "height", s.header.Height)
	params := s.Params()
	if len(t.Seed) == 0 {
		return nil, ErrEmptySeed
	}
	if len(t.Seed) > crypto.MaxSeedLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrSeedTooLong, len(t.Seed))
	}
	if len(t.Description) > int(params.MaxDescriptionLength) {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrDescriptionTooLong, len(t.Description), params.MaxDescriptionLength)
	}
	loc, bump, err := crypto.DeriveProposalAddress(t.Seed, signer, params.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if loc != t.Proposal {
		return nil, fmt.Errorf("%w: expected %v got %v", ErrProposalLocation, loc, t.Proposal)
	}
	kind, err := s.recordKind(loc)
	if err != nil {
		return nil, err
	}
	if kind != RecordKindNone {
		return nil, fmt.Errorf("%w at %v", ErrProposalExists, loc)
	}
	proposal := &types.Proposal{
		Id:          t.Id,
		Owner:       signer,
		Seed:        t.Seed,
		Description: t.Description,
		Bump:        bump,
		Ballots:     []types.Ballot{},
	}
	charge, err := s.storageCharge(RecordKindProposal, proposal)
	if err != nil {
		return nil, err
	}
	a, err := s.GetAccount(signer)
	if err != nil {
		return nil, err
	}
	if err = s.checkFunds(a, charge); err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}
	proposal.Deposit = charge
	s.putProposal(loc, proposal)
	s.commitSigner(a, charge)
	event = &types.EventProposalCreated{
		Proposal:    loc,
		Owner:       signer,
		Id:          proposal.Id,
		Description: proposal.Description,
		Deposit:     charge,
	}
	return
}

// uniqueVoters drops repeated identities, keeping first occurrences in order.
func uniqueVoters(voters []types.Address) []types.Address {
	seen := make(map[types.Address]struct{}, len(voters))
	res := make([]types.Address, 0, len(voters))
	for _, v := range voters {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		res = append(res, v)
	}
	return res
}

func (s *State) RegisterVoters(t *tx.RegisterVotersTx, signer types.Address, checkOnly bool) (event *types.EventVotersRegistered, err error) {
	s.logger.Debug("apply register voters", "proposer", signer, "proposal", t.Proposal, "voters", len(t.Voters), "height", s.header.Height)
	params := s.Params()
	voters := uniqueVoters(t.Voters)
	if len(voters) == 0 {
		return nil, ErrEmptyVoters
	}
	if len(voters) > int(params.MaxVoters) {
		return nil, fmt.Errorf("%w: %d, max %d", ErrTooManyVoters, len(voters), params.MaxVoters)
	}
	proposal, err := s.loadProposal(t.Proposal)
	if err != nil {
		return nil, err
	}
	if proposal.Owner != signer {
		return nil, fmt.Errorf("%w: %v", ErrNotProposalOwner, t.Proposal)
	}
	if proposal.Id != t.ProposalId {
		return nil, fmt.Errorf("%w: proposal has %v got %v", ErrProposalIdMismatch, proposal.Id, t.ProposalId)
	}
	loc, bump, err := crypto.DeriveRegistryAddress(params.RegistryScope, signer, t.Proposal, params.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if loc != t.Registry {
		return nil, fmt.Errorf("%w: expected %v got %v", ErrRegistryLocation, loc, t.Registry)
	}
	kind, err := s.recordKind(loc)
	if err != nil {
		return nil, err
	}
	if kind != RecordKindNone {
		return nil, fmt.Errorf("%w at %v", ErrRegistryExists, loc)
	}
	registry := &types.VoterRegistry{
		ProposalId: t.ProposalId,
		Proposal:   t.Proposal,
		Proposer:   signer,
		Voters:     voters,
		Bump:       bump,
	}
	charge, err := s.storageCharge(RecordKindVoterRegistry, registry)
	if err != nil {
		return nil, err
	}
	a, err := s.GetAccount(signer)
	if err != nil {
		return nil, err
	}
	if err = s.checkFunds(a, charge); err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}
	registry.Deposit = charge
	s.putVoterRegistry(loc, registry)
	s.commitSigner(a, charge)
	event = &types.EventVotersRegistered{
		Registry:   loc,
		Proposal:   t.Proposal,
		Proposer:   signer,
		ProposalId: t.ProposalId,
		Voters:     voters,
	}
	return
}

// governingRegistry returns the registry location that controls voting on
// proposal stored at loc.
func (s *State) governingRegistry(loc types.Address, proposal *types.Proposal) (types.Address, error) {
	params := s.Params()
	reg, _, err := crypto.DeriveRegistryAddress(params.RegistryScope, proposal.Owner, loc, params.ProgramID)
	return reg, err
}

// CastVote tallies the vote of signer. Votes from identities outside the
// registry and repeated votes succeed without touching the proposal; in that
// case the returned event is nil.
func (s *State) CastVote(t *tx.CastVoteTx, signer types.Address, checkOnly bool) (event *types.EventVoteCast, err error) {
	s.logger.Debug("apply cast vote", "voter", signer, "proposal", t.Proposal, "vote", t.Vote, "height", s.header.Height)
	vote := types.Vote(t.Vote)
	if !vote.Valid() {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVoteFlag, t.Vote)
	}
	proposal, err := s.loadProposal(t.Proposal)
	if err != nil {
		return nil, err
	}
	registry, err := s.loadVoterRegistry(t.Registry)
	if err != nil {
		return nil, err
	}
	governing, err := s.governingRegistry(t.Proposal, proposal)
	if err != nil {
		return nil, err
	}
	if governing != t.Registry || registry.Proposer != proposal.Owner {
		return nil, fmt.Errorf("%w: %v for %v", ErrRegistryNotGoverning, t.Registry, t.Proposal)
	}
	a, err := s.GetAccount(signer)
	if err != nil {
		return nil, err
	}
	counted := registry.Contains(signer)
	if counted {
		if _, voted := proposal.Ballot(signer); voted {
			counted = false
		}
	}
	if checkOnly {
		return nil, nil
	}
	s.commitSigner(a, 0)
	if !counted {
		s.logger.Debug("vote not counted", "voter", signer, "proposal", t.Proposal)
		return nil, nil
	}

	n := proposal.Clone()
	n.Ballots = append(n.Ballots, types.Ballot{Voter: signer, Vote: vote})
	if vote == types.VoteUp {
		n.UpVotes += 1
	} else {
		n.DownVotes += 1
	}
	n.TotalVotes += 1
	s.putProposal(t.Proposal, n)

	event = &types.EventVoteCast{
		Proposal:   t.Proposal,
		Voter:      signer,
		Vote:       vote,
		UpVotes:    n.UpVotes,
		DownVotes:  n.DownVotes,
		TotalVotes: n.TotalVotes,
	}
	return
}

// VoteStatus reports whether voter may vote on, or has voted on, the
// proposal stored at loc.
func (s *State) VoteStatus(loc types.Address, voter types.Address) (*types.BallotStatus, error) {
	proposal, err := s.loadProposal(loc)
	if err != nil {
		return nil, err
	}
	status := &types.BallotStatus{
		Proposal: loc,
		Voter:    voter,
		Status:   types.VoteStatusNotEligible,
	}
	if b, ok := proposal.Ballot(voter); ok {
		vote := b.Vote
		status.Status = types.VoteStatusVoted
		status.Vote = &vote
		return status, nil
	}
	reg, err := s.governingRegistry(loc, proposal)
	if err != nil {
		return nil, err
	}
	registry, err := s.loadVoterRegistry(reg)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return status, nil
		}
		return nil, err
	}
	if registry.Contains(voter) {
		status.Status = types.VoteStatusEligible
	}
	return status, nil
}
