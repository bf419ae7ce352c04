package types

type Vote uint8

const (
	VoteDown Vote = 0
	VoteUp   Vote = 1
)

func (v Vote) Valid() bool {
	return v == VoteDown || v == VoteUp
}

func (v Vote) String() string {
	switch v {
	case VoteDown:
		return "down"
	case VoteUp:
		return "up"
	}
	return "invalid"
}

type Ballot struct {
	Voter Address `json:"voter"`
	Vote  Vote    `json:"vote"`
}

type Proposal struct {
	Id          uint64   `json:"id"`
	Owner       Address  `json:"owner"`
	Seed        string   `json:"seed"`
	Description string   `json:"description"`
	UpVotes     uint64   `json:"upVotes"`
	DownVotes   uint64   `json:"downVotes"`
	TotalVotes  uint64   `json:"totalVotes"`
	Bump        uint8    `json:"bump"`
	Deposit     uint64   `json:"deposit"`
	Ballots     []Ballot `json:"ballots"`
}

func (p *Proposal) Clone() *Proposal {
	n := *p
	n.Ballots = make([]Ballot, len(p.Ballots))
	copy(n.Ballots, p.Ballots)
	return &n
}

// Ballot returns the recorded vote of voter, if any.
func (p *Proposal) Ballot(voter Address) (Ballot, bool) {
	for _, b := range p.Ballots {
		if b.Voter == voter {
			return b, true
		}
	}
	return Ballot{}, false
}

type VoterRegistry struct {
	ProposalId uint64    `json:"proposalId"`
	Proposal   Address   `json:"proposal"`
	Proposer   Address   `json:"proposer"`
	Voters     []Address `json:"voters"`
	Bump       uint8     `json:"bump"`
	Deposit    uint64    `json:"deposit"`
}

func (r *VoterRegistry) Clone() *VoterRegistry {
	n := *r
	n.Voters = make([]Address, len(r.Voters))
	copy(n.Voters, r.Voters)
	return &n
}

func (r *VoterRegistry) Contains(voter Address) bool {
	for _, v := range r.Voters {
		if v == voter {
			return true
		}
	}
	return false
}

type VoteStatus string

const (
	VoteStatusNotEligible VoteStatus = "not_eligible"
	VoteStatusEligible    VoteStatus = "eligible"
	VoteStatusVoted       VoteStatus = "voted"
)

type BallotStatus struct {
	Proposal Address    `json:"proposal"`
	Voter    Address    `json:"voter"`
	Status   VoteStatus `json:"status"`
	Vote     *Vote      `json:"vote,omitempty"`
}
