package indexer

// sqlite models, addresses are stored in their base58 text form

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Proposal struct {
	Location     string `gorm:"primary_key" json:"location"`
	ProposalId   uint64 `json:"proposal_id"`
	Owner        string `gorm:"index" json:"owner"`
	Description  string `json:"description"`
	Deposit      uint64 `json:"deposit"`
	UpVotes      uint64 `json:"up_votes"`
	DownVotes    uint64 `json:"down_votes"`
	TotalVotes   uint64 `json:"total_votes"`
	NewHeight    uint64 `json:"new_height"`
	UpdateHeight uint64 `json:"update_height"`
}

type Registry struct {
	Location   string `gorm:"primary_key" json:"location"`
	Proposal   string `gorm:"index" json:"proposal"`
	Proposer   string `json:"proposer"`
	ProposalId uint64 `json:"proposal_id"`
	Height     uint64 `json:"height"`
}

type RegistryVoter struct {
	Id       uint64 `gorm:"primary_key" json:"id"`
	Registry string `gorm:"index" json:"registry"`
	Voter    string `json:"voter"`
	Position int    `json:"position"`
}

type Vote struct {
	Id       uint64 `gorm:"primary_key" json:"id"`
	Proposal string `gorm:"index" json:"proposal"`
	Voter    string `json:"voter"`
	Vote     uint8  `json:"vote"`
	Height   uint64 `json:"height"`
}
