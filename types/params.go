package types

import (
	"errors"
	"fmt"
)

// DefaultProgramID is the domain identity mixed into every derived location.
const DefaultProgramID = "BWRJc9qJtZPFotMtVVvejQMyp7PNK9cYKwbJerFFiNUt"

type RegistryScope string

const (
	// RegistryScopeProposer keeps one voter registry per proposer, shared by
	// all of the proposer's proposals.
	RegistryScopeProposer RegistryScope = "proposer"
	// RegistryScopeProposal derives one voter registry per proposal.
	RegistryScopeProposal RegistryScope = "proposal"
)

const (
	DefaultMaxDescriptionLength = 87
	DefaultMaxVoters            = 128
	DefaultLamportsPerByte      = 10
)

var (
	ErrInvalidParams = errors.New("invalid params")
)

type Params struct {
	ProgramID            Address       `json:"programId"`
	MaxDescriptionLength uint32        `json:"maxDescriptionLength"`
	MaxVoters            uint32        `json:"maxVoters"`
	LamportsPerByte      uint64        `json:"lamportsPerByte"`
	RegistryScope        RegistryScope `json:"registryScope"`
}

func DefaultParams() Params {
	return Params{
		ProgramID:            MustParseAddress(DefaultProgramID),
		MaxDescriptionLength: DefaultMaxDescriptionLength,
		MaxVoters:            DefaultMaxVoters,
		LamportsPerByte:      DefaultLamportsPerByte,
		RegistryScope:        RegistryScopeProposer,
	}
}

func (p Params) Validate() error {
	if p.ProgramID.IsZero() {
		return fmt.Errorf("%w: empty program id", ErrInvalidParams)
	}
	if p.MaxDescriptionLength == 0 {
		return fmt.Errorf("%w: maxDescriptionLength must be positive", ErrInvalidParams)
	}
	if p.MaxVoters == 0 {
		return fmt.Errorf("%w: maxVoters must be positive", ErrInvalidParams)
	}
	switch p.RegistryScope {
	case RegistryScopeProposer, RegistryScopeProposal:
	default:
		return fmt.Errorf("%w: unknown registry scope %q", ErrInvalidParams, p.RegistryScope)
	}
	return nil
}
