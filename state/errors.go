package state

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of them.
var (
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

var (
	ErrTxNonceInvalid = fmt.Errorf("%w: nonce invalid", ErrUnauthorized)
	ErrTxSigInvalid   = fmt.Errorf("%w: signature invalid", ErrUnauthorized)

	ErrEmptySeed              = fmt.Errorf("%w: empty seed", ErrInvalidInput)
	ErrSeedTooLong            = fmt.Errorf("%w: seed too long", ErrInvalidInput)
	ErrDescriptionTooLong     = fmt.Errorf("%w: description too long", ErrInvalidInput)
	ErrProposalLocation       = fmt.Errorf("%w: proposal location mismatch", ErrInvalidInput)
	ErrRegistryLocation       = fmt.Errorf("%w: registry location mismatch", ErrInvalidInput)
	ErrEmptyVoters            = fmt.Errorf("%w: empty voter list", ErrInvalidInput)
	ErrTooManyVoters          = fmt.Errorf("%w: too many voters", ErrInvalidInput)
	ErrInvalidVoteFlag        = fmt.Errorf("%w: vote flag must be 0 or 1", ErrInvalidInput)
	ErrRecordKindMismatch     = fmt.Errorf("%w: record kind mismatch", ErrInvalidInput)
	ErrRegistryNotGoverning   = fmt.Errorf("%w: registry does not govern proposal", ErrInvalidInput)
	ErrProposalExists         = fmt.Errorf("%w: proposal", ErrAlreadyExists)
	ErrRegistryExists         = fmt.Errorf("%w: voter registry", ErrAlreadyExists)
	ErrProposalNotFound       = fmt.Errorf("%w: proposal", ErrNotFound)
	ErrRegistryNotFound       = fmt.Errorf("%w: voter registry", ErrNotFound)
	ErrAccountNotFound        = fmt.Errorf("%w: account", ErrNotFound)
	ErrNotProposalOwner       = fmt.Errorf("%w: signer does not own proposal", ErrUnauthorized)
	ErrProposalIdMismatch     = fmt.Errorf("%w: proposal id mismatch", ErrUnauthorized)
	ErrStorageChargeOverflows = fmt.Errorf("%w: storage charge overflows", ErrInsufficientFunds)
)

// ABCI response codes. Zero is success.
const (
	CodeOK                uint32 = 0
	CodeInternal          uint32 = 1
	CodeAlreadyExists     uint32 = 2
	CodeNotFound          uint32 = 3
	CodeInvalidInput      uint32 = 4
	CodeUnauthorized      uint32 = 5
	CodeInsufficientFunds uint32 = 6
)

func ErrorCode(err error) uint32 {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	}
	return CodeInternal
}
