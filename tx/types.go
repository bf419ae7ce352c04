package tx

import (
	"errors"
)

type TxType uint8

const (
	TxTypeUnknown        TxType = 0
	TxTypeCreateProposal TxType = 1
	TxTypeRegisterVoters TxType = 2
	TxTypeCastVote       TxType = 3
)

func (t TxType) String() string {
	switch t {
	case TxTypeCreateProposal:
		return "create_proposal"
	case TxTypeRegisterVoters:
		return "register_voters"
	case TxTypeCastVote:
		return "cast_vote"
	}
	return "unknown"
}

const (
	TxVersion0 uint8 = 0
	TxVersion1 uint8 = 1
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrMissingSigner        = errors.New("missing signer")
)
