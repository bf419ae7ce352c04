package tx

import (
	"encoding/json"

	"github.com/calehh/vote-app/types"
)

// VoteTx is the signed envelope of every transaction. Signer is both the
// fee payer and the authority the operation acts for.
type VoteTx struct {
	Version uint8         `json:"version"`
	Type    TxType        `json:"type"`
	Nonce   uint64        `json:"nonce"`
	Signer  types.Address `json:"signer"`
	Tx      any           `json:"tx"`
	Sig     [][]byte      `json:"sig"`
}

type CreateProposalTx struct {
	Seed        string        `json:"seed"`
	Description string        `json:"description"`
	Id          uint64        `json:"id"`
	Proposal    types.Address `json:"proposal"`
}

type RegisterVotersTx struct {
	ProposalId uint64          `json:"proposalId"`
	Voters     []types.Address `json:"voters"`
	Proposal   types.Address   `json:"proposal"`
	Registry   types.Address   `json:"registry"`
}

type CastVoteTx struct {
	Vote     uint8         `json:"vote"`
	Proposal types.Address `json:"proposal"`
	Registry types.Address `json:"registry"`
}

type voteTxTmpl[Tx any] struct {
	Version uint8         `json:"version"`
	Type    TxType        `json:"type"`
	Nonce   uint64        `json:"nonce"`
	Signer  types.Address `json:"signer"`
	Tx      Tx            `json:"tx"`
	Sig     [][]byte      `json:"sig"`
}

// SigData returns the bytes covered by the signature: the envelope with its
// signatures replaced by ext, normally the chain id.
func (tx *VoteTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseTxType(dat []byte) TxType {
	var tx struct {
		Type TxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return TxTypeUnknown
	}
	return tx.Type
}

func unmarshalVoteTx[Tx any](dat []byte) (btx *VoteTx, err error) {
	var txt voteTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version > TxVersion1 {
		err = ErrUnsupportedTxVersion
		return
	}
	if txt.Signer.IsZero() {
		err = ErrMissingSigner
		return
	}
	btx = new(VoteTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Signer = txt.Signer
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalVoteTx(dat []byte) (btx *VoteTx, err error) {
	tp := parseTxType(dat)
	switch tp {
	case TxTypeCreateProposal:
		return unmarshalVoteTx[CreateProposalTx](dat)
	case TxTypeRegisterVoters:
		return unmarshalVoteTx[RegisterVotersTx](dat)
	case TxTypeCastVote:
		return unmarshalVoteTx[CastVoteTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalVoteTx(btx *VoteTx) (dat []byte, err error) {
	return json.Marshal(btx)
}

type Signer interface {
	Sign(msg []byte) ([]byte, error)
}

// Sign replaces the signatures of tx with a single signature by signer.
func (tx *VoteTx) Sign(chainId string, signer Signer) error {
	dat, err := tx.SigData([]byte(chainId))
	if err != nil {
		return err
	}
	sig, err := signer.Sign(dat)
	if err != nil {
		return err
	}
	tx.Sig = [][]byte{sig}
	return nil
}
