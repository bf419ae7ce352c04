package state

import (
	"github.com/calehh/vote-app/types"
)

// Account is the wallet state of a signer. Accounts spring into existence
// on first use with a zero balance.
type Account struct {
	Address types.Address `json:"address"`
	Balance uint64        `json:"balance"`
	Nonce   uint64        `json:"nonce"`
}

func (a *Account) Clone() *Account {
	n := *a
	return &n
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 {
		return false
	}
	return a.Address.PubKey().VerifySignature(msg, sigs[0])
}
