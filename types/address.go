package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/cometbft/cometbft/crypto/ed25519"
)

const AddressLength = 32

var (
	ErrInvalidAddress = errors.New("invalid address")
)

// Address is a 32-byte identity. Signer public keys and derived record
// locations share this type.
type Address [AddressLength]byte

var ZeroAddress Address

func BytesToAddress(b []byte) (a Address, err error) {
	if len(b) != AddressLength {
		err = fmt.Errorf("%w: length %d", ErrInvalidAddress, len(b))
		return
	}
	copy(a[:], b)
	return
}

func ParseAddress(s string) (a Address, err error) {
	dat := base58.Decode(s)
	if len(dat) == 0 {
		err = fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		return
	}
	return BytesToAddress(dat)
}

func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func PubKeyToAddress(pk ed25519.PubKey) (Address, error) {
	return BytesToAddress(pk.Bytes())
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// PubKey interprets the address as an ed25519 public key.
func (a Address) PubKey() ed25519.PubKey {
	pk := make(ed25519.PubKey, AddressLength)
	copy(pk, a[:])
	return pk
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(dat []byte) (err error) {
	*a, err = ParseAddress(string(dat))
	return
}
