package crypto

import (
	"fmt"
	"os"

	"github.com/calehh/vote-app/types"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
)

// PV signs transactions with a key stored in CometBFT's priv_validator_key
// format. The public key doubles as the signer identity.
type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("error reading key from %v: %w", keyFilePath, err)
	}
	if _, ok := pvKey.PubKey.(ed25519.PubKey); !ok {
		return nil, fmt.Errorf("key %v is %v, only ed25519 is supported", keyFilePath, pvKey.PubKey.Type())
	}
	return &PV{
		privateKey: pvKey.PrivKey,
		publicKey:  pvKey.PubKey,
	}, nil
}

func NewPV(priv ed25519.PrivKey) *PV {
	return &PV{
		privateKey: priv,
		publicKey:  priv.PubKey(),
	}
}

// GenFilePV writes a fresh ed25519 key to keyFilePath.
func GenFilePV(keyFilePath, stateFilePath string) *PV {
	filePV := privval.GenFilePV(keyFilePath, stateFilePath)
	filePV.Save()
	return &PV{
		privateKey: filePV.Key.PrivKey,
		publicKey:  filePV.Key.PubKey,
	}
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *PV) Address() types.Address {
	var a types.Address
	copy(a[:], k.publicKey.Bytes())
	return a
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}
