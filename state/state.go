package state

import (
	"fmt"
	"sort"

	"github.com/calehh/vote-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	KeyState      = "s"
	KeyParams     = "p"
	KeyAccount    = "a%x"
	KeyRecord     = "r%x"
	KeyRecordBase = "r"
)

type RecordKind uint8

const (
	RecordKindNone          RecordKind = 0
	RecordKindProposal      RecordKind = 1
	RecordKindVoterRegistry RecordKind = 2
)

type StateHeader struct {
	ChainId  string
	Height   uint64
	RootHash []byte
	Hash     []byte
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	n.RootHash = common.CopyBytes(h.RootHash)
	n.Hash = common.CopyBytes(h.Hash)
	return &n
}

// State is the working view of one block. Reads fall through to the tree,
// writes stay in the caches until Update flushes them.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header *StateHeader
	params *types.Params

	acnts      map[types.Address]*Account
	proposals  map[types.Address]*types.Proposal
	registries map[types.Address]*types.VoterRegistry

	modifiedParams  bool
	modifiedAcnts   map[types.Address]struct{}
	modifiedRecords map[types.Address]RecordKind
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	return &State{
		logger:          logger,
		db:              db,
		header:          new(StateHeader),
		acnts:           make(map[types.Address]*Account),
		proposals:       make(map[types.Address]*types.Proposal),
		registries:      make(map[types.Address]*types.VoterRegistry),
		modifiedAcnts:   make(map[types.Address]struct{}),
		modifiedRecords: make(map[types.Address]RecordKind),
	}
}

func (s *State) nextState() *State {
	n := newState(s.db, s.logger)
	n.dbVer = s.dbVer
	n.header = s.header.Clone()
	if s.params != nil {
		p := *s.params
		n.params = &p
	}
	return n
}

func cloneMap[K comparable, V any](source map[K]V, clone func(V) V) map[K]V {
	res := make(map[K]V, len(source))
	for k, v := range source {
		if clone != nil {
			v = clone(v)
		}
		res[k] = v
	}
	return res
}

// Clone returns an independent copy sharing only the underlying tree.
func (s *State) Clone() *State {
	n := &State{
		logger:          s.logger,
		db:              s.db,
		dbVer:           s.dbVer,
		header:          s.header.Clone(),
		modifiedParams:  s.modifiedParams,
		acnts:           cloneMap(s.acnts, (*Account).Clone),
		proposals:       cloneMap(s.proposals, (*types.Proposal).Clone),
		registries:      cloneMap(s.registries, (*types.VoterRegistry).Clone),
		modifiedAcnts:   cloneMap[types.Address, struct{}](s.modifiedAcnts, nil),
		modifiedRecords: cloneMap[types.Address, RecordKind](s.modifiedRecords, nil),
	}
	if s.params != nil {
		p := *s.params
		n.params = &p
	}
	return n
}

func (s *State) get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (s *State) load() (err error) {
	val, err := s.get([]byte(KeyState))
	if err != nil {
		return err
	}
	if val != nil {
		err = rlp.DecodeBytes(val, s.header)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	val, err = s.get([]byte(KeyParams))
	if err != nil {
		return err
	}
	if val != nil {
		p := new(types.Params)
		err = rlp.DecodeBytes(val, p)
		if err != nil {
			return
		}
		s.params = p
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

func sortedAddresses[V any](m map[types.Address]V) []types.Address {
	addrs := make([]types.Address, 0, len(m))
	for addr := range m {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Compare(addrs[j]) < 0
	})
	return addrs
}

// Update writes every modification into the working tree in a deterministic
// order and returns the resulting application hash.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = rlp.EncodeToBytes(s.header)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	if s.modifiedParams && s.params != nil {
		val, err = rlp.EncodeToBytes(s.params)
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(KeyParams), val)
		if err != nil {
			return
		}
	}

	for _, addr := range sortedAddresses(s.modifiedAcnts) {
		val, err = rlp.EncodeToBytes(s.acnts[addr])
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(fmt.Sprintf(KeyAccount, addr[:])), val)
		if err != nil {
			return
		}
	}

	for _, addr := range sortedAddresses(s.modifiedRecords) {
		switch s.modifiedRecords[addr] {
		case RecordKindProposal:
			val, err = encodeRecord(RecordKindProposal, s.proposals[addr])
		case RecordKindVoterRegistry:
			val, err = encodeRecord(RecordKindVoterRegistry, s.registries[addr])
		default:
			err = fmt.Errorf("unknown record kind %v", s.modifiedRecords[addr])
		}
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(fmt.Sprintf(KeyRecord, addr[:])), val)
		if err != nil {
			return
		}
	}

	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedParams = false
	s.modifiedAcnts = make(map[types.Address]struct{})
	s.modifiedRecords = make(map[types.Address]RecordKind)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}
	s.dbVer = ver
	h = s.calcHash(hash, true)
	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Height() uint64 {
	return s.header.Height
}

func (s *State) SetHeight(height uint64) {
	s.header.Height = height
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) ChainId() string {
	return s.header.ChainId
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// Params returns the stored parameters, or the defaults before genesis has
// stored any.
func (s *State) Params() types.Params {
	if s.params == nil {
		return types.DefaultParams()
	}
	return *s.params
}

func (s *State) SetParams(p types.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = &p
	s.modifiedParams = true
	return nil
}

// GetAccount returns the account of addr, a zero account if it has never
// been written.
func (s *State) GetAccount(addr types.Address) (acnt *Account, err error) {
	acnt = s.acnts[addr]
	if acnt != nil {
		return
	}
	val, err := s.get([]byte(fmt.Sprintf(KeyAccount, addr[:])))
	if err != nil {
		return nil, err
	}
	acnt = &Account{Address: addr}
	if val != nil {
		err = rlp.DecodeBytes(val, acnt)
		if err != nil {
			return nil, err
		}
	}
	s.acnts[addr] = acnt
	return
}

func (s *State) putAccount(acnt *Account) {
	s.acnts[acnt.Address] = acnt
	s.modifiedAcnts[acnt.Address] = struct{}{}
}

// Credit adds amount to the balance of addr.
func (s *State) Credit(addr types.Address, amount uint64) error {
	acnt, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if acnt.Balance+amount < acnt.Balance {
		return fmt.Errorf("balance of %v overflows", addr)
	}
	acnt.Balance += amount
	s.putAccount(acnt)
	return nil
}

func encodeRecord(kind RecordKind, body any) ([]byte, error) {
	dat, err := rlp.EncodeToBytes(body)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(kind)}, dat...), nil
}

func decodeRecord(val []byte) (kind RecordKind, body []byte) {
	if len(val) == 0 {
		return RecordKindNone, nil
	}
	return RecordKind(val[0]), val[1:]
}

// recordKind reports which record occupies loc, RecordKindNone if empty.
func (s *State) recordKind(loc types.Address) (RecordKind, error) {
	if _, ok := s.proposals[loc]; ok {
		return RecordKindProposal, nil
	}
	if _, ok := s.registries[loc]; ok {
		return RecordKindVoterRegistry, nil
	}
	val, err := s.get([]byte(fmt.Sprintf(KeyRecord, loc[:])))
	if err != nil {
		return RecordKindNone, err
	}
	kind, _ := decodeRecord(val)
	return kind, nil
}

func (s *State) loadProposal(loc types.Address) (*types.Proposal, error) {
	if p, ok := s.proposals[loc]; ok {
		return p, nil
	}
	val, err := s.get([]byte(fmt.Sprintf(KeyRecord, loc[:])))
	if err != nil {
		return nil, err
	}
	kind, body := decodeRecord(val)
	switch kind {
	case RecordKindNone:
		return nil, fmt.Errorf("%w %v", ErrProposalNotFound, loc)
	case RecordKindProposal:
	default:
		return nil, fmt.Errorf("%w: %v is not a proposal", ErrRecordKindMismatch, loc)
	}
	p := new(types.Proposal)
	if err = rlp.DecodeBytes(body, p); err != nil {
		return nil, err
	}
	s.proposals[loc] = p
	return p, nil
}

func (s *State) loadVoterRegistry(loc types.Address) (*types.VoterRegistry, error) {
	if r, ok := s.registries[loc]; ok {
		return r, nil
	}
	val, err := s.get([]byte(fmt.Sprintf(KeyRecord, loc[:])))
	if err != nil {
		return nil, err
	}
	kind, body := decodeRecord(val)
	switch kind {
	case RecordKindNone:
		return nil, fmt.Errorf("%w %v", ErrRegistryNotFound, loc)
	case RecordKindVoterRegistry:
	default:
		return nil, fmt.Errorf("%w: %v is not a voter registry", ErrRecordKindMismatch, loc)
	}
	r := new(types.VoterRegistry)
	if err = rlp.DecodeBytes(body, r); err != nil {
		return nil, err
	}
	s.registries[loc] = r
	return r, nil
}

func (s *State) putProposal(loc types.Address, p *types.Proposal) {
	s.proposals[loc] = p
	s.modifiedRecords[loc] = RecordKindProposal
}

func (s *State) putVoterRegistry(loc types.Address, r *types.VoterRegistry) {
	s.registries[loc] = r
	s.modifiedRecords[loc] = RecordKindVoterRegistry
}

// Proposal returns a copy of the proposal stored at loc.
func (s *State) Proposal(loc types.Address) (*types.Proposal, error) {
	p, err := s.loadProposal(loc)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// VoterRegistry returns a copy of the voter registry stored at loc.
func (s *State) VoterRegistry(loc types.Address) (*types.VoterRegistry, error) {
	r, err := s.loadVoterRegistry(loc)
	if err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// Proposals lists the committed proposals in location order. Cached,
// unflushed writes are not included.
func (s *State) Proposals() (locs []types.Address, proposals []*types.Proposal, err error) {
	start := []byte(KeyRecordBase)
	it, err := s.db.Iterator(start, PrefixEndBytes(start), true)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		kind, body := decodeRecord(it.Value())
		if kind != RecordKindProposal {
			continue
		}
		var loc types.Address
		loc, err = types.BytesToAddress(common.Hex2Bytes(string(it.Key()[len(KeyRecordBase):])))
		if err != nil {
			return nil, nil, err
		}
		p := new(types.Proposal)
		if err = rlp.DecodeBytes(body, p); err != nil {
			return nil, nil, err
		}
		locs = append(locs, loc)
		proposals = append(proposals, p)
	}
	return locs, proposals, it.Error()
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
