package ipld

import (
	"context"

	block "github.com/ipfs/go-block-format"
	cid "github.com/ipfs/go-cid"
	ipldcbor "github.com/ipfs/go-ipld-cbor"
	"golang.org/x/xerrors"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
)

// Store is a CBOR object store bound to the context its operations run in.
type Store interface {
	Context() context.Context
	ipldcbor.IpldStore
}

// Creates a new, empty, unsynchronized IPLD store in memory.
// This store is appropriate for most kinds of testing.
func NewADTStore(ctx context.Context) Store {
	return WrapBlockStore(ctx, NewBlockStoreInMemory())
}

// WrapBlockStore adapts a block store to a Store, encoding objects as CBOR.
func WrapBlockStore(ctx context.Context, bs ipldcbor.IpldBlockstore) Store {
	return WrapStore(ctx, ipldcbor.NewCborStore(bs))
}

func WrapStore(ctx context.Context, store ipldcbor.IpldStore) Store {
	return &wstore{ctx: ctx, IpldStore: store}
}

type wstore struct {
	ctx context.Context
	ipldcbor.IpldStore
}

func (s *wstore) Context() context.Context {
	return s.ctx
}

// BlockStoreInMemory holds blocks in a map keyed by their identifiers.
type BlockStoreInMemory struct {
	data map[cid.Cid]block.Block
}

var _ ipldcbor.IpldBlockstore = (*BlockStoreInMemory)(nil)

func NewBlockStoreInMemory() *BlockStoreInMemory {
	return &BlockStoreInMemory{make(map[cid.Cid]block.Block)}
}

func (mb *BlockStoreInMemory) Get(c cid.Cid) (block.Block, error) {
	d, ok := mb.data[c]
	if ok {
		return d, nil
	}
	return nil, xerrors.Errorf("block %s not found", c)
}

// Put stores b. Blocks whose identifier was not computed from their data are refused.
func (mb *BlockStoreInMemory) Put(b block.Block) error {
	c, err := abi.CidBuilder.Sum(b.RawData())
	if err != nil {
		return xerrors.Errorf("failed to hash block %s: %w", b.Cid(), err)
	}
	if !c.Equals(b.Cid()) {
		return xerrors.Errorf("block %s does not match its data, expected %s", b.Cid(), c)
	}
	mb.data[b.Cid()] = b
	return nil
}

func (mb *BlockStoreInMemory) Has(c cid.Cid) bool {
	_, ok := mb.data[c]
	return ok
}

// Len is the number of distinct blocks held.
func (mb *BlockStoreInMemory) Len() int {
	return len(mb.data)
}

// MetricsBlockStore counts the reads and writes passing through to an underlying block store.
type MetricsBlockStore struct {
	bs         ipldcbor.IpldBlockstore
	Writes     uint64
	WriteBytes uint64
	Reads      uint64
	ReadBytes  uint64
}

var _ ipldcbor.IpldBlockstore = (*MetricsBlockStore)(nil)

func NewMetricsBlockStore(underlying ipldcbor.IpldBlockstore) *MetricsBlockStore {
	return &MetricsBlockStore{bs: underlying}
}

func (ms *MetricsBlockStore) Get(c cid.Cid) (block.Block, error) {
	ms.Reads++
	blk, err := ms.bs.Get(c)
	if err != nil {
		return blk, err
	}
	ms.ReadBytes += uint64(len(blk.RawData()))
	return blk, nil
}

func (ms *MetricsBlockStore) Put(b block.Block) error {
	ms.Writes++
	ms.WriteBytes += uint64(len(b.RawData()))
	return ms.bs.Put(b)
}
