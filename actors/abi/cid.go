package abi

import (
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// CidBuilder content-addresses CBOR-encoded host state. It assigns the same identifiers as the
// CBOR object store, so blocks can be checked against their data.
var CidBuilder cid.Builder = cid.V1Builder{
	Codec:    cid.DagCBOR,
	MhType:   mh.BLAKE2B_MIN + 31,
	MhLength: -1,
}
