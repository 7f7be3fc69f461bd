package gitipld

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// Cid derives the content address of a canonical payload: CIDv1 with the
// git-raw codec over a sha1 multihash. This is the same derivation the DAG
// store applies to a payload submitted in raw git framing, so the digest of
// an object's address equals its native identifier.
func Cid(payload []byte) (cid.Cid, error) {
	sum, err := mh.Sum(payload, mh.SHA1, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("cid: %w", err)
	}
	return cid.NewCidV1(cid.GitRaw, sum), nil
}

// DigestHash extracts the native identifier embedded in a content address.
func DigestHash(c cid.Cid) (plumbing.Hash, error) {
	dec, err := mh.Decode(c.Hash())
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("cid digest: %w", err)
	}
	if len(dec.Digest) != hashSize {
		return plumbing.ZeroHash, fmt.Errorf("cid digest: unexpected length %d", len(dec.Digest))
	}
	var h plumbing.Hash
	copy(h[:], dec.Digest)
	return h, nil
}
