package gitipld

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
)

// ExtractLinks parses a canonical payload and returns every embedded object
// reference in deterministic order: parents before tree for commits, entries
// in on-disk order for trees, the target for tags, nothing for blobs.
func ExtractLinks(payload []byte) ([]Link, error) {
	kind, raw, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindBlob:
		return nil, nil
	case KindCommit:
		parents, tree, err := parseCommitRefs(raw)
		if err != nil {
			return nil, err
		}
		links := make([]Link, 0, len(parents)+1)
		for _, p := range parents {
			links = append(links, Link{Hash: p})
		}
		links = append(links, Link{Hash: tree})
		return links, nil
	case KindTree:
		return treeLinks(raw)
	case KindTag:
		target, err := TagTarget(raw)
		if err != nil {
			return nil, err
		}
		return []Link{{Hash: target}}, nil
	default:
		return nil, fmt.Errorf("extract links: unsupported kind %q", kind)
	}
}

// CommitParents returns the parent hashes of a raw commit in header order.
func CommitParents(raw []byte) ([]plumbing.Hash, error) {
	parents, _, err := parseCommitRefs(raw)
	return parents, err
}

// TagTarget returns the object hash an annotated tag points at.
func TagTarget(raw []byte) (plumbing.Hash, error) {
	line := raw
	if idx := bytes.IndexByte(raw, '\n'); idx >= 0 {
		line = raw[:idx]
	}
	rest, ok := bytes.CutPrefix(line, []byte("object "))
	if !ok {
		return plumbing.ZeroHash, fmt.Errorf("tag: missing object header")
	}
	return decodeHexHash(rest)
}

// parseCommitRefs scans commit header lines for the tree and parent hashes.
// Headers end at the first blank line; the message body is never inspected.
func parseCommitRefs(raw []byte) (parents []plumbing.Hash, tree plumbing.Hash, err error) {
	treeSeen := false
	rest := raw
	for len(rest) > 0 {
		var line []byte
		if idx := bytes.IndexByte(rest, '\n'); idx >= 0 {
			line, rest = rest[:idx], rest[idx+1:]
		} else {
			line, rest = rest, nil
		}
		if len(line) == 0 {
			break
		}
		key, val, ok := bytes.Cut(line, []byte(" "))
		if !ok {
			continue
		}
		switch string(key) {
		case "tree":
			tree, err = decodeHexHash(val)
			if err != nil {
				return nil, plumbing.ZeroHash, fmt.Errorf("commit: %w", err)
			}
			treeSeen = true
		case "parent":
			p, err := decodeHexHash(val)
			if err != nil {
				return nil, plumbing.ZeroHash, fmt.Errorf("commit: %w", err)
			}
			parents = append(parents, p)
		}
	}
	if !treeSeen {
		return nil, plumbing.ZeroHash, fmt.Errorf("commit: missing tree header")
	}
	return parents, tree, nil
}

// treeLinks walks the binary tree encoding: "<mode> <name>\0" followed by a
// 20-byte hash, repeated for each entry in on-disk order.
func treeLinks(raw []byte) ([]Link, error) {
	var links []Link
	rest := raw
	for len(rest) > 0 {
		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, fmt.Errorf("tree: truncated entry header")
		}
		if !bytes.ContainsRune(rest[:nul], ' ') {
			return nil, fmt.Errorf("tree: malformed entry %q", rest[:nul])
		}
		if len(rest) < nul+1+hashSize {
			return nil, fmt.Errorf("tree: truncated entry hash")
		}
		var h plumbing.Hash
		copy(h[:], rest[nul+1:nul+1+hashSize])
		links = append(links, Link{Hash: h})
		rest = rest[nul+1+hashSize:]
	}
	return links, nil
}

const hashSize = 20

func decodeHexHash(val []byte) (plumbing.Hash, error) {
	if len(val) != hex.EncodedLen(hashSize) {
		return plumbing.ZeroHash, fmt.Errorf("invalid object id %q", val)
	}
	var h plumbing.Hash
	if _, err := hex.Decode(h[:], val); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("invalid object id %q: %w", val, err)
	}
	return h, nil
}
