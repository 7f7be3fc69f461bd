package gitipld

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
)

// ObjectKind identifies the kind of git object carried in a canonical payload.
type ObjectKind string

const (
	KindBlob   ObjectKind = "blob"
	KindTree   ObjectKind = "tree"
	KindCommit ObjectKind = "commit"
	KindTag    ObjectKind = "tag"
)

// Link is an edge discovered inside a canonical payload: a reference to
// another object by its embedded 20-byte hash.
type Link struct {
	Hash plumbing.Hash
}

// ParseKind validates a raw kind token against the four known object kinds.
func ParseKind(raw string) (ObjectKind, error) {
	switch ObjectKind(raw) {
	case KindBlob, KindTree, KindCommit, KindTag:
		return ObjectKind(raw), nil
	default:
		return "", fmt.Errorf("unsupported object kind %q", raw)
	}
}

// KindFromObjectType maps a go-git object type onto a canonical kind token.
func KindFromObjectType(t plumbing.ObjectType) (ObjectKind, error) {
	switch t {
	case plumbing.BlobObject:
		return KindBlob, nil
	case plumbing.TreeObject:
		return KindTree, nil
	case plumbing.CommitObject:
		return KindCommit, nil
	case plumbing.TagObject:
		return KindTag, nil
	default:
		return "", fmt.Errorf("unsupported object type %q", t)
	}
}
