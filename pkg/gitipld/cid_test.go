package gitipld

import (
	"crypto/sha1"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
)

func TestCidDigestEqualsNativeId(t *testing.T) {
	payload, err := Encode(KindBlob, []byte("foobar\n"))
	if err != nil {
		t.Fatal(err)
	}
	c, err := Cid(payload)
	if err != nil {
		t.Fatal(err)
	}

	got, err := DigestHash(c)
	if err != nil {
		t.Fatal(err)
	}
	want := plumbing.Hash(sha1.Sum(payload))
	if got != want {
		t.Fatalf("digest = %s, want %s", got, want)
	}
}

func TestCidEmptyBlobKnownVector(t *testing.T) {
	// git hash-object of the empty blob.
	payload, err := Encode(KindBlob, nil)
	if err != nil {
		t.Fatal(err)
	}
	c, err := Cid(payload)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DigestHash(c)
	if err != nil {
		t.Fatal(err)
	}
	want := plumbing.NewHash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")
	if got != want {
		t.Fatalf("digest = %s, want %s", got, want)
	}
}

func TestCidDeterministic(t *testing.T) {
	payload := []byte("blob 2\x00hi")
	a, err := Cid(payload)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Cid(payload)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equals(b) {
		t.Fatalf("cid not deterministic: %s vs %s", a, b)
	}

	other, err := Cid([]byte("blob 2\x00ho"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Equals(other) {
		t.Fatal("distinct payloads produced identical cid")
	}
}
