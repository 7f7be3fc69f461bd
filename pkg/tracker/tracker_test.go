package tracker

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

func openTestTracker(t *testing.T) (*Tracker, string) {
	t.Helper()
	dir := t.TempDir()
	tr, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr, dir
}

func testCid(t *testing.T, data string) cid.Cid {
	t.Helper()
	sum, err := mh.Sum([]byte(data), mh.SHA1, -1)
	if err != nil {
		t.Fatal(err)
	}
	return cid.NewCidV1(cid.GitRaw, sum)
}

func TestLookupObjectMissing(t *testing.T) {
	tr, _ := openTestTracker(t)

	_, found, err := tr.LookupObject(plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("found entry in empty ledger")
	}
}

func TestRecordAndLookupObject(t *testing.T) {
	tr, _ := openTestTracker(t)
	id := plumbing.NewHash("0123456789012345678901234567890123456789")
	ca := testCid(t, "payload-1")

	if err := tr.RecordObject(id, ca); err != nil {
		t.Fatal(err)
	}
	got, found, err := tr.LookupObject(id)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("recorded object not found")
	}
	if !got.Equals(ca) {
		t.Fatalf("cid = %s, want %s", got, ca)
	}
}

func TestRecordObjectIdempotent(t *testing.T) {
	tr, _ := openTestTracker(t)
	id := plumbing.NewHash("0123456789012345678901234567890123456789")
	ca := testCid(t, "payload-1")

	if err := tr.RecordObject(id, ca); err != nil {
		t.Fatal(err)
	}
	if err := tr.RecordObject(id, ca); err != nil {
		t.Fatalf("re-recording identical pair: %v", err)
	}
}

func TestRecordObjectConflictFails(t *testing.T) {
	tr, _ := openTestTracker(t)
	id := plumbing.NewHash("0123456789012345678901234567890123456789")

	if err := tr.RecordObject(id, testCid(t, "payload-1")); err != nil {
		t.Fatal(err)
	}
	if err := tr.RecordObject(id, testCid(t, "payload-2")); err == nil {
		t.Fatal("expected error recording a different address for an existing id")
	}

	// The original mapping must survive the rejected write.
	got, found, err := tr.LookupObject(id)
	if err != nil || !found {
		t.Fatalf("lookup after conflict: found=%v err=%v", found, err)
	}
	if !got.Equals(testCid(t, "payload-1")) {
		t.Fatalf("cid = %s, want original mapping", got)
	}
}

func TestRefLifecycle(t *testing.T) {
	tr, _ := openTestTracker(t)
	const name = "refs/heads/main"
	first := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	second := plumbing.NewHash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	_, found, err := tr.LookupRef(name)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("found ref in empty ledger")
	}

	if err := tr.SetRef(name, first); err != nil {
		t.Fatal(err)
	}
	got, found, err := tr.LookupRef(name)
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if got != first {
		t.Fatalf("ref = %s, want %s", got, first)
	}

	// Ref rows are updatable, unlike object rows.
	if err := tr.SetRef(name, second); err != nil {
		t.Fatal(err)
	}
	got, _, err = tr.LookupRef(name)
	if err != nil {
		t.Fatal(err)
	}
	if got != second {
		t.Fatalf("ref = %s, want %s", got, second)
	}
}

func TestLedgerSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	tr, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	id := plumbing.NewHash("0123456789012345678901234567890123456789")
	ca := testCid(t, "payload-1")
	if err := tr.RecordObject(id, ca); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetRef("refs/heads/main", id); err != nil {
		t.Fatal(err)
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}

	tr, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	got, found, err := tr.LookupObject(id)
	if err != nil || !found {
		t.Fatalf("object after reopen: found=%v err=%v", found, err)
	}
	if !got.Equals(ca) {
		t.Fatalf("cid = %s, want %s", got, ca)
	}
	ref, found, err := tr.LookupRef("refs/heads/main")
	if err != nil || !found {
		t.Fatalf("ref after reopen: found=%v err=%v", found, err)
	}
	if ref != id {
		t.Fatalf("ref = %s, want %s", ref, id)
	}
}
