package helper

import (
	"context"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"go.uber.org/zap"

	"github.com/ipgrv/git-remote-ipgrv/pkg/gitipld"
	"github.com/ipgrv/git-remote-ipgrv/pkg/tracker"
)

// pusher walks the object graph breadth-first from one root, submitting
// every unseen object to the DAG store and recording it in the ledger. The
// queue and visited set live for exactly one invocation; the ledger is the
// only state that survives it.
type pusher struct {
	objects storer.EncodedObjectStorer
	store   dagStore
	tracker *tracker.Tracker
	log     *zap.Logger

	queue   []plumbing.Hash
	visited map[plumbing.Hash]struct{}
}

func newPusher(objects storer.EncodedObjectStorer, store dagStore, tr *tracker.Tracker, log *zap.Logger) *pusher {
	return &pusher{
		objects: objects,
		store:   store,
		tracker: tr,
		log:     log,
		visited: make(map[plumbing.Hash]struct{}),
	}
}

// push drains the traversal from src, then gates the dest update on the
// fast-forward check. Any object recorded before a failure stays recorded:
// that partial progress is valid under the closure invariant and makes a
// re-invoked push resume where this one stopped.
func (p *pusher) push(ctx context.Context, src plumbing.Hash, dest string, force bool) error {
	p.enqueue(src)
	for len(p.queue) > 0 {
		id := p.queue[0]
		p.queue = p.queue[1:]
		if err := p.step(ctx, id); err != nil {
			return err
		}
	}
	return p.commitRef(src, dest, force)
}

// step processes one pending identifier. A ledger hit cuts the traversal:
// everything reachable beneath a recorded object is already stored.
func (p *pusher) step(ctx context.Context, id plumbing.Hash) error {
	op := "push: object " + id.String()

	if _, ok, err := p.tracker.LookupObject(id); err != nil {
		return wrap(KindLedger, op, err)
	} else if ok {
		return nil
	}

	kind, raw, err := p.readObject(id)
	if err != nil {
		return wrap(KindRepo, op, err)
	}
	payload, err := gitipld.Encode(kind, raw)
	if err != nil {
		return wrap(KindEncode, op, err)
	}

	// A store failure is fatal to the whole push: abort with the ledger and
	// ref mapping exactly as they were before this object.
	ca, err := p.store.DagPut(ctx, payload)
	if err != nil {
		return wrap(KindStore, op, err)
	}
	if err := p.tracker.RecordObject(id, ca); err != nil {
		return wrap(KindLedger, op, err)
	}
	p.log.Debug("object stored", zap.Stringer("id", id), zap.Stringer("cid", ca))

	links, err := gitipld.ExtractLinks(payload)
	if err != nil {
		return wrap(KindDecode, op, err)
	}
	for _, link := range links {
		if _, seen := p.visited[link.Hash]; seen {
			continue
		}
		if _, ok, err := p.tracker.LookupObject(link.Hash); err != nil {
			return wrap(KindLedger, op, err)
		} else if ok {
			continue
		}
		p.enqueue(link.Hash)
	}
	return nil
}

func (p *pusher) enqueue(id plumbing.Hash) {
	p.visited[id] = struct{}{}
	p.queue = append(p.queue, id)
}

func (p *pusher) readObject(id plumbing.Hash) (gitipld.ObjectKind, []byte, error) {
	obj, err := p.objects.EncodedObject(plumbing.AnyObject, id)
	if err != nil {
		return "", nil, fmt.Errorf("read object %s: %w", id, err)
	}
	kind, err := gitipld.KindFromObjectType(obj.Type())
	if err != nil {
		return "", nil, fmt.Errorf("read object %s: %w", id, err)
	}
	r, err := obj.Reader()
	if err != nil {
		return "", nil, fmt.Errorf("read object %s: %w", id, err)
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("read object %s: %w", id, err)
	}
	return kind, raw, nil
}

// commitRef finalizes dest once the traversal has drained. The mapping moves
// only for a first push, a forced push, or a fast-forward; a rejected update
// leaves both the mapping and the recorded objects in place.
func (p *pusher) commitRef(src plumbing.Hash, dest string, force bool) error {
	op := "push: ref " + dest

	old, ok, err := p.tracker.LookupRef(dest)
	if err != nil {
		return wrap(KindLedger, op, err)
	}
	if ok && !force {
		ancestor, err := p.isAncestor(old, src)
		if err != nil {
			return err
		}
		if !ancestor {
			return wrap(KindRepo, op,
				fmt.Errorf("%w: %s does not descend from %s", ErrNonFastForward, src, old))
		}
	}
	if err := p.tracker.SetRef(dest, src); err != nil {
		return wrap(KindLedger, op, err)
	}
	p.log.Debug("ref committed", zap.String("name", dest), zap.Stringer("id", src))
	return nil
}

// isAncestor reports whether a lies in the commit ancestry of b. Annotated
// tags are peeled to their targets; the walk follows parent edges only.
func (p *pusher) isAncestor(a, b plumbing.Hash) (bool, error) {
	queue := []plumbing.Hash{b}
	seen := make(map[plumbing.Hash]struct{})
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == a {
			return true, nil
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		kind, raw, err := p.readObject(id)
		if err != nil {
			return false, wrap(KindRepo, "push: ancestry "+id.String(), err)
		}
		switch kind {
		case gitipld.KindTag:
			target, err := gitipld.TagTarget(raw)
			if err != nil {
				return false, wrap(KindDecode, "push: ancestry "+id.String(), err)
			}
			queue = append(queue, target)
		case gitipld.KindCommit:
			parents, err := gitipld.CommitParents(raw)
			if err != nil {
				return false, wrap(KindDecode, "push: ancestry "+id.String(), err)
			}
			queue = append(queue, parents...)
		}
	}
	return false, nil
}
