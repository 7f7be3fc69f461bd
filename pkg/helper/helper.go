// Package helper is the session facade behind the remote-helper protocol:
// it owns one repository handle and one tracker for the process lifetime and
// exposes the list and push operations.
package helper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"github.com/ipgrv/git-remote-ipgrv/pkg/helper/config"
	"github.com/ipgrv/git-remote-ipgrv/pkg/ipfs"
	"github.com/ipgrv/git-remote-ipgrv/pkg/tracker"
)

// ledgerDirName is the directory inside the repository's control directory
// holding the embedded store. Created on first use, never deleted.
const ledgerDirName = "ipgrv"

// dagStore is the single content-store capability the push engine consumes.
type dagStore interface {
	DagPut(ctx context.Context, payload []byte) (cid.Cid, error)
}

// Helper is the session facade.
type Helper struct {
	repo    *git.Repository
	tracker *tracker.Tracker
	store   dagStore
	log     *zap.Logger
}

// New opens the repository named by GIT_DIR and the ledger beneath it. The
// environment variable is read once here; its absence is a configuration
// error, not a repository error.
func New(log *zap.Logger) (*Helper, error) {
	gitDir := os.Getenv("GIT_DIR")
	if gitDir == "" {
		return nil, wrap(KindConfig, "helper: new", errors.New("GIT_DIR is not set"))
	}

	ledgerDir := filepath.Join(gitDir, ledgerDirName)
	cfg, err := config.Load(filepath.Join(ledgerDir, "config.toml"))
	if err != nil {
		return nil, wrap(KindConfig, "helper: new", err)
	}

	repo, err := git.PlainOpen(gitDir)
	if err != nil {
		return nil, wrap(KindRepo, "helper: new", err)
	}

	tr, err := tracker.Open(ledgerDir)
	if err != nil {
		return nil, wrap(KindLedger, "helper: new", err)
	}

	shell, err := ipfs.NewShell(cfg.APIURL, cfg.Timeout())
	if err != nil {
		tr.Close()
		return nil, wrap(KindConfig, "helper: new", err)
	}

	log.Debug("helper opened", zap.String("git_dir", gitDir), zap.String("api_url", cfg.APIURL))
	return newHelper(repo, tr, shell, log), nil
}

func newHelper(repo *git.Repository, tr *tracker.Tracker, store dagStore, log *zap.Logger) *Helper {
	return &Helper{repo: repo, tracker: tr, store: store, log: log}
}

// Close releases the ledger.
func (h *Helper) Close() error {
	if h.tracker == nil {
		return nil
	}
	return wrap(KindLedger, "helper: close", h.tracker.Close())
}

// List enumerates local branches as "? <fullRefName>" lines in repository
// enumeration order, followed by one line reporting HEAD.
func (h *Helper) List() ([]string, error) {
	const op = "helper: list"

	branches, err := h.repo.Branches()
	if err != nil {
		return nil, wrap(KindRepo, op, err)
	}
	var lines []string
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		name := string(ref.Name())
		if !utf8.ValidString(name) {
			return fmt.Errorf("branch name %q is not valid UTF-8", name)
		}
		lines = append(lines, "? "+name)
		return nil
	})
	if err != nil {
		return nil, wrap(KindRepo, op, err)
	}

	head, err := h.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return nil, wrap(KindRepo, op, err)
	}
	switch head.Type() {
	case plumbing.HashReference:
		lines = append(lines, head.Hash().String()+" HEAD")
	case plumbing.SymbolicReference:
		target := string(head.Target())
		if !utf8.ValidString(target) {
			return nil, wrap(KindRepo, op, fmt.Errorf("HEAD target %q is not valid UTF-8", target))
		}
		lines = append(lines, target+" HEAD")
	default:
		return nil, wrap(KindRepo, op, fmt.Errorf("HEAD has unknown reference type"))
	}
	return lines, nil
}

// Push resolves src through any symbolic indirection and synchronizes the
// graph reachable from it, then commits dest in the ledger.
func (h *Helper) Push(ctx context.Context, src, dest string, force bool) error {
	ref, err := h.repo.Reference(plumbing.ReferenceName(src), true)
	if err != nil {
		return wrap(KindRepo, "helper: push "+src, err)
	}
	h.log.Debug("push",
		zap.String("src", src),
		zap.String("dest", dest),
		zap.Bool("force", force),
		zap.String("hash", ref.Hash().String()))

	p := newPusher(h.repo.Storer, h.store, h.tracker, h.log)
	return p.push(ctx, ref.Hash(), dest, force)
}
