package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ipgrv/git-remote-ipgrv/pkg/helper"
)

// session is the surface the command protocol drives.
type session interface {
	List() ([]string, error)
	Push(ctx context.Context, src, dest string, force bool) error
}

// pushSpec is one parsed "push [+]<src>:<dest>" command.
type pushSpec struct {
	src, dest string
	force     bool
}

// runProtocol speaks the line-oriented remote-helper protocol on r/w. Push
// commands arrive in a batch terminated by a blank line; each ref gets an
// "ok" or "error" status line. A blank line outside a batch ends the session.
func runProtocol(ctx context.Context, r io.Reader, w io.Writer, s session, log *zap.Logger) error {
	sc := bufio.NewScanner(r)
	out := bufio.NewWriter(w)
	defer out.Flush()

	var pending []pushSpec
	for sc.Scan() {
		line := sc.Text()
		log.Debug("command", zap.String("line", line))

		switch {
		case line == "":
			if len(pending) == 0 {
				return out.Flush()
			}
			runPushBatch(ctx, out, s, pending, log)
			pending = nil

		case line == "capabilities":
			fmt.Fprintln(out, "push")
			fmt.Fprintln(out)

		case line == "list", line == "list for-push":
			lines, err := s.List()
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Fprintln(out, l)
			}
			fmt.Fprintln(out)

		case strings.HasPrefix(line, "push "):
			spec, err := parsePushSpec(strings.TrimPrefix(line, "push "))
			if err != nil {
				return err
			}
			pending = append(pending, spec)

		case line == "fetch", strings.HasPrefix(line, "fetch "):
			return errors.New("fetch is not supported by this helper")

		default:
			return fmt.Errorf("unknown command %q", line)
		}

		if err := out.Flush(); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if len(pending) > 0 {
		runPushBatch(ctx, out, s, pending, log)
	}
	return out.Flush()
}

// runPushBatch executes the collected push commands and reports one status
// line per destination ref, then the terminating blank line. A failed ref
// does not stop the rest of the batch.
func runPushBatch(ctx context.Context, out io.Writer, s session, batch []pushSpec, log *zap.Logger) {
	for _, spec := range batch {
		if err := s.Push(ctx, spec.src, spec.dest, spec.force); err != nil {
			log.Warn("push failed",
				zap.String("src", spec.src),
				zap.String("dest", spec.dest),
				zap.Error(err))
			fmt.Fprintf(out, "error %s %s\n", spec.dest, pushFailureReason(err))
			continue
		}
		fmt.Fprintf(out, "ok %s\n", spec.dest)
	}
	fmt.Fprintln(out)
}

func parsePushSpec(arg string) (pushSpec, error) {
	arg = strings.TrimSpace(arg)
	force := strings.HasPrefix(arg, "+")
	arg = strings.TrimPrefix(arg, "+")

	src, dest, ok := strings.Cut(arg, ":")
	if !ok || src == "" || dest == "" {
		return pushSpec{}, fmt.Errorf("malformed push refspec %q", arg)
	}
	return pushSpec{src: src, dest: dest, force: force}, nil
}

// pushFailureReason compacts an error into the single status word git shows
// to the user.
func pushFailureReason(err error) string {
	if errors.Is(err, helper.ErrNonFastForward) {
		return "non-fast-forward"
	}
	var he *helper.Error
	if errors.As(err, &he) {
		return he.Kind.String() + "-error"
	}
	return "failed"
}
