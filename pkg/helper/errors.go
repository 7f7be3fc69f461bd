package helper

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the collaborator that produced it, so the
// command-protocol layer has one error surface to match against.
type Kind int

const (
	KindConfig Kind = iota + 1 // missing or invalid environment/configuration
	KindRepo                   // object database or reference access
	KindLedger                 // tracker I/O, transaction, or invariant violation
	KindStore                  // content store submission
	KindEncode                 // canonical payload build
	KindDecode                 // canonical payload parse
	KindBadId                  // embedded hash is not a valid native identifier
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindRepo:
		return "repository"
	case KindLedger:
		return "ledger"
	case KindStore:
		return "store"
	case KindEncode:
		return "encode"
	case KindDecode:
		return "decode"
	case KindBadId:
		return "bad-id"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by the facade. Err carries the
// collaborator's failure unchanged.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNonFastForward is returned when a push would move a reference to an
// identifier that does not descend from its current mapping.
var ErrNonFastForward = errors.New("non-fast-forward update")

// wrap tags err with a kind. Errors already tagged keep their original kind.
func wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
