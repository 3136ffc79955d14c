package selector

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOrderViolation is returned when a fragment is appended after a
	// fragment of a higher rank.
	ErrOrderViolation = errors.New("selector parts should be arranged in the following order: " + strings.Join(KindNames(), ", "))
	// ErrDuplicateUnique is returned when a non repeatable fragment is
	// appended right after a fragment of the same kind.
	ErrDuplicateUnique = errors.New(joinNatural(uniqueNames()) + " should not occur more than once inside the selector")
	// ErrSyntax is returned by Parse for text which is not a complex
	// selector the builder could produce.
	ErrSyntax = errors.New("malformed selector")
)

// GrammarError describes rejected append.
type GrammarError struct {
	Kind  Kind   // kind being appended
	Prev  int    // rank of the last fragment already in expression
	Value string // rejected fragment value
	err   error
}

func (e *GrammarError) Error() string {
	return e.err.Error()
}

func (e *GrammarError) Unwrap() error {
	return e.err
}

// Detail returns error text including the offending fragment.
func (e *GrammarError) Detail() string {
	prev := "nothing"
	if e.Prev != NoRank {
		prev = Kind(e.Prev).String()
	}
	return fmt.Sprintf("%s %q after %s: %s", e.Kind, e.Kind.Render(e.Value), prev, e.err)
}
