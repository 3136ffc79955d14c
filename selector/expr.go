// Package selector builds CSS selector strings, enforcing the order of simple
// selectors inside a compound selector.
package selector

// Combinators accepted by Combine. Any other string is passed through as is.
const (
	Descendant = " "
	Child      = ">"
	Sibling    = "~"
	Adjacent   = "+"
)

// Expr is an immutable selector expression. Every operation returns a new
// value, so an expression may be used as the start of several unrelated
// chains. Zero value is an empty expression.
type Expr struct {
	text string
	// last holds rank of the last appended fragment plus one, so zero value
	// stands for NoRank.
	last int
}

// Empty is the shared starting point for building expressions.
var Empty Expr

// LastRank returns rank of the last appended fragment or NoRank.
func (e Expr) LastRank() int {
	return e.last - 1
}

// IsEmpty reports whether expression has no text.
func (e Expr) IsEmpty() bool {
	return len(e.text) == 0
}

func (e Expr) String() string {
	return e.text
}

// Render returns accumulated text of the expression.
func Render(e Expr) string {
	return e.text
}

// Append returns a new expression with fragment v of kind k added. Fragment
// value is used verbatim.
func (e Expr) Append(k Kind, v string) (Expr, error) {
	if !k.IsValid() {
		panic("invalid selector kind")
	}
	prev := e.LastRank()
	if k.Rank() < prev {
		return Expr{}, &GrammarError{Kind: k, Prev: prev, Value: v, err: ErrOrderViolation}
	}
	if !k.Repeatable() && k.Rank() == prev {
		return Expr{}, &GrammarError{Kind: k, Prev: prev, Value: v, err: ErrDuplicateUnique}
	}
	return Expr{text: e.text + k.Render(v), last: k.Rank() + 1}, nil
}

// Element appends type selector, e.g. "div" or "*".
func (e Expr) Element(v string) (Expr, error) { return e.Append(KindElement, v) }

// ID appends "#v".
func (e Expr) ID(v string) (Expr, error) { return e.Append(KindID, v) }

// Class appends ".v".
func (e Expr) Class(v string) (Expr, error) { return e.Append(KindClass, v) }

// Attr appends "[v]", v must include operator and value if any:
// `href$=".png"`.
func (e Expr) Attr(v string) (Expr, error) { return e.Append(KindAttribute, v) }

// PseudoClass appends ":v".
func (e Expr) PseudoClass(v string) (Expr, error) { return e.Append(KindPseudoClass, v) }

// PseudoElement appends "::v".
func (e Expr) PseudoElement(v string) (Expr, error) { return e.Append(KindPseudoElement, v) }

// Combine joins two expressions with combinator surrounded by single spaces.
// Result starts a new compound selector, so any fragment may be appended to
// it.
func Combine(left Expr, combinator string, right Expr) Expr {
	return Expr{text: left.text + " " + combinator + " " + right.text}
}

// Must panics if err is not nil. It simplifies initialization of variables
// holding known good expressions.
func Must(e Expr, err error) Expr {
	if err != nil {
		panic(`selector: ` + err.Error())
	}
	return e
}
