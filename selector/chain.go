package selector

// Chain wraps Expr for fluent building. First error is kept and all following
// calls do nothing. Chain is a value, copies do not share state.
type Chain struct {
	expr Expr
	err  error
}

// Begin starts a new chain from the empty expression.
func Begin() Chain {
	return Chain{}
}

// From starts a chain from existing expression.
func From(e Expr) Chain {
	return Chain{expr: e}
}

func (c Chain) add(k Kind, v string) Chain {
	if c.err != nil {
		return c
	}
	e, err := c.expr.Append(k, v)
	if err != nil {
		return Chain{expr: c.expr, err: err}
	}
	return Chain{expr: e}
}

func (c Chain) Element(v string) Chain       { return c.add(KindElement, v) }
func (c Chain) ID(v string) Chain            { return c.add(KindID, v) }
func (c Chain) Class(v string) Chain         { return c.add(KindClass, v) }
func (c Chain) Attr(v string) Chain          { return c.add(KindAttribute, v) }
func (c Chain) PseudoClass(v string) Chain   { return c.add(KindPseudoClass, v) }
func (c Chain) PseudoElement(v string) Chain { return c.add(KindPseudoElement, v) }

// Append adds fragment of arbitrary kind.
func (c Chain) Append(k Kind, v string) Chain { return c.add(k, v) }

// Combine joins c and other with combinator. Error of c takes precedence
// over error of other.
func (c Chain) Combine(combinator string, other Chain) Chain {
	if c.err != nil {
		return c
	}
	if other.err != nil {
		return Chain{expr: c.expr, err: other.err}
	}
	return Chain{expr: Combine(c.expr, combinator, other.expr)}
}

// Expr returns built expression or the first error encountered.
func (c Chain) Expr() (Expr, error) {
	if c.err != nil {
		return Expr{}, c.err
	}
	return c.expr, nil
}

// Err returns the first error encountered.
func (c Chain) Err() error {
	return c.err
}

// String renders expression built so far, ignoring any error.
func (c Chain) String() string {
	return c.expr.text
}
