package selector

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type token struct {
	tt   css.TokenType
	data string
	pos  int
}

// Parse converts text of a complex selector into an expression by replaying
// its fragments through Append and Combine, so the same ordering rules apply.
// Selector lists, namespaces and nesting are not supported.
func Parse(text string) (Expr, error) {
	toks, err := tokenize(text)
	if err != nil {
		return Expr{}, err
	}
	p := &parser{toks: toks}
	return p.run()
}

func tokenize(text string) ([]token, error) {
	l := css.NewLexer(parse.NewInputString(text))
	var (
		toks []token
		pos  int
	)
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
			}
			break
		}
		if tt != css.CommentToken {
			toks = append(toks, token{tt: tt, data: string(data), pos: pos})
		}
		pos += len(data)
	}
	// leading and trailing whitespace is not a combinator
	for len(toks) > 0 && toks[0].tt == css.WhitespaceToken {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].tt == css.WhitespaceToken {
		toks = toks[:len(toks)-1]
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty selector", ErrSyntax)
	}
	return toks, nil
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrSyntax, fmt.Sprintf(format, args...), t.pos)
}

func (p *parser) peek(off int) (token, bool) {
	if p.i+off >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.i+off], true
}

func (p *parser) run() (Expr, error) {
	var (
		result, cur Expr
		comb        string
		joined      bool
	)
	for p.i < len(p.toks) {
		t := p.toks[p.i]
		if isCombinator(t) {
			if cur.IsEmpty() {
				return Expr{}, p.errorf(t, "combinator %q without left side", strings.TrimSpace(t.data))
			}
			c := p.combinator()
			if p.i >= len(p.toks) {
				return Expr{}, p.errorf(t, "dangling combinator %q", c)
			}
			if joined {
				result = Combine(result, comb, cur)
			} else {
				result, joined = cur, true
			}
			comb, cur = c, Expr{}
			continue
		}
		k, v, err := p.simple()
		if err != nil {
			return Expr{}, err
		}
		if cur, err = cur.Append(k, v); err != nil {
			return Expr{}, fmt.Errorf("at offset %d: %w", t.pos, err)
		}
	}
	if !joined {
		return cur, nil
	}
	return Combine(result, comb, cur), nil
}

func isCombinator(t token) bool {
	switch t.tt {
	case css.WhitespaceToken:
		return true
	case css.DelimToken:
		return t.data == Child || t.data == Sibling || t.data == Adjacent
	}
	return false
}

// combinator consumes whitespace and at most one combinator delimiter.
func (p *parser) combinator() string {
	c := Descendant
	for p.i < len(p.toks) && p.toks[p.i].tt == css.WhitespaceToken {
		p.i++
	}
	if t, ok := p.peek(0); ok && t.tt == css.DelimToken && isCombinator(t) {
		c = t.data
		p.i++
		for p.i < len(p.toks) && p.toks[p.i].tt == css.WhitespaceToken {
			p.i++
		}
	}
	return c
}

// simple consumes single simple selector.
func (p *parser) simple() (Kind, string, error) {
	t := p.toks[p.i]
	p.i++
	switch t.tt {
	case css.IdentToken:
		return KindElement, t.data, nil
	case css.HashToken:
		return KindID, t.data[1:], nil
	case css.LeftBracketToken:
		v, err := p.block(t, css.LeftBracketToken, css.RightBracketToken)
		if err != nil {
			return 0, "", err
		}
		return KindAttribute, v, nil
	case css.ColonToken:
		k := KindPseudoClass
		if n, ok := p.peek(0); ok && n.tt == css.ColonToken {
			k = KindPseudoElement
			p.i++
		}
		n, ok := p.peek(0)
		if !ok {
			return 0, "", p.errorf(t, "missing %s name", k)
		}
		p.i++
		switch n.tt {
		case css.IdentToken:
			return k, n.data, nil
		case css.FunctionToken:
			v, err := p.block(n, css.LeftParenthesisToken, css.RightParenthesisToken)
			if err != nil {
				return 0, "", err
			}
			return k, n.data + v + ")", nil
		}
		return 0, "", p.errorf(n, "unexpected %q in %s", n.data, k)
	case css.DelimToken:
		switch t.data {
		case "*":
			return KindElement, t.data, nil
		case ".":
			if n, ok := p.peek(0); ok && n.tt == css.IdentToken {
				p.i++
				return KindClass, n.data, nil
			}
			return 0, "", p.errorf(t, "missing class name")
		}
	case css.CommaToken:
		return 0, "", p.errorf(t, "selector lists are not supported")
	}
	return 0, "", p.errorf(t, "unexpected %q", t.data)
}

// block collects verbatim text up to the token closing already consumed
// opener. Nested blocks of the same type and functions are balanced.
func (p *parser) block(opener token, open, closing css.TokenType) (string, error) {
	var sb strings.Builder
	depth := 1
	for ; p.i < len(p.toks); p.i++ {
		t := p.toks[p.i]
		switch {
		case t.tt == open || (open == css.LeftParenthesisToken && t.tt == css.FunctionToken):
			depth++
		case t.tt == closing:
			depth--
			if depth == 0 {
				p.i++
				return sb.String(), nil
			}
		}
		sb.WriteString(t.data)
	}
	return "", p.errorf(opener, "unterminated %q", opener.data)
}
