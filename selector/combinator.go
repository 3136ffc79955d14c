package selector

import (
	"fmt"
	"strings"
)

var combinatorNames = map[string]string{
	"descendant": Descendant,
	"child":      Child,
	"sibling":    Sibling,
	"adjacent":   Adjacent,
}

// ParseCombinator accepts combinator symbol or one of the names: descendant,
// child, sibling, adjacent. Result is suitable for Combine.
func ParseCombinator(s string) (string, error) {
	switch s {
	case Descendant, Child, Sibling, Adjacent:
		return s, nil
	}
	if c, ok := combinatorNames[strings.ToLower(s)]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%q is not a valid combinator, try [descendant, child, sibling, adjacent]", s)
}
