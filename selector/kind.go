package selector

import (
	"fmt"
	"strings"
)

// Kind is a type of simple selector which may take part in a compound
// selector. Kinds are declared in the order CSS requires them to appear.
type Kind int

const (
	KindElement Kind = iota
	KindID
	KindClass
	KindAttribute
	KindPseudoClass
	KindPseudoElement
)

// NoRank is the rank of an expression nothing was appended to yet.
const NoRank = -1

type descriptor struct {
	label  string
	repeat bool
	render func(string) string
}

// kinds is indexed by Kind, index is the rank. Validation and error messages
// are both derived from this table.
var kinds = [...]descriptor{
	KindElement:       {label: "element", render: func(v string) string { return v }},
	KindID:            {label: "id", render: func(v string) string { return "#" + v }},
	KindClass:         {label: "class", repeat: true, render: func(v string) string { return "." + v }},
	KindAttribute:     {label: "attribute", repeat: true, render: func(v string) string { return "[" + v + "]" }},
	KindPseudoClass:   {label: "pseudo-class", repeat: true, render: func(v string) string { return ":" + v }},
	KindPseudoElement: {label: "pseudo-element", render: func(v string) string { return "::" + v }},
}

// IsValid reports whether k is one of the declared kinds.
func (k Kind) IsValid() bool {
	return k >= 0 && int(k) < len(kinds)
}

// Rank returns position of the kind in canonical CSS ordering.
func (k Kind) Rank() int {
	return int(k)
}

// Repeatable reports whether kind may occur several times in a row.
func (k Kind) Repeatable() bool {
	return kinds[k].repeat
}

// Render returns textual form of a fragment of this kind.
func (k Kind) Render(v string) string {
	return kinds[k].render(v)
}

func (k Kind) String() string {
	if !k.IsValid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].label
}

// KindNames returns labels of all kinds in rank order.
func KindNames() []string {
	names := make([]string, 0, len(kinds))
	for _, d := range kinds {
		names = append(names, d.label)
	}
	return names
}

// ParseKind converts label (case insensitive) into Kind. "attr" is accepted
// as an alias for attribute.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "attr" {
		return KindAttribute, nil
	}
	for i, d := range kinds {
		if d.label == key {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%s is not a valid Kind, try [%s]", name, strings.Join(KindNames(), ", "))
}

// uniqueNames returns labels of non repeatable kinds in rank order.
func uniqueNames() []string {
	var names []string
	for _, d := range kinds {
		if !d.repeat {
			names = append(names, d.label)
		}
	}
	return names
}

// joinNatural joins words as in "a, b and c".
func joinNatural(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	}
	return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
}
