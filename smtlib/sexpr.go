package smtlib

import (
	"fmt"
	"strings"
)

// SExpr is a parsed s-expression node: either an atom (Head == "" and no
// children) or a list of children headed by the token in position 0.
//
// No third-party SMT-LIB2/s-expression parsing library appears anywhere in
// the retrieved corpus, so this tokenizer is hand-rolled against the
// standard library; see DESIGN.md for why no suitable dependency covers it.
type SExpr struct {
	Atom     string
	Children []SExpr
}

// IsAtom reports whether this node is a leaf token rather than a list.
func (s SExpr) IsAtom() bool { return s.Children == nil }

// Head returns the leading token of a list node, or the atom itself for a
// leaf node.
func (s SExpr) Head() string {
	if s.IsAtom() {
		return s.Atom
	}
	if len(s.Children) == 0 {
		return ""
	}
	return s.Children[0].Head()
}

func (s SExpr) String() string {
	if s.IsAtom() {
		return s.Atom
	}
	parts := make([]string, len(s.Children))
	for i, c := range s.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// tokenize splits a single line of SMT-LIB2 source into parens and atoms.
func tokenize(line string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

// parseSExprs parses a full stream of tokens into zero or more top-level
// s-expressions (assertions are always single lists, but the parser accepts
// any number of top-level forms per source blob).
func parseSExprs(toks []string) ([]SExpr, error) {
	pos := 0
	var parseOne func() (SExpr, error)
	parseOne = func() (SExpr, error) {
		if pos >= len(toks) {
			return SExpr{}, fmt.Errorf("smtlib: unexpected end of input")
		}
		tok := toks[pos]
		if tok == "(" {
			pos++
			var children []SExpr
			for {
				if pos >= len(toks) {
					return SExpr{}, fmt.Errorf("smtlib: unterminated list")
				}
				if toks[pos] == ")" {
					pos++
					break
				}
				child, err := parseOne()
				if err != nil {
					return SExpr{}, err
				}
				children = append(children, child)
			}
			if children == nil {
				children = []SExpr{}
			}
			return SExpr{Children: children}, nil
		}
		if tok == ")" {
			return SExpr{}, fmt.Errorf("smtlib: unexpected )")
		}
		pos++
		return SExpr{Atom: tok}, nil
	}

	var out []SExpr
	for pos < len(toks) {
		e, err := parseOne()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
