// Package smtlib extracts the slice of SMT-LIB2 this system understands
// from a parsed source file: array declarations, assertion trees, and the
// assignment comments that carry candidate evaluations. It consumes the
// s-expression tree produced by the hand-rolled tokenizer in sexpr.go.
package smtlib

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// AssignmentValue is one concrete word in a candidate assignment.
type AssignmentValue = uint64

// Assignment is a candidate valuation: variable name to ordered word
// values.
type Assignment struct {
	Variables map[string][]AssignmentValue
	Order     []string // preserves first-seen variable order for diagnostics
}

// HasVariable reports whether varName has a value in this assignment.
func (a Assignment) HasVariable(varName string) bool {
	_, ok := a.Variables[varName]
	return ok
}

// NumVariables returns the number of distinct variables this assignment
// carries a value for.
func (a Assignment) NumVariables() int { return len(a.Variables) }

// ArrayDecl is one declared array-typed free variable. The index sort is
// fixed at 32 bits by contract; Parse rejects anything else.
type ArrayDecl struct {
	Name          string
	ElementWidth  uint32
	IsBitvector   bool
}

// Program is the shim's view of one parsed SMT-LIB2 source: ordered
// assertions, ordered array declarations, ordered assignments, and the
// optional header metadata string.
type Program struct {
	Assertions  []SExpr
	Arrays      []ArrayDecl
	Assignments []Assignment
	Header      string
}

// Parse reads SMT-LIB2 source from r and extracts a Program. Assignment
// comment lines are recognized ahead of s-expression parsing since they are
// not valid SMT-LIB2 syntax (they're JSON-ish, embedded in ";" comments);
// everything else is tokenized and parsed as s-expressions.
func Parse(r io.Reader) (*Program, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	prog := &Program{}
	var codeLines []string

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "; {"):
			assignment, err := parseAssignmentLine(trimmed)
			if err != nil {
				return nil, fmt.Errorf("smtlib: %w", err)
			}
			prog.Assignments = append(prog.Assignments, assignment)
		case strings.HasPrefix(trimmed, "; Assignments"):
			prog.Header = trimmed
		case strings.HasPrefix(trimmed, ";"):
			// Ordinary comment: ignored.
		default:
			codeLines = append(codeLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("smtlib: reading input: %w", err)
	}

	forms, err := parseSExprs(tokenize(strings.Join(codeLines, "\n")))
	if err != nil {
		return nil, fmt.Errorf("smtlib: %w", err)
	}

	for _, form := range forms {
		if form.IsAtom() {
			continue
		}
		switch form.Head() {
		case "declare-fun":
			decl, err := parseArrayDecl(form)
			if err != nil {
				return nil, fmt.Errorf("smtlib: %w", err)
			}
			prog.Arrays = append(prog.Arrays, decl)
		case "assert":
			prog.Assertions = append(prog.Assertions, form)
		}
	}

	return prog, nil
}

// parseArrayDecl accepts exactly
// (declare-fun NAME () (Array (_ BitVec 32) (_ BitVec K))).
func parseArrayDecl(form SExpr) (ArrayDecl, error) {
	c := form.Children
	if len(c) != 4 || c[0].Atom != "declare-fun" {
		return ArrayDecl{}, fmt.Errorf("malformed declare-fun: %s", form)
	}
	name := c[1].Atom
	params := c[2]
	if params.IsAtom() || len(params.Children) != 0 {
		return ArrayDecl{}, fmt.Errorf("declare-fun %s: expected empty parameter list", name)
	}

	sort := c[3]
	if sort.IsAtom() || len(sort.Children) != 3 || sort.Children[0].Atom != "Array" {
		return ArrayDecl{}, fmt.Errorf("declare-fun %s: expected (Array ...) sort", name)
	}

	indexSort := sort.Children[1]
	indexWidth, err := bitVecWidth(indexSort)
	if err != nil {
		return ArrayDecl{}, fmt.Errorf("declare-fun %s: index sort: %w", name, err)
	}
	if indexWidth != 32 {
		return ArrayDecl{}, fmt.Errorf("declare-fun %s: index sort must be (_ BitVec 32), got width %d", name, indexWidth)
	}

	elemSort := sort.Children[2]
	elemWidth, err := bitVecWidth(elemSort)
	if err != nil {
		return ArrayDecl{}, fmt.Errorf("declare-fun %s: element sort: %w", name, err)
	}

	return ArrayDecl{Name: name, ElementWidth: elemWidth, IsBitvector: true}, nil
}

// bitVecWidth parses (_ BitVec K).
func bitVecWidth(sort SExpr) (uint32, error) {
	if sort.IsAtom() || len(sort.Children) != 3 ||
		sort.Children[0].Atom != "_" || sort.Children[1].Atom != "BitVec" {
		return 0, fmt.Errorf("expected (_ BitVec K), got %s", sort)
	}
	n, err := strconv.ParseUint(sort.Children[2].Atom, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad BitVec width %q: %w", sort.Children[2].Atom, err)
	}
	return uint32(n), nil
}

// parseAssignmentLine parses `; { "v": [n0, n1, ...], ... }`, including the
// permitted empty-array form `[]`.
func parseAssignmentLine(line string) (Assignment, error) {
	body := strings.TrimPrefix(line, ";")
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "{") || !strings.HasSuffix(body, "}") {
		return Assignment{}, fmt.Errorf("malformed assignment line: %s", line)
	}
	body = strings.TrimSuffix(strings.TrimPrefix(body, "{"), "}")

	assignment := Assignment{Variables: map[string][]AssignmentValue{}}

	body = strings.TrimSpace(body)
	for len(body) > 0 {
		if !strings.HasPrefix(body, `"`) {
			return Assignment{}, fmt.Errorf("malformed assignment line, expected variable name: %s", line)
		}
		end := strings.Index(body[1:], `"`)
		if end < 0 {
			return Assignment{}, fmt.Errorf("malformed assignment line, unterminated variable name: %s", line)
		}
		name := body[1 : 1+end]
		rest := strings.TrimSpace(body[1+end+1:])
		if !strings.HasPrefix(rest, ":") {
			return Assignment{}, fmt.Errorf("malformed assignment line, expected ':' after %q: %s", name, line)
		}
		rest = strings.TrimSpace(rest[1:])
		if !strings.HasPrefix(rest, "[") {
			return Assignment{}, fmt.Errorf("malformed assignment line, expected '[' for %q: %s", name, line)
		}
		closeIdx := strings.Index(rest, "]")
		if closeIdx < 0 {
			return Assignment{}, fmt.Errorf("malformed assignment line, unterminated array for %q: %s", name, line)
		}
		listBody := strings.TrimSpace(rest[1:closeIdx])

		var values []AssignmentValue
		if listBody != "" {
			for _, tok := range strings.Split(listBody, ",") {
				tok = strings.TrimSpace(tok)
				n, err := strconv.ParseUint(tok, 10, 64)
				if err != nil {
					return Assignment{}, fmt.Errorf("malformed assignment value %q for %q: %w", tok, name, err)
				}
				values = append(values, n)
			}
		}
		if _, dup := assignment.Variables[name]; !dup {
			assignment.Order = append(assignment.Order, name)
		}
		assignment.Variables[name] = values

		rest = strings.TrimSpace(rest[closeIdx+1:])
		if strings.HasPrefix(rest, ",") {
			body = strings.TrimSpace(rest[1:])
			continue
		}
		body = rest
		break
	}

	return assignment, nil
}
