package testutil

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// evalCondition evaluates a condition expression against item (nil when absent).
// Supported: attribute_exists, attribute_not_exists, =, <>, AND, OR, NOT, parentheses.
func evalCondition(expr string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	p := &condParser{toks: tokenize(expr), item: item, names: names, values: values}
	v, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.toks) {
		return false, fmt.Errorf("unexpected token %q in %q", p.toks[p.pos], expr)
	}
	return v, nil
}

type condParser struct {
	toks   []string
	pos    int
	item   map[string]types.AttributeValue
	names  map[string]string
	values map[string]types.AttributeValue
}

func (p *condParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *condParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *condParser) expect(tok string) error {
	if got := p.next(); got != tok {
		return fmt.Errorf("expected %q, got %q", tok, got)
	}
	return nil
}

func (p *condParser) parseOr() (bool, error) {
	left, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for strings.EqualFold(p.peek(), "OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		left = left || right
	}
	return left, nil
}

func (p *condParser) parseAnd() (bool, error) {
	left, err := p.parseNot()
	if err != nil {
		return false, err
	}
	for strings.EqualFold(p.peek(), "AND") {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return false, err
		}
		left = left && right
	}
	return left, nil
}

func (p *condParser) parseNot() (bool, error) {
	if strings.EqualFold(p.peek(), "NOT") {
		p.next()
		v, err := p.parseNot()
		return !v, err
	}
	return p.parsePrimary()
}

func (p *condParser) parsePrimary() (bool, error) {
	tok := p.next()
	switch {
	case tok == "(":
		v, err := p.parseOr()
		if err != nil {
			return false, err
		}
		return v, p.expect(")")
	case tok == "attribute_exists" || tok == "attribute_not_exists":
		if err := p.expect("("); err != nil {
			return false, err
		}
		name := resolveName(p.next(), p.names)
		if err := p.expect(")"); err != nil {
			return false, err
		}
		_, ok := p.item[name]
		if tok == "attribute_exists" {
			return ok, nil
		}
		return !ok, nil
	default:
		op := p.next()
		rhs := p.next()
		left, lok := p.operand(tok)
		right, rok := p.operand(rhs)
		switch op {
		case "=":
			return lok && rok && avEqual(left, right), nil
		case "<>":
			if !lok || !rok {
				return true, nil
			}
			return !avEqual(left, right), nil
		default:
			return false, fmt.Errorf("unsupported operator %q", op)
		}
	}
}

func (p *condParser) operand(tok string) (types.AttributeValue, bool) {
	if strings.HasPrefix(tok, ":") {
		v, ok := p.values[tok]
		return v, ok
	}
	v, ok := p.item[resolveName(tok, p.names)]
	return v, ok
}

func tokenize(expr string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	rs := []rune(expr)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			flush()
		case r == '(' || r == ')' || r == '=':
			flush()
			toks = append(toks, string(r))
		case r == '<' && i+1 < len(rs) && rs[i+1] == '>':
			flush()
			toks = append(toks, "<>")
			i++
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}
