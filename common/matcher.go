package common

import (
	"fmt"
	"strings"

	"github.com/IGLOU-EU/go-wildcard/v2"
)

type tokenType int

const (
	tokenOr tokenType = iota
	tokenAnd
	tokenNot
	tokenLParen
	tokenRParen
	tokenPattern
)

type token struct {
	typ   tokenType
	value string
}

type parser struct {
	tokens []token
	pos    int
}

// MethodMatcher reports whether a method name is selected by a filter.
type MethodMatcher func(method string) bool

// CompileMethodFilter parses a filter such as "eth_get* & !eth_getLogs" or
// "(debug_* | trace_*)". Terms are wildcard patterns; an empty filter matches
// every method.
func CompileMethodFilter(filter string) (MethodMatcher, error) {
	if strings.TrimSpace(filter) == "" {
		return func(string) bool { return true }, nil
	}

	tokens := tokenize(filter)
	depth := 0
	for i, tok := range tokens {
		switch tok.typ {
		case tokenLParen:
			depth++
		case tokenRParen:
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unmatched closing parenthesis at position %d", i)
			}
		case tokenOr, tokenAnd:
			if i == 0 || i == len(tokens)-1 {
				return nil, fmt.Errorf("operator '%s' missing operand at position %d", tok.value, i)
			}
			if prev := tokens[i-1]; prev.typ != tokenPattern && prev.typ != tokenRParen {
				return nil, fmt.Errorf("invalid left operand for '%s' at position %d", tok.value, i)
			}
			if next := tokens[i+1]; next.typ != tokenPattern && next.typ != tokenLParen && next.typ != tokenNot {
				return nil, fmt.Errorf("invalid right operand for '%s' at position %d", tok.value, i)
			}
		case tokenNot:
			if i == len(tokens)-1 {
				return nil, fmt.Errorf("NOT operator missing operand at position %d", i)
			}
		}
	}
	if depth > 0 {
		return nil, fmt.Errorf("unclosed parenthesis")
	}

	p := &parser{tokens: tokens}
	match, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(tokens) {
		return nil, fmt.Errorf("unexpected token at position %d: %s", p.pos, tokens[p.pos].value)
	}
	return match, nil
}

func tokenize(filter string) []token {
	var tokens []token
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, token{tokenPattern, current.String()})
			current.Reset()
		}
	}

	for i := 0; i < len(filter); i++ {
		c := filter[i]
		switch c {
		case '|':
			flush()
			tokens = append(tokens, token{tokenOr, "|"})
		case '&':
			flush()
			tokens = append(tokens, token{tokenAnd, "&"})
		case '!':
			flush()
			tokens = append(tokens, token{tokenNot, "!"})
		case '(':
			flush()
			tokens = append(tokens, token{tokenLParen, "("})
		case ')':
			flush()
			tokens = append(tokens, token{tokenRParen, ")"})
		case ' ', '\t':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()

	return tokens
}

func (p *parser) current() token {
	if p.pos >= len(p.tokens) {
		return token{tokenPattern, ""}
	}
	return p.tokens[p.pos]
}

func (p *parser) parseOr() (MethodMatcher, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.tokens) && p.current().typ == tokenOr {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		prev := left
		left = func(s string) bool { return prev(s) || right(s) }
	}
	return left, nil
}

func (p *parser) parseAnd() (MethodMatcher, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.tokens) && p.current().typ == tokenAnd {
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		prev := left
		left = func(s string) bool { return prev(s) && right(s) }
	}
	return left, nil
}

func (p *parser) parseUnary() (MethodMatcher, error) {
	if p.current().typ == tokenNot {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return func(s string) bool { return !operand(s) }, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (MethodMatcher, error) {
	switch tok := p.current(); tok.typ {
	case tokenLParen:
		p.pos++
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.current().typ != tokenRParen {
			return nil, fmt.Errorf("expected closing parenthesis")
		}
		p.pos++
		return expr, nil
	case tokenPattern:
		if tok.value == "" {
			return nil, fmt.Errorf("missing pattern at position %d", p.pos)
		}
		p.pos++
		return func(method string) bool {
			return wildcard.Match(tok.value, method)
		}, nil
	}
	return nil, fmt.Errorf("unexpected token at position %d: %s", p.pos, p.current().value)
}
