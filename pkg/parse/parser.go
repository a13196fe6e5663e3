package parse

import (
	"fmt"

	"github.com/evidentialbus/etbcore/pkg/term"
)

// Parser turns a lexer's token stream into Clauses, one at a time.
type Parser struct {
	lex *lexer
	cur token
}

func newParser(src string) (*Parser, error) {
	p := &Parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

// ParseProgram parses src as a sequence of Datalog clauses. Every clause
// that fails to parse is skipped (its tokens are discarded up through the
// next "." and parsing resumes after it) and its error is collected rather
// than aborting the whole parse, so one malformed clause in a large rule
// file does not cost every clause after it.
func ParseProgram(src string) ([]*term.Clause, []error) {
	p, err := newParser(src)
	if err != nil {
		return nil, []error{err}
	}
	var clauses []*term.Clause
	var errs []error
	for p.cur.kind != tokEOF {
		c, err := p.parseClause()
		if err != nil {
			errs = append(errs, err)
			p.resync()
			continue
		}
		if err := c.CheckSafety(); err != nil {
			errs = append(errs, err)
			continue
		}
		clauses = append(clauses, c)
	}
	return clauses, errs
}

// resync discards tokens up through the next "." (or EOF) so the next
// clause can be attempted even after a malformed one. Lexer errors
// encountered while scanning past the bad clause are swallowed: the
// original error already explains what's wrong with this clause, and the
// resync loop's only job is to find the next likely clause boundary.
func (p *Parser) resync() {
	for {
		t, err := p.lex.next()
		if err != nil {
			// Skip one rune and keep trying; a lone bad character shouldn't
			// make resync loop forever.
			p.lex.advance()
			continue
		}
		if t.kind == tokEOF {
			p.cur = t
			return
		}
		if t.kind == tokDot {
			if err := p.advance(); err != nil {
				p.cur = token{kind: tokEOF}
			}
			return
		}
	}
}

func (p *Parser) parseClause() (*term.Clause, error) {
	head, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	switch p.cur.kind {
	case tokDot:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return term.NewFact(head), nil
	case tokImpliesDerivation:
		if err := p.advance(); err != nil {
			return nil, err
		}
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokDot, "."); err != nil {
			return nil, err
		}
		return term.NewRule(term.KindDerivationRule, head, body...), nil
	case tokImpliesInference:
		if err := p.advance(); err != nil {
			return nil, err
		}
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokDot, "."); err != nil {
			return nil, err
		}
		return term.NewRule(term.KindInferenceRule, head, body...), nil
	default:
		return nil, fmt.Errorf("parse: line %d: expected '.', ':-' or '<=' after %s", p.cur.line, head.String())
	}
}

func (p *Parser) expect(k tokenKind, what string) error {
	if p.cur.kind != k {
		return fmt.Errorf("parse: line %d: expected %q", p.cur.line, what)
	}
	return p.advance()
}

func (p *Parser) parseBody() ([]*term.Literal, error) {
	var body []*term.Literal
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		body = append(body, lit)
		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		return body, nil
	}
}

// parseLiteral parses one body (or head) literal: a predicate application
// "pred(arg, ...)", a bare zero-arity predicate "pred", or an infix
// equality/inequality "term = term" / "term != term" (spec.md §6's
// "=/!=" sugar for the built-in eq/neq predicates).
func (p *Parser) parseLiteral() (*term.Literal, error) {
	if p.cur.kind == tokID {
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokLParen {
			if err := p.advance(); err != nil {
				return nil, err
			}
			var args []*term.Term
			if p.cur.kind != tokRParen {
				for {
					t, err := p.parseTerm()
					if err != nil {
						return nil, err
					}
					args = append(args, t)
					if p.cur.kind == tokComma {
						if err := p.advance(); err != nil {
							return nil, err
						}
						continue
					}
					break
				}
			}
			if err := p.expect(tokRParen, ")"); err != nil {
				return nil, err
			}
			return term.NewLiteral(name, args...), nil
		}
		return p.maybeInfix(term.NewIDConst(name), name)
	}

	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return p.maybeInfix(lhs, "")
}

func (p *Parser) maybeInfix(lhs *term.Term, bareName string) (*term.Literal, error) {
	switch p.cur.kind {
	case tokEq:
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return term.NewLiteral("eq", lhs, rhs), nil
	case tokNeq:
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return term.NewLiteral("neq", lhs, rhs), nil
	default:
		if bareName == "" {
			return nil, fmt.Errorf("parse: line %d: expected a literal", p.cur.line)
		}
		return term.NewLiteral(bareName), nil
	}
}

// parseTerm parses a single argument term: a variable, a bare id constant,
// a quoted string, a number, a bool, an array "[t, ...]" or a map
// "{\"k\": t, ...}".
func (p *Parser) parseTerm() (*term.Term, error) {
	switch p.cur.kind {
	case tokVar:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return term.NewVar(name), nil
	case tokID:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return term.NewIDConst(name), nil
	case tokString:
		s := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return term.NewStringConst(s), nil
	case tokNumber:
		n, err := parseNumber(p.cur.text)
		if err != nil {
			return nil, fmt.Errorf("parse: line %d: malformed number %q", p.cur.line, p.cur.text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return term.NewNumberConst(n), nil
	case tokBool:
		b := p.cur.text == "true"
		if err := p.advance(); err != nil {
			return nil, err
		}
		return term.NewBoolConst(b), nil
	case tokLBracket:
		if err := p.advance(); err != nil {
			return nil, err
		}
		var elems []*term.Term
		if p.cur.kind != tokRBracket {
			for {
				t, err := p.parseTerm()
				if err != nil {
					return nil, err
				}
				elems = append(elems, t)
				if p.cur.kind == tokComma {
					if err := p.advance(); err != nil {
						return nil, err
					}
					continue
				}
				break
			}
		}
		if err := p.expect(tokRBracket, "]"); err != nil {
			return nil, err
		}
		return term.NewArray(elems...), nil
	case tokLBrace:
		if err := p.advance(); err != nil {
			return nil, err
		}
		entries := map[string]*term.Term{}
		if p.cur.kind != tokRBrace {
			for {
				if p.cur.kind != tokString {
					return nil, fmt.Errorf("parse: line %d: expected a quoted map key", p.cur.line)
				}
				key := p.cur.text
				if err := p.advance(); err != nil {
					return nil, err
				}
				if err := p.expect(tokColon, ":"); err != nil {
					return nil, err
				}
				v, err := p.parseTerm()
				if err != nil {
					return nil, err
				}
				entries[key] = v
				if p.cur.kind == tokComma {
					if err := p.advance(); err != nil {
						return nil, err
					}
					continue
				}
				break
			}
		}
		if err := p.expect(tokRBrace, "}"); err != nil {
			return nil, err
		}
		return term.NewMap(entries), nil
	default:
		return nil, fmt.Errorf("parse: line %d: expected a term", p.cur.line)
	}
}
