package parse

import (
	"fmt"

	"github.com/evidentialbus/etbcore/pkg/term"
)

// ParseLiteral parses a single standalone literal, such as a query typed on
// a command line ("path(a, X)"), with or without a trailing ".".
func ParseLiteral(src string) (*term.Literal, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("parse: line %d: unexpected trailing input after literal", p.cur.line)
	}
	return lit, nil
}
