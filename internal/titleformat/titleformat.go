// Package titleformat evaluates the player title-formatting language used by
// the now-playing scripts.
//
// Supported syntax:
//
//	%field%          metadata field, true when the field exists
//	'text'           literal text; '' is a single quote
//	[ ... ]          conditional section, emitted only when a field inside is true
//	$func(a,b,...)   function call, see funcs for the list
//
// Everything else is literal text.
package titleformat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is returned when a script cannot be compiled.
var ErrSyntax = errors.New("title format syntax error")

// Fields resolves metadata fields by name.
type Fields interface {
	Field(name string) (string, bool)
}

// MapFields is a case-insensitive Fields backed by a map with lower-case keys.
type MapFields map[string]string

// Field implements Fields.
func (m MapFields) Field(name string) (string, bool) {
	v, ok := m[strings.ToLower(name)]
	return v, ok
}

// Script is a compiled title-format script. It is safe for concurrent use.
type Script struct {
	src   string
	nodes seq
}

// Compile parses src into a Script.
func Compile(src string) (*Script, error) {
	p := &parser{src: src}
	nodes, err := p.parseSeq("")
	if err != nil {
		return nil, err
	}
	return &Script{src: src, nodes: nodes}, nil
}

// Format compiles and evaluates src in one step.
func Format(src string, f Fields) (string, error) {
	s, err := Compile(src)
	if err != nil {
		return "", err
	}
	return s.Eval(f), nil
}

// Eval evaluates the script against f.
func (s *Script) Eval(f Fields) string {
	out, _ := s.nodes.eval(f)
	return out
}

// String returns the source of the script.
func (s *Script) String() string {
	return s.src
}

type node interface {
	eval(f Fields) (string, bool)
}

type text string

func (t text) eval(Fields) (string, bool) { return string(t), false }

type field string

func (n field) eval(f Fields) (string, bool) {
	if f == nil {
		return "", false
	}
	return f.Field(string(n))
}

type seq []node

func (s seq) eval(f Fields) (string, bool) {
	var b strings.Builder
	truth := false
	for _, n := range s {
		v, ok := n.eval(f)
		b.WriteString(v)
		truth = truth || ok
	}
	return b.String(), truth
}

type cond seq

func (c cond) eval(f Fields) (string, bool) {
	v, ok := seq(c).eval(f)
	if !ok {
		return "", false
	}
	return v, true
}

type call struct {
	name string
	fn   funcImpl
	args []seq
}

func (c *call) eval(f Fields) (string, bool) {
	return c.fn(f, c.args)
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

// parseSeq parses until the end of input or until one of the terminator
// bytes is found at this nesting level. The terminator is not consumed.
func (p *parser) parseSeq(terminators string) (seq, error) {
	var nodes seq
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, text(lit.String()))
			lit.Reset()
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if strings.IndexByte(terminators, c) >= 0 {
			break
		}

		switch c {
		case '%':
			end := strings.IndexByte(p.src[p.pos+1:], '%')
			if end < 0 {
				return nil, p.errorf("unterminated field")
			}
			name := p.src[p.pos+1 : p.pos+1+end]
			p.pos += end + 2
			if name == "" {
				lit.WriteByte('%')
				continue
			}
			flush()
			nodes = append(nodes, field(name))
		case '\'':
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\'' {
				lit.WriteByte('\'')
				p.pos += 2
				continue
			}
			end := strings.IndexByte(p.src[p.pos+1:], '\'')
			if end < 0 {
				return nil, p.errorf("unterminated quote")
			}
			lit.WriteString(p.src[p.pos+1 : p.pos+1+end])
			p.pos += end + 2
		case '[':
			p.pos++
			inner, err := p.parseSeq("]")
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.src) {
				return nil, p.errorf("unterminated [")
			}
			p.pos++
			flush()
			nodes = append(nodes, cond(inner))
		case '$':
			n, err := p.parseCall()
			if err != nil {
				return nil, err
			}
			flush()
			nodes = append(nodes, n)
		default:
			lit.WriteByte(c)
			p.pos++
		}
	}

	flush()
	return nodes, nil
}

func (p *parser) parseCall() (node, error) {
	start := p.pos
	p.pos++ // $

	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	name := strings.ToLower(p.src[start+1 : p.pos])
	if name == "" {
		return nil, p.errorf("missing function name")
	}
	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return nil, p.errorf("expected ( after $%s", name)
	}
	p.pos++

	var args []seq
	for {
		arg, err := p.parseSeq(",)")
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated call to $%s", name)
		}
		args = append(args, arg)
		sep := p.src[p.pos]
		p.pos++
		if sep == ')' {
			break
		}
	}

	// $f() has no arguments rather than one empty one.
	if len(args) == 1 && len(args[0]) == 0 {
		args = nil
	}

	def, ok := funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown function $%s", ErrSyntax, name)
	}
	if len(args) < def.min || (def.max >= 0 && len(args) > def.max) {
		return nil, fmt.Errorf("%w: $%s takes %s arguments, got %d", ErrSyntax, name, def.arity(), len(args))
	}

	return &call{name: name, fn: def.fn, args: args}, nil
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
