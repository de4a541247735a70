package datapath

import (
	"math/big"

	"github.com/branpk/wafel-sub001/internal/datatype"
	"github.com/branpk/wafel-sub001/internal/typelayout"
)

// Layout is the query surface Compile needs out of a built type layout —
// everything typelayout.Layout exposes except Build itself. Declared here
// as an interface so datapath doesn't need typelayout's construction
// machinery, only its read-only lookups. *typelayout.Layout satisfies it
// directly.
type Layout interface {
	Concrete(t *datatype.Type) (*datatype.Type, error)
	Size(t *datatype.Type) (int64, error)
	Global(name string) (typelayout.Global, error)
	Constant(name string) (int64, error)
	TypeByName(ns datatype.Namespace, ident string) (*datatype.Type, error)
}

// Compile parses src and resolves it against layout into an immutable
// DataPath in one pass: each edge is both parsed and interpreted against
// the "current type" as soon as it's read, the same direct style
// ParseCommand/ParseCondition use rather than building a separate AST
// first.
func Compile(src string, layout Layout) (*DataPath, error) {
	c := &compiler{lex: newLexer(src), src: src, layout: layout}
	if err := c.parseRoot(); err != nil {
		return nil, err
	}
	for {
		tok, err := c.peek()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokDot:
			c.advance()
			if err := c.parseDotEdge(); err != nil {
				return nil, err
			}
		case tokArrow:
			c.advance()
			if err := c.parseArrowEdge(); err != nil {
				return nil, err
			}
		case tokLBracket:
			c.advance()
			if err := c.parseIndexEdge(); err != nil {
				return nil, err
			}
		case tokQuestion:
			c.advance()
			if err := c.parseNullableEdge(); err != nil {
				return nil, err
			}
		case tokAmp:
			c.advance()
			if err := c.parseMask(); err != nil {
				return nil, err
			}
			return c.finish()
		case tokEOF:
			return c.finish()
		default:
			return nil, &ParseError{Source: c.src, Offset: tok.offset, Reason: "expected '.', '->', '[', '?', '&', or end of input"}
		}
	}
}

type compiler struct {
	lex    *lexer
	src    string
	layout Layout

	root    Root
	edges   []Edge
	curType *datatype.Type // the type the next edge applies against
	hasMask bool
	mask    *big.Int

	lookahead *token
}

func (c *compiler) peek() (token, error) {
	if c.lookahead != nil {
		return *c.lookahead, nil
	}
	tok, err := c.lex.next()
	if err != nil {
		return token{}, err
	}
	c.lookahead = &tok
	return tok, nil
}

func (c *compiler) advance() {
	c.lookahead = nil
}

// concrete resolves t through Name indirection, returning the layout's
// error unchanged if a Name cannot be resolved.
func (c *compiler) concrete(t *datatype.Type) (*datatype.Type, error) {
	return c.layout.Concrete(t)
}

func (c *compiler) parseRoot() error {
	tok, err := c.peek()
	if err != nil {
		return err
	}
	switch {
	case tok.kind == tokIdent && (tok.text == "struct" || tok.text == "union" || tok.text == "typedef"):
		c.advance()
		ns := map[string]datatype.Namespace{
			"struct":  datatype.NamespaceStruct,
			"union":   datatype.NamespaceUnion,
			"typedef": datatype.NamespaceTypedef,
		}[tok.text]
		identTok, err := c.peek()
		if err != nil {
			return err
		}
		if identTok.kind != tokIdent {
			return &ParseError{Source: c.src, Offset: identTok.offset, Reason: "expected type identifier after " + tok.text}
		}
		c.advance()
		t, err := c.layout.TypeByName(ns, identTok.text)
		if err != nil {
			return err
		}
		c.root = Root{Kind: RootLocal, Type: t}
		concrete, err := c.concrete(t)
		if err != nil {
			return err
		}
		c.curType = concrete
		return nil

	case tok.kind == tokIdent:
		c.advance()
		if g, err := c.layout.Global(tok.text); err == nil {
			c.root = Root{Kind: RootGlobal, Address: g.Address, Type: g.Type}
			concrete, err := c.concrete(g.Type)
			if err != nil {
				return err
			}
			c.curType = concrete
			return nil
		}
		if t, err := c.layout.TypeByName(datatype.NamespaceTypedef, tok.text); err == nil {
			c.root = Root{Kind: RootLocal, Type: t}
			concrete, err := c.concrete(t)
			if err != nil {
				return err
			}
			c.curType = concrete
			return nil
		}
		return &UndefinedSymbolError{Name: tok.text}

	default:
		return &ParseError{Source: c.src, Offset: tok.offset, Reason: "expected an identifier or 'struct'/'union'/'typedef'"}
	}
}

// autoDerefIfPointer applies the ".f on a pointer auto-derefs once" rule:
// if curType is a pointer, append Deref and move curType to the pointee.
func (c *compiler) autoDerefIfPointer() error {
	if c.curType.Kind != datatype.KindPointer {
		return nil
	}
	c.edges = append(c.edges, Edge{Kind: EdgeDeref})
	concrete, err := c.concrete(c.curType.Pointee)
	if err != nil {
		return err
	}
	c.curType = concrete
	return nil
}

func (c *compiler) parseDotEdge() error {
	if err := c.autoDerefIfPointer(); err != nil {
		return err
	}
	fieldTok, err := c.peek()
	if err != nil {
		return err
	}
	if fieldTok.kind != tokIdent {
		return &ParseError{Source: c.src, Offset: fieldTok.offset, Reason: "expected field name after '.'"}
	}
	c.advance()
	return c.appendField(fieldTok.text)
}

func (c *compiler) parseArrowEdge() error {
	if c.curType.Kind != datatype.KindPointer {
		return &NotAPointerError{Type: c.curType.String(), Edge: "->"}
	}
	c.edges = append(c.edges, Edge{Kind: EdgeDeref})
	concrete, err := c.concrete(c.curType.Pointee)
	if err != nil {
		return err
	}
	c.curType = concrete

	fieldTok, err := c.peek()
	if err != nil {
		return err
	}
	if fieldTok.kind != tokIdent {
		return &ParseError{Source: c.src, Offset: fieldTok.offset, Reason: "expected field name after '->'"}
	}
	c.advance()
	return c.appendField(fieldTok.text)
}

func (c *compiler) appendField(name string) error {
	if c.curType.Kind != datatype.KindStruct && c.curType.Kind != datatype.KindUnion {
		return &NotAStructError{Type: c.curType.String()}
	}
	field, ok := c.curType.Field(name)
	if !ok {
		return &UndefinedFieldError{Type: c.curType.String(), Field: name}
	}
	c.edges = append(c.edges, Edge{Kind: EdgeOffset, Offset: field.Offset})
	concrete, err := c.concrete(field.Type)
	if err != nil {
		return err
	}
	c.curType = concrete
	return nil
}

func (c *compiler) resolveIntOrConst() (int64, error) {
	tok, err := c.peek()
	if err != nil {
		return 0, err
	}
	if tok.kind == tokInt {
		c.advance()
		return tok.intVal, nil
	}
	if tok.kind == tokIdent {
		c.advance()
		v, err := c.layout.Constant(tok.text)
		if err != nil {
			return 0, err
		}
		return v, nil
	}
	return 0, &ParseError{Source: c.src, Offset: tok.offset, Reason: "expected an integer or constant identifier"}
}

func (c *compiler) parseIndexEdge() error {
	idx, err := c.resolveIntOrConst()
	if err != nil {
		return err
	}
	closeTok, err := c.peek()
	if err != nil {
		return err
	}
	if closeTok.kind != tokRBracket {
		return &ParseError{Source: c.src, Offset: closeTok.offset, Reason: "expected ']'"}
	}
	c.advance()

	switch c.curType.Kind {
	case datatype.KindArray:
		if c.curType.Length != nil && (idx < 0 || idx >= *c.curType.Length) {
			return &IndexOutOfBoundsError{Index: idx, Length: *c.curType.Length}
		}
		c.edges = append(c.edges, Edge{Kind: EdgeOffset, Offset: idx * c.curType.ArrStride})
		concrete, err := c.concrete(c.curType.Element)
		if err != nil {
			return err
		}
		c.curType = concrete
		return nil

	case datatype.KindPointer:
		if idx != 0 && c.curType.Stride == nil {
			return &UnsizedBaseTypeError{Type: c.curType.String()}
		}
		stride := int64(0)
		if c.curType.Stride != nil {
			stride = *c.curType.Stride
		}
		c.edges = append(c.edges, Edge{Kind: EdgeDeref}, Edge{Kind: EdgeOffset, Offset: idx * stride})
		concrete, err := c.concrete(c.curType.Pointee)
		if err != nil {
			return err
		}
		c.curType = concrete
		return nil

	default:
		return &NotAnArrayError{Type: c.curType.String()}
	}
}

func (c *compiler) parseNullableEdge() error {
	if c.curType.Kind != datatype.KindPointer {
		return &NotAPointerError{Type: c.curType.String(), Edge: "?"}
	}
	c.edges = append(c.edges, Edge{Kind: EdgeNullable})
	return nil
}

func (c *compiler) parseMask() error {
	if c.curType.Kind != datatype.KindInt {
		return &MaskOnNonIntError{Type: c.curType.String()}
	}
	v, err := c.resolveIntOrConst()
	if err != nil {
		return err
	}
	c.hasMask = true
	c.mask = big.NewInt(v)
	return nil
}

func (c *compiler) finish() (*DataPath, error) {
	return &DataPath{
		Source:       c.src,
		Root:         c.root,
		Edges:        c.edges,
		HasMask:      c.hasMask,
		Mask:         c.mask,
		ConcreteType: c.curType,
	}, nil
}
