package contentstream

import (
	"fmt"

	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/parser"
	"github.com/wudi/pdfcore/scanner"
)

// Parse decodes a content stream into operators. Inline images come back as
// a single BI operator carrying an InlineImage operand. Unknown operators are
// an error except inside a BX/EX compatibility section, where they are
// dropped together with their operands.
func Parse(data []byte, opts ...parser.Option) ([]Operator, error) {
	s := scanner.NewBytes(data, scanner.Config{})
	p := parser.New(s, opts...)
	c := s.Cursor()

	var (
		ops      []Operator
		operands []Operand
		compat   int
	)
	for {
		m := c.Mark()
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case scanner.TokenEOF:
			if len(operands) > 0 {
				return nil, &parser.SyntaxError{Msg: "operands without operator", Offset: tok.Pos}
			}
			return ops, nil
		case scanner.TokenNumber:
			if tok.IsInt {
				operands = append(operands, Number(tok.Int))
			} else {
				operands = append(operands, Number(tok.Float))
			}
		case scanner.TokenName:
			operands = append(operands, Name(tok.Bytes))
		case scanner.TokenString:
			operands = append(operands, String{Bytes: tok.Bytes, Hex: tok.Hex})
		case scanner.TokenArrayOpen, scanner.TokenDictOpen:
			c.Reset(m)
			res, err := p.ParseObject()
			if err != nil {
				return nil, err
			}
			v, err := fromRaw(res.Value, tok.Pos)
			if err != nil {
				return nil, err
			}
			operands = append(operands, v)
		case scanner.TokenKeyword:
			switch kw := Op(tok.Bytes); kw {
			case "true", "false":
				operands = append(operands, Bool(kw == "true"))
				continue
			case OpBeginInline:
				img, err := inlineImage(p, tok.Pos)
				if err != nil {
					return nil, err
				}
				if len(operands) > 0 {
					return nil, &parser.SyntaxError{Msg: "operands before BI", Offset: tok.Pos}
				}
				ops = append(ops, Operator{op: OpBeginInline, operands: []Operand{img}})
				continue
			case OpBeginCompat:
				compat++
			case OpEndCompat:
				if compat > 0 {
					compat--
				}
			}
			code := Op(tok.Bytes)
			if !code.Valid() {
				if compat == 0 {
					return nil, &parser.SyntaxError{Msg: fmt.Sprintf("unknown operator %q", tok.Bytes), Offset: tok.Pos}
				}
				operands = operands[:0]
				continue
			}
			ops = append(ops, Operator{op: code, operands: append([]Operand(nil), operands...)})
			operands = operands[:0]
		default:
			return nil, &parser.SyntaxError{Msg: "unexpected " + tok.Type.String(), Offset: tok.Pos}
		}
	}
}

// inlineImage reads the key/value pairs after BI up to ID, then the sample
// bytes up to EI.
func inlineImage(p *parser.Parser, start int64) (InlineImage, error) {
	s := p.Scanner()
	d := raw.NewDict()
	for {
		tok, err := s.Next()
		if err != nil {
			return InlineImage{}, err
		}
		switch {
		case tok.Is("ID"):
			data, err := s.InlineImageData()
			if err != nil {
				return InlineImage{}, err
			}
			return InlineImage{Dict: d, Data: data}, nil
		case tok.Type == scanner.TokenName:
			res, err := p.ParseObject()
			if err != nil {
				return InlineImage{}, err
			}
			d.Set(raw.Name(tok.Bytes), res.Value)
		case tok.Type == scanner.TokenEOF:
			return InlineImage{}, &parser.SyntaxError{Msg: "inline image without ID", Offset: start}
		default:
			return InlineImage{}, &parser.SyntaxError{Msg: "inline image key is not a name", Offset: tok.Pos}
		}
	}
}

func fromRaw(o raw.Object, off int64) (Operand, error) {
	switch v := o.(type) {
	case raw.Number:
		return Number(v), nil
	case raw.Name:
		return Name(v), nil
	case raw.Bool:
		return Bool(v), nil
	case raw.String:
		return String{Bytes: v.Bytes, Hex: v.Hex}, nil
	case *raw.Dict:
		return Dict{v}, nil
	case *raw.Array:
		out := make(Array, 0, v.Len())
		for _, it := range v.Items {
			x, err := fromRaw(it, off)
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	}
	return nil, &parser.SyntaxError{Msg: "unsupported operand " + o.Type(), Offset: off}
}
