package quad

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodeTerm renders a single RDF term in N-Triples-style lexical form:
// IRIs as <iri>, blank nodes as _:id, plain literals as "text", language
// literals as "text"@lang, typed literals as "text"^^<datatype>.
func EncodeTerm(v Value) string {
	switch t := v.(type) {
	case IRI:
		return "<" + string(t) + ">"
	case BNode:
		return "_:" + string(t)
	case LangString:
		return quoteLiteral(string(t.Value)) + "@" + t.Lang
	case TypedString:
		return quoteLiteral(string(t.Value)) + "^^<" + string(t.Type) + ">"
	case String:
		return quoteLiteral(string(t))
	default:
		return quoteLiteral(fmt.Sprint(t))
	}
}

func quoteLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// SplitTerms splits a space-separated term list on spaces that are not
// inside a quoted literal or an IRI's angle brackets, so literals and IRIs
// containing spaces are not mis-split. Shared by the journal and cache line
// codecs.
func SplitTerms(s string) ([]string, error) {
	var terms []string
	var cur strings.Builder
	inQuote := false
	depth := 0
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && inQuote:
			cur.WriteRune(r)
			escaped = true
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == '<' && !inQuote:
			depth++
			cur.WriteRune(r)
		case r == '>' && !inQuote:
			depth--
			cur.WriteRune(r)
		case r == ' ' && !inQuote && depth == 0:
			terms = append(terms, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		terms = append(terms, cur.String())
	}
	if inQuote || depth != 0 {
		return nil, fmt.Errorf("quad: unbalanced term list: %q", s)
	}
	return terms, nil
}

// DecodeTerm parses one N-Triples-style term produced by EncodeTerm.
func DecodeTerm(s string) (Value, error) {
	if s == "" {
		return nil, fmt.Errorf("quad: empty term")
	}
	switch s[0] {
	case '<':
		if !strings.HasSuffix(s, ">") {
			return nil, fmt.Errorf("quad: unterminated IRI %q", s)
		}
		return IRI(s[1 : len(s)-1]), nil
	case '_':
		if !strings.HasPrefix(s, "_:") {
			return nil, fmt.Errorf("quad: malformed blank node %q", s)
		}
		return BNode(s[2:]), nil
	case '"':
		return decodeLiteral(s)
	default:
		return nil, fmt.Errorf("quad: unrecognized term %q", s)
	}
}

func decodeLiteral(s string) (Value, error) {
	end := -1
	escaped := false
	for i := 1; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch s[i] {
		case '\\':
			escaped = true
		case '"':
			end = i
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("quad: unterminated literal %q", s)
	}
	lex, err := unquoteLiteral(s[1:end])
	if err != nil {
		return nil, err
	}
	rest := s[end+1:]
	switch {
	case strings.HasPrefix(rest, "@"):
		return LangString{Value: String(lex), Lang: rest[1:]}, nil
	case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
		return TypedString{Value: String(lex), Type: IRI(rest[3 : len(rest)-1])}, nil
	case rest == "":
		return String(lex), nil
	default:
		return nil, fmt.Errorf("quad: malformed literal suffix %q", rest)
	}
}

func unquoteLiteral(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return "", strconv.ErrSyntax
		}
		switch s[i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}
