package sitemap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Built-in formatter names accepted in configuration
const (
	FormatCompact = "compact"
	FormatIndent  = "indent"
)

// FormatterByName returns the built-in formatter for name; "" and "compact"
// return nil (no formatting).
func FormatterByName(name string) (Formatter, error) {
	switch name {
	case "", FormatCompact:
		return nil, nil
	case FormatIndent:
		return IndentFormatter("  "), nil
	}
	return nil, fmt.Errorf("unknown formatter %q (expected %q or %q)", name, FormatCompact, FormatIndent)
}

// IndentFormatter re-encodes a document with one element per line
func IndentFormatter(indent string) Formatter {
	return func(doc string) (string, error) {
		dec := xml.NewDecoder(strings.NewReader(doc))
		var buf bytes.Buffer
		enc := xml.NewEncoder(&buf)
		enc.Indent("", indent)

		for {
			tok, err := dec.RawToken() // Raw keeps xmlns as a plain attribute
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return "", err
			}
			switch t := tok.(type) {
			case xml.ProcInst:
				// Re-added below
				continue
			case xml.CharData:
				if len(bytes.TrimSpace(t)) == 0 {
					continue
				}
			case xml.StartElement:
				tok = literalPrefixes(t)
			case xml.EndElement:
				t.Name = literalName(t.Name)
				tok = t
			}
			if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
				return "", err
			}
		}
		if err := enc.Flush(); err != nil {
			return "", err
		}
		return xml.Header + buf.String() + "\n", nil
	}
}

// literalPrefixes folds raw "prefix:local" names back into Local so the
// encoder writes them unchanged instead of inventing namespace prefixes.
func literalPrefixes(t xml.StartElement) xml.StartElement {
	out := xml.StartElement{Name: literalName(t.Name), Attr: make([]xml.Attr, len(t.Attr))}
	for i, a := range t.Attr {
		out.Attr[i] = xml.Attr{Name: literalName(a.Name), Value: a.Value}
	}
	return out
}

func literalName(n xml.Name) xml.Name {
	if n.Space == "" {
		return n
	}
	return xml.Name{Local: n.Space + ":" + n.Local}
}
