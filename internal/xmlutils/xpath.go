package xmlutils

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"gopkg.in/xmlpath.v2"
)

// ParseXML builds an xmlpath tree from r. Documents declaring a non UTF-8
// encoding are transcoded through x/net/html/charset.
func ParseXML(r io.Reader) (*xmlpath.Node, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	root, err := xmlpath.ParseDecoder(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return root, nil
}

// FirstString returns the cleaned text of the first node matching path.
func FirstString(node *xmlpath.Node, path *xmlpath.Path) string {
	value, ok := path.String(node)
	if !ok {
		return ""
	}
	return CleanText(value)
}

// AllStrings returns the cleaned, non-empty text of every node matching path.
func AllStrings(node *xmlpath.Node, path *xmlpath.Path) []string {
	var values []string
	iter := path.Iter(node)
	for iter.Next() {
		if v := CleanText(iter.Node().String()); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// CleanText collapses runs of whitespace, including newlines, to single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
