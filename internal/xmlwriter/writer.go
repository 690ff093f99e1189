// =============================================================================
// Invoice XML Exporter - XML Writer Module
// =============================================================================
//
// This module builds and serializes ordered XML element trees. The e-invoicing
// importer compares documents byte for byte, so the serializer reproduces the
// layout libxml2 produces with formatOutput enabled:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <Facturi>                              <!-- element with children -->
//     <Factura>
//       <Antet>
//         <FurnizorNume>ACME</FurnizorNume>  <!-- text stays inline -->
//         <ClientBanca/>                     <!-- empty element self-closes -->
//       </Antet>
//     </Factura>
//   </Facturi>
//
// ESCAPING:
//   Text content escapes &, <, > and carriage returns. Quotes are left as-is
//   in text, as libxml2 does.
//
//   Content elements (see Content) hold markup-style text instead: entity and
//   character references in the value are read the way libxml2 reads the
//   content argument of a new node. Predefined and numeric references become
//   characters and are escaped once on output; any other named reference
//   (e.g. &eacute;) is written as-is.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// ELEMENT TREE
// =============================================================================

// Element is a node of the document tree. An element carries either a text
// value or child elements; when Value is set, Children are not written.
type Element struct {
	Name     string
	Value    string
	Children []*Element

	// References makes Value be read as content with entity references.
	References bool
}

// NewElement creates an element with the given children.
func NewElement(name string, children ...*Element) *Element {
	return &Element{Name: name, Children: children}
}

// Text creates a leaf element holding value. An empty value produces an
// empty (self-closing) element.
func Text(name, value string) *Element {
	return &Element{Name: name, Value: value}
}

// Content creates a leaf element whose value may contain entity and
// character references, e.g. "L&eacute;a &amp; Co".
func Content(name, value string) *Element {
	return &Element{Name: name, Value: value, References: true}
}

// Empty creates a leaf element without content.
func Empty(name string) *Element {
	return &Element{Name: name}
}

// Append adds children to the element and returns it.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Marshal serializes the tree rooted at root with the default options.
func Marshal(root *Element) ([]byte, error) {
	return MarshalWithOptions(root, DefaultGenerateOptions())
}

// MarshalWithOptions serializes the tree rooted at root.
//
// RETURNS:
//   - The XML document as a byte slice, terminated by a newline.
//   - An error if the tree contains an element without a name.
func MarshalWithOptions(root *Element, options GenerateOptions) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("xmlwriter: nil root element")
	}
	if err := checkNames(root, root.Name); err != nil {
		return nil, err
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// checkNames rejects elements with an empty name anywhere in the tree.
func checkNames(element *Element, path string) error {
	if element.Name == "" {
		return fmt.Errorf("xmlwriter: element without name under %q", path)
	}
	for _, child := range element.Children {
		if err := checkNames(child, path+"/"+child.Name); err != nil {
			return err
		}
	}
	return nil
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element *Element, indent string, level int) {
	writeIndent(buffer, indent, level)

	buffer.WriteString("<")
	buffer.WriteString(element.Name)

	// Self-closing tag.
	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if element.Value != "" && element.References {
		buffer.WriteString(EscapeContent(element.Value))
	} else if element.Value != "" {
		buffer.WriteString(EscapeText(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		writeIndent(buffer, indent, level)
	}

	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")
}

func writeIndent(buffer *bytes.Buffer, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}
}

// EscapeText escapes special characters for XML text content.
func EscapeText(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '\r':
			buffer.WriteString("&#13;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// predefinedEntities are the references every XML parser resolves.
var predefinedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": "\"",
	"apos": "'",
}

// EscapeContent escapes a value holding entity references.
//
// Predefined and numeric references are replaced by their character, which
// is then escaped like any text. Other well-formed named references are
// kept. An '&' that does not start a reference is escaped.
func EscapeContent(s string) string {
	var buffer bytes.Buffer

	for len(s) > 0 {
		amp := strings.IndexByte(s, '&')
		if amp < 0 {
			buffer.WriteString(EscapeText(s))
			break
		}
		buffer.WriteString(EscapeText(s[:amp]))
		s = s[amp:]

		semi := strings.IndexByte(s, ';')
		if semi < 0 {
			buffer.WriteString("&amp;")
			s = s[1:]
			continue
		}

		ref := s[1:semi]
		if text, ok := resolveReference(ref); ok {
			buffer.WriteString(EscapeText(text))
		} else if isName(ref) {
			buffer.WriteString("&" + ref + ";")
		} else {
			buffer.WriteString("&amp;")
			s = s[1:]
			continue
		}
		s = s[semi+1:]
	}

	return buffer.String()
}

// resolveReference resolves a predefined or character reference.
func resolveReference(ref string) (string, bool) {
	if text, ok := predefinedEntities[ref]; ok {
		return text, true
	}
	if !strings.HasPrefix(ref, "#") {
		return "", false
	}

	var (
		code uint64
		err  error
	)
	if strings.HasPrefix(ref, "#x") {
		code, err = strconv.ParseUint(ref[2:], 16, 32)
	} else {
		code, err = strconv.ParseUint(ref[1:], 10, 32)
	}
	if err != nil || code == 0 || !utf8.ValidRune(rune(code)) {
		return "", false
	}
	return string(rune(code)), true
}

// isName reports whether ref is an ASCII entity name.
func isName(ref string) bool {
	if ref == "" {
		return false
	}
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', c == '_':
		case i > 0 && ('0' <= c && c <= '9' || c == '.' || c == '-'):
		default:
			return false
		}
	}
	return true
}
