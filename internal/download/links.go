// Package download turns generated XML documents into browser download links.
//
// Each document becomes an anchor whose href is a percent-encoded data URL,
// so the browser saves the XML without a second request. The file name is
// derived from the document content and the current date:
//
//	F_{supplier code}_{md5 of the serialized document}_{DD-MM-YYYY}.xml
package download

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FileDateLayout is the date layout used in file names.
const FileDateLayout = "02-01-2006"

// ButtonClass is the CSS class list of every download anchor.
const ButtonClass = "btn btn-primary btn-sm pl-4 pr-4 mb-2"

// Link is one document ready for download.
type Link struct {
	// Name is the suggested file name.
	Name string

	// Href is the data URL holding the document.
	Href string
}

// HTML renders the link as an anchor tag.
func (l Link) HTML() string {
	return fmt.Sprintf(`<a href="%s" download="%s" class='%s'>Download %s</a>`,
		l.Href, l.Name, ButtonClass, l.Name)
}

// Encoder builds download links for one supplier.
type Encoder struct {
	supplierCode string
	now          func() time.Time
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithClock replaces time.Now for the date part of file names.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) { e.now = now }
}

// NewEncoder creates an Encoder. supplierCode is the supplier tax id without
// its "RO" prefix.
func NewEncoder(supplierCode string, opts ...Option) *Encoder {
	e := &Encoder{supplierCode: supplierCode, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FileName returns the download file name of doc.
func (e *Encoder) FileName(doc string) string {
	return fmt.Sprintf("F_%s_%s_%s.xml", e.supplierCode, ContentHash(doc), e.now().Format(FileDateLayout))
}

// Link returns the download link of doc.
func (e *Encoder) Link(doc string) Link {
	return Link{
		Name: e.FileName(doc),
		Href: "data:application/xml;charset=utf-8," + RawURLEncode(doc),
	}
}

// Links returns one link per document, in order.
func (e *Encoder) Links(docs []string) []Link {
	links := make([]Link, len(docs))
	for i, doc := range docs {
		links[i] = e.Link(doc)
	}
	return links
}

// MakeLinks returns one anchor tag per document, in order.
func (e *Encoder) MakeLinks(docs []string) []string {
	anchors := make([]string, len(docs))
	for i, link := range e.Links(docs) {
		anchors[i] = link.HTML()
	}
	return anchors
}

// ContentHash is the hex md5 of the serialized form of doc. The serialized
// form is `s:{byte length}:"{doc}";`, which keeps names identical to the ones
// the billing platform plugin has always produced.
func ContentHash(doc string) string {
	sum := md5.Sum([]byte(serialize(doc)))
	return hex.EncodeToString(sum[:])
}

func serialize(s string) string {
	return "s:" + strconv.Itoa(len(s)) + `:"` + s + `";`
}

// RawURLEncode percent-encodes s per RFC 3986. Only ALPHA, DIGIT and
// "-._~" are left as-is; every other byte becomes %XX with uppercase hex.
func RawURLEncode(s string) string {
	const hexDigits = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s) * 3)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0F])
	}

	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
