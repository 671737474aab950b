package session

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Frame decodes buf[:n] with enc and splits it into command lines on
// CR and LF.  Runs of terminators produce no empty commands.  Zero
// valid bytes yield an empty result.
//
// Frame keeps no state between calls: a command whose terminator
// arrives in a later read is returned as two fragments.
func Frame(enc encoding.Encoding, buf []byte, n int) []string {
	if n <= 0 || len(buf) == 0 {
		return nil
	}
	if n > len(buf) {
		n = len(buf)
	}
	return strings.FieldsFunc(decode(enc, buf[:n]), isTerminator)
}

func isTerminator(r rune) bool { return r == '\r' || r == '\n' }

func decode(enc encoding.Encoding, b []byte) string {
	if enc == nil {
		enc = unicode.UTF8
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func encode(enc encoding.Encoding, s string) []byte {
	if enc == nil {
		return []byte(s)
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

// LookupEncoding resolves a character-set name ("utf-8", "latin1",
// "windows-1251", ...) using the WHATWG encoding index.  An empty name
// selects UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, err
	}
	return enc, nil
}
