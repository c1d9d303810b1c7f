package textgrid

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type candidate struct {
	name  string
	enc   encoding.Encoding // nil means UTF-8
	utf16 bool              // byte order picked per document
}

// Decoder turns raw document bytes into text, trying its encodings in order.
type Decoder struct {
	candidates []candidate
}

// NewDecoder builds a decoder from encoding names. With no names it tries
// UTF-8 and then UTF-16. "utf-16" honours a byte order mark and otherwise
// guesses the byte order from where the NUL bytes sit; other names are
// resolved by the WHATWG index.
func NewDecoder(names ...string) (*Decoder, error) {
	if len(names) == 0 {
		names = []string{"utf-8", "utf-16"}
	}
	d := &Decoder{}
	for _, n := range names {
		c, err := lookupEncoding(n)
		if err != nil {
			return nil, err
		}
		d.candidates = append(d.candidates, c)
	}
	return d, nil
}

var defaultDecoder, _ = NewDecoder()

func lookupEncoding(name string) (candidate, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "utf-8", "utf8":
		return candidate{name: "utf-8"}, nil
	case "utf-16", "utf16":
		return candidate{name: "utf-16", utf16: true}, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return candidate{}, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return candidate{name: key, enc: enc}, nil
}

// Decode returns the text of b in the first encoding that decodes it cleanly.
func (d *Decoder) Decode(b []byte) (string, error) {
	var tried []string
	for _, c := range d.candidates {
		tried = append(tried, c.name)
		if c.enc == nil {
			if utf8.Valid(b) && bytes.IndexByte(b, 0) < 0 {
				return string(bytes.TrimPrefix(b, utf8BOM)), nil
			}
			continue
		}
		enc := c.enc
		if c.utf16 {
			enc = unicode.UTF16(byteOrder(b), unicode.UseBOM)
		}
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil || !clean(out) {
			continue
		}
		return string(bytes.TrimPrefix(out, utf8BOM)), nil
	}
	return "", fmt.Errorf("%w: tried %s", ErrDecodeFailure, strings.Join(tried, ", "))
}

// byteOrder guesses the order of BOM-less UTF-16. Mostly ASCII markup puts
// its zero high bytes at odd offsets in little endian and even ones in big.
func byteOrder(b []byte) unicode.Endianness {
	var even, odd int
	for i, c := range b {
		if c != 0 {
			continue
		}
		if i%2 == 0 {
			even++
		} else {
			odd++
		}
	}
	if odd > even {
		return unicode.LittleEndian
	}
	return unicode.BigEndian
}

// clean rejects output carrying replacement or NUL characters, the marks of a
// wrong guess.
func clean(b []byte) bool {
	return utf8.Valid(b) && !bytes.ContainsRune(b, utf8.RuneError) && bytes.IndexByte(b, 0) < 0
}

// Decode uses the default UTF-8 then UTF-16 order.
func Decode(b []byte) (string, error) { return defaultDecoder.Decode(b) }

// ExtractFile reads, decodes and extracts one document.
func ExtractFile(path, tierName string, dec *Decoder, opts Options) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if dec == nil {
		dec = defaultDecoder
	}
	text, err := dec.Decode(b)
	if err != nil {
		return nil, err
	}
	return Extract(text, tierName, opts)
}
