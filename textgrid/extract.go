// Package textgrid reads labeled interval tiers out of annotation documents in
// the long text TextGrid layout.
package textgrid

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	itemRe     = regexp.MustCompile(`item[ \t]*\[`)
	sizeRe     = regexp.MustCompile(`intervals:[ \t]*size[ \t]*=[ \t]*(\S*)`)
	headerRe   = regexp.MustCompile(`intervals[ \t]*\[\d+\][ \t]*:`)
	intervalRe = regexp.MustCompile(`intervals[ \t]*\[(\d+)\][ \t]*:\s*xmin[ \t]*=[ \t]*(\S+)\s+xmax[ \t]*=[ \t]*(\S+)\s+text[ \t]*=[ \t]*"((?:[^"]|"")*)"`)
)

// Extract returns the intervals of the first tier named tierName. A missing
// tier or a tier without intervals is reported through Result.Status; only a
// document that does not follow the tier grammar yields an error.
func Extract(text, tierName string, opts Options) (*Result, error) {
	res := &Result{Tier: tierName}

	section, ok := tierSection(text, tierName)
	if !ok {
		res.Status = StatusTierNotFound
		return res, nil
	}

	sz := sizeRe.FindStringSubmatchIndex(section)
	if sz == nil {
		return nil, fmt.Errorf("%w: tier %q: missing intervals size declaration", ErrMalformedTier, tierName)
	}
	declared, err := strconv.Atoi(section[sz[2]:sz[3]])
	if err != nil || declared < 0 {
		return nil, fmt.Errorf("%w: tier %q: invalid intervals size %q", ErrMalformedTier, tierName, section[sz[2]:sz[3]])
	}
	res.Declared = declared
	body := section[sz[1]:]

	matches := intervalRe.FindAllStringSubmatch(body, -1)
	if headers := len(headerRe.FindAllStringIndex(maskQuoted(body), -1)); headers != len(matches) {
		return nil, fmt.Errorf("%w: tier %q: %d interval headers but %d parsable records", ErrMalformedTier, tierName, headers, len(matches))
	}
	if len(matches) != declared {
		return nil, fmt.Errorf("%w: tier %q: declared %d intervals, found %d", ErrMalformedTier, tierName, declared, len(matches))
	}
	if declared == 0 {
		res.Status = StatusEmptyTier
		res.Intervals = []Interval{}
		return res, nil
	}

	res.Intervals = make([]Interval, 0, len(matches))
	for _, m := range matches {
		iv, err := parseInterval(m, opts)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", tierName, err)
		}
		res.Intervals = append(res.Intervals, iv)
	}
	return res, nil
}

// tierSection isolates the text from the tier's name marker up to the next
// item header or the end of the document. Headers inside labels do not count.
func tierSection(text, tierName string) (string, bool) {
	nameRe, err := regexp.Compile(`name[ \t]*=[ \t]*"` + regexp.QuoteMeta(escape(tierName)) + `"`)
	if err != nil {
		return "", false
	}
	loc := nameRe.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if next := itemRe.FindStringIndex(maskQuoted(rest)); next != nil {
		rest = rest[:next[0]]
	}
	return rest, true
}

// maskQuoted blanks the contents of every quoted string in s, keeping byte
// offsets, so that markup inside labels is invisible to the structural
// patterns. A doubled quote inside a string is an escaped quote.
func maskQuoted(s string) string {
	b := []byte(s)
	in := false
	for i := 0; i < len(b); i++ {
		if b[i] != '"' {
			if in {
				b[i] = ' '
			}
			continue
		}
		if !in {
			in = true
			continue
		}
		if i+1 < len(b) && b[i+1] == '"' {
			b[i], b[i+1] = ' ', ' '
			i++
			continue
		}
		in = false
	}
	return string(b)
}

func parseInterval(m []string, opts Options) (Interval, error) {
	seq, err := strconv.Atoi(m[1])
	if err != nil {
		return Interval{}, fmt.Errorf("%w: index %q", ErrMalformedInterval, m[1])
	}
	xmin, err := parseTime(m[2])
	if err != nil {
		return Interval{}, fmt.Errorf("%w: interval %d: xmin %q", ErrMalformedInterval, seq, m[2])
	}
	xmax, err := parseTime(m[3])
	if err != nil {
		return Interval{}, fmt.Errorf("%w: interval %d: xmax %q", ErrMalformedInterval, seq, m[3])
	}

	iv := Interval{Seq: seq, XMin: xmin, XMax: xmax, Label: NewLabel(unescape(m[4]))}
	if iv.Label.Valid && opts.Mode != ModeNone {
		if sym, fields, ok := Decompose(iv.Label.Text, opts); ok {
			iv.Symbol, iv.Fields, iv.Decomposed = sym, fields, true
		} else {
			iv.Symbol = strings.Fields(iv.Label.Text)[0]
		}
	}
	return iv, nil
}

func parseTime(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite time %q", s)
	}
	return f, nil
}

func escape(s string) string   { return strings.ReplaceAll(s, `"`, `""`) }
func unescape(s string) string { return strings.ReplaceAll(s, `""`, `"`) }
