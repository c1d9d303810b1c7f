package orchestrator

import (
	"sort"
	"unicode/utf8"
)

// Classifier maps symbols onto categories using named lookup tables, e.g.
// voicing ("pʰ" -> "voiceless aspirated") or place ("pʰ" -> "bilabial").
type Classifier struct {
	tables     map[string]map[string]string
	names      []string
	stripFirst bool
}

// NewClassifier copies tables. With stripFirst an unknown symbol is retried
// without its first rune, so an affricate falls back to its fricative part.
func NewClassifier(tables map[string]map[string]string, stripFirst bool) *Classifier {
	c := &Classifier{tables: make(map[string]map[string]string, len(tables)), stripFirst: stripFirst}
	for name, t := range tables {
		cp := make(map[string]string, len(t))
		for k, v := range t {
			cp[k] = v
		}
		c.tables[name] = cp
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c
}

func (c *Classifier) Tables() []string { return c.names }

func (c *Classifier) Lookup(table, symbol string) (string, bool) {
	t, ok := c.tables[table]
	if !ok || symbol == "" {
		return "", false
	}
	if v, ok := t[symbol]; ok {
		return v, true
	}
	if c.stripFirst && utf8.RuneCountInString(symbol) >= 2 {
		_, n := utf8.DecodeRuneInString(symbol)
		if v, ok := t[symbol[n:]]; ok {
			return v, true
		}
	}
	return "", false
}

// Classify returns the class of symbol in every table that knows it.
func (c *Classifier) Classify(symbol string) map[string]string {
	var out map[string]string
	for _, name := range c.names {
		if v, ok := c.Lookup(name, symbol); ok {
			if out == nil {
				out = make(map[string]string, len(c.names))
			}
			out[name] = v
		}
	}
	return out
}
