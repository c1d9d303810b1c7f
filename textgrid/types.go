package textgrid

import (
	"fmt"
	"strings"
)

// Label is the text of an interval. Valid is false when the source text was
// empty or whitespace only, so a silence interval is not mistaken for a
// zero-length label.
type Label struct {
	Text  string
	Valid bool
}

// NewLabel wraps s, marking empty or whitespace-only text as absent.
func NewLabel(s string) Label {
	if strings.TrimSpace(s) == "" {
		return Label{}
	}
	return Label{Text: s, Valid: true}
}

func (l Label) String() string {
	if !l.Valid {
		return ""
	}
	return l.Text
}

// Interval is one labeled span [XMin, XMax) of a tier.
type Interval struct {
	Seq   int     // declared 1-based index
	XMin  float64 // sec
	XMax  float64 // sec
	Label Label

	// Set when a decomposition mode is active. A label that does not
	// decompose keeps its first token as Symbol and has no Fields. Fields
	// holds the measurements that were present; a missing key means "not
	// measured", never zero.
	Symbol     string
	Fields     map[string]float64
	Decomposed bool
}

func (iv Interval) Duration() float64 { return iv.XMax - iv.XMin }

// Field returns the named measurement and whether it was present.
func (iv Interval) Field(name string) (float64, bool) {
	v, ok := iv.Fields[name]
	return v, ok
}

// Key is the grouping key of the interval: the symbol when there is one, the
// raw label otherwise.
func (iv Interval) Key() string {
	if iv.Symbol != "" {
		return iv.Symbol
	}
	return iv.Label.String()
}

type Status int

const (
	StatusOK Status = iota
	StatusTierNotFound
	StatusEmptyTier
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTierNotFound:
		return "tier_not_found"
	case StatusEmptyTier:
		return "empty_tier"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Err maps the non-fatal statuses onto their sentinel errors.
func (s Status) Err() error {
	switch s {
	case StatusTierNotFound:
		return ErrTierNotFound
	case StatusEmptyTier:
		return ErrEmptyTier
	default:
		return nil
	}
}

type Result struct {
	Tier      string
	Declared  int
	Intervals []Interval
	Status    Status
}
