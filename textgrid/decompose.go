package textgrid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Mode selects how a label is split into a symbol and numeric fields.
type Mode int

const (
	ModeNone        Mode = iota
	ModeKeyValue         // "ə F1=500 F2=1500"
	ModeSingleToken      // "t 23.5"
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeKeyValue:
		return "keyvalue"
	case ModeSingleToken:
		return "single"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode reads a mode name as written in config files and flags.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, nil
	case "keyvalue", "kv":
		return ModeKeyValue, nil
	case "single", "single-token", "single_token":
		return ModeSingleToken, nil
	default:
		return ModeNone, fmt.Errorf("unknown decomposition mode %q", s)
	}
}

// DefaultValueField names the ModeSingleToken measurement when none is set.
const DefaultValueField = "value"

type Options struct {
	Mode Mode
	// ValueField names the measurement of ModeSingleToken labels.
	ValueField string
	// BareSymbolMaxRunes accepts a lone token of at most this many runes as a
	// symbol without fields. 0 disables it.
	BareSymbolMaxRunes int
}

func (o Options) valueField() string {
	if o.ValueField == "" {
		return DefaultValueField
	}
	return o.ValueField
}

// Decompose splits label according to opts.Mode. ok is false when the label
// does not follow the expected shape; fields is nil in that case.
func Decompose(label string, opts Options) (symbol string, fields map[string]float64, ok bool) {
	toks := strings.Fields(label)
	if len(toks) == 0 {
		return "", nil, false
	}
	switch opts.Mode {
	case ModeKeyValue:
		return decomposeKeyValue(toks, opts)
	case ModeSingleToken:
		return decomposeSingle(toks, opts)
	default:
		return "", nil, false
	}
}

func decomposeKeyValue(toks []string, opts Options) (string, map[string]float64, bool) {
	sym := toks[0]
	if strings.Contains(sym, "=") {
		return "", nil, false
	}
	if len(toks) == 1 {
		return bareSymbol(sym, opts)
	}
	fields := make(map[string]float64, len(toks)-1)
	for _, t := range toks[1:] {
		k, v, found := strings.Cut(t, "=")
		if !found || k == "" {
			return "", nil, false
		}
		f, err := parseMeasure(v)
		if err != nil {
			return "", nil, false
		}
		fields[k] = f
	}
	return sym, fields, true
}

func decomposeSingle(toks []string, opts Options) (string, map[string]float64, bool) {
	switch len(toks) {
	case 1:
		return bareSymbol(toks[0], opts)
	case 2:
		f, err := parseMeasure(toks[1])
		if err != nil {
			return "", nil, false
		}
		return toks[0], map[string]float64{opts.valueField(): f}, true
	default:
		return "", nil, false
	}
}

func bareSymbol(tok string, opts Options) (string, map[string]float64, bool) {
	if opts.BareSymbolMaxRunes <= 0 || utf8.RuneCountInString(tok) > opts.BareSymbolMaxRunes {
		return "", nil, false
	}
	return tok, nil, true
}

func parseMeasure(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return f, nil
}
