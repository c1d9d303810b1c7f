package orchestrator

import "github.com/phonlab/tgpipe/textgrid"

// Record is one extracted interval tagged with its document and classes.
type Record struct {
	File string
	textgrid.Interval
	Classes map[string]string // table -> class
}

type DocumentError struct {
	File string `json:"file"`
	Code Code   `json:"code"`
	Err  error  `json:"-"`
}

func (e DocumentError) Error() string { return e.File + ": " + e.Err.Error() }
func (e DocumentError) Unwrap() error { return e.Err }

// Batch is the combined result of extracting every document of a directory.
// Intervals holds every interval of the parsed documents; Records is the
// subset that feeds the statistics.
type Batch struct {
	Dir       string
	Files     []string
	Intervals []Record
	Records   []Record
	Skipped   []string // target tier missing
	Empty     []string // target tier without intervals
	Failures  []DocumentError
}

type StatRow struct {
	GroupBy string
	Group   string
	Measure string
	Count   int
	Max     float64
	Min     float64
	Mean    float64
	SD      float64
	HasSD   bool // false for fewer than two values
}

type Summary struct {
	RunID      string
	SessionDir string
	Files      int
	Parsed     int
	Intervals  int
	Skipped    []string
	Empty      []string
	Failures   []DocumentError
	Stats      []StatRow
}
