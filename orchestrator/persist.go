package orchestrator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type runInfo struct {
	Tier    string
	Mode    string
	GroupBy []string
}

type PersistBundle struct {
	RunID       string          `json:"run_id"`
	SessionID   string          `json:"session_id"`
	InputDir    string          `json:"input_dir"`
	Tier        string          `json:"tier"`
	Mode        string          `json:"mode"`
	GroupBy     []string        `json:"group_by"`
	GeneratedAt time.Time       `json:"generated_at"`
	Files       []string        `json:"files"`
	Skipped     []string        `json:"skipped,omitempty"`
	Empty       []string        `json:"empty,omitempty"`
	Failures    []FailureRecord `json:"failures,omitempty"`
	Intervals   int             `json:"intervals"`
	Kept        int             `json:"kept"`
	Outputs     []string        `json:"outputs"`
}

type FailureRecord struct {
	File  string `json:"file"`
	Code  Code   `json:"code"`
	Error string `json:"error"`
}

func mkSessionDir(outputsRoot, runID string) (string, string, error) {
	ts := time.Now().Format("20060102-150405")
	sid := "session_" + ts + "_" + runID[:8]
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	return sid, dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// IntervalRows lays records out as a table: the interval columns, one column
// per decomposed field and one per classification table. Absent labels and
// measurements are empty cells.
func IntervalRows(records []Record, tables []string) [][]string {
	fields := fieldNames(records)
	header := []string{"filename", "interval_sequence", "xmin", "xmax", "text", "symbol"}
	header = append(header, fields...)
	header = append(header, tables...)

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for _, r := range records {
		row := []string{r.File, strconv.Itoa(r.Seq), formatFloat(r.XMin), formatFloat(r.XMax), r.Label.String(), r.Symbol}
		for _, name := range fields {
			cell := ""
			if v, ok := r.Field(name); ok {
				cell = formatFloat(v)
			}
			row = append(row, cell)
		}
		for _, t := range tables {
			row = append(row, r.Classes[t])
		}
		rows = append(rows, row)
	}
	return rows
}

var statHeader = []string{"group_by", "group", "measure", "count", "max", "min", "mean", "sd"}

func statCells(r StatRow) []string {
	sd := ""
	if r.HasSD {
		sd = formatFloat(r.SD)
	}
	return []string{r.GroupBy, r.Group, r.Measure, strconv.Itoa(r.Count), formatFloat(r.Max), formatFloat(r.Min), formatFloat(r.Mean), sd}
}

func StatRows(stats []StatRow) [][]string {
	rows := [][]string{statHeader}
	for _, s := range stats {
		rows = append(rows, statCells(s))
	}
	return rows
}

// writeStatsXLSX writes one sheet per grouping.
func writeStatsXLSX(path string, stats []StatRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	next := map[string]int{}
	for _, s := range stats {
		sheet := sheetName(s.GroupBy)
		row, ok := next[sheet]
		if !ok {
			if _, err := f.NewSheet(sheet); err != nil {
				return err
			}
			hdr := make([]interface{}, 0, len(statHeader)-1)
			for _, h := range statHeader[1:] {
				hdr = append(hdr, h)
			}
			if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
				return err
			}
			row = 2
		}
		cells := []interface{}{s.Group, s.Measure, s.Count, s.Max, s.Min, s.Mean, nil}
		if s.HasSD {
			cells[6] = s.SD
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
		next[sheet] = row + 1
	}
	if len(next) > 0 {
		if _, ok := next[defaultSheet]; !ok {
			if err := f.DeleteSheet(defaultSheet); err != nil {
				return err
			}
		}
		f.SetActiveSheet(0)
	}
	return f.SaveAs(path)
}

// sheetInvalid holds the characters a worksheet name may not carry.
const sheetInvalid = `:\/?*[]`

// sheetName replaces characters a worksheet name may not carry and keeps
// within the 31 character limit.
func sheetName(groupBy string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(sheetInvalid, r) {
			return '_'
		}
		return r
	}, groupBy)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "_"
	}
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}

func persist(outputsRoot string, info runInfo, b *Batch, stats []StatRow, tables []string) (runID, sessionDir string, err error) {
	runID = uuid.NewString()
	sid, outDir, err := mkSessionDir(outputsRoot, runID)
	if err != nil {
		return "", "", err
	}

	intervalsPath := filepath.Join(outDir, "intervals.csv")
	statsPath := filepath.Join(outDir, "stats.csv")
	xlsxPath := filepath.Join(outDir, "stats.xlsx")
	runPath := filepath.Join(outDir, "run.json")

	if err = writeCSV(intervalsPath, IntervalRows(b.Intervals, tables)); err != nil {
		return "", "", fmt.Errorf("write intervals: %w", err)
	}
	if err = writeCSV(statsPath, StatRows(stats)); err != nil {
		return "", "", fmt.Errorf("write stats: %w", err)
	}
	if err = writeStatsXLSX(xlsxPath, stats); err != nil {
		return "", "", fmt.Errorf("write workbook: %w", err)
	}

	bundle := PersistBundle{
		RunID:       runID,
		SessionID:   sid,
		InputDir:    b.Dir,
		Tier:        info.Tier,
		Mode:        info.Mode,
		GroupBy:     info.GroupBy,
		GeneratedAt: time.Now(),
		Files:       b.Files,
		Skipped:     b.Skipped,
		Empty:       b.Empty,
		Intervals:   len(b.Intervals),
		Kept:        len(b.Records),
		Outputs:     []string{"intervals.csv", "stats.csv", "stats.xlsx"},
	}
	for _, f := range b.Failures {
		bundle.Failures = append(bundle.Failures, FailureRecord{File: f.File, Code: f.Code, Error: f.Err.Error()})
	}
	if err = writeJSON(runPath, bundle); err != nil {
		return "", "", err
	}
	return runID, outDir, nil
}
