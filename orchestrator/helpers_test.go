package orchestrator

import (
	"reflect"
	"testing"

	"github.com/phonlab/tgpipe/textgrid"
)

func rec(sym string, xmin, xmax float64, fields map[string]float64, classes map[string]string) Record {
	return Record{
		File: "1_a.TextGrid",
		Interval: textgrid.Interval{
			XMin: xmin, XMax: xmax,
			Label:  textgrid.NewLabel(sym),
			Symbol: sym, Fields: fields, Decomposed: true,
		},
		Classes: classes,
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		rec("i", 0, 0.1, map[string]float64{"F1": 280, "F2": 2250}, map[string]string{"height": "high"}),
		rec("i", 0.1, 0.3, map[string]float64{"F1": 300}, map[string]string{"height": "high"}),
		rec("a", 0.3, 0.6, map[string]float64{"F1": 750, "F2": 1300}, map[string]string{"height": "low"}),
		rec("ə", 0.6, 0.7, nil, nil),
	}

	rows := Summarize(records, "", 2)
	byKey := map[string]StatRow{}
	for _, r := range rows {
		if r.GroupBy != GroupBySymbol {
			t.Fatalf("group_by = %q", r.GroupBy)
		}
		byKey[r.Group+"/"+r.Measure] = r
	}

	if got := byKey["i/F2"]; got.Count != 1 || got.HasSD || got.Mean != 2250 {
		t.Fatalf("i/F2 = %+v, absent F2 must not count as zero", got)
	}
	if got := byKey["i/F1"]; got.Count != 2 || got.Mean != 290 || !got.HasSD || got.SD != 14.14 {
		t.Fatalf("i/F1 = %+v", got)
	}
	if got := byKey["i/duration"]; got.Count != 2 || got.Min != 0.1 || got.Max != 0.2 || got.Mean != 0.15 {
		t.Fatalf("i/duration = %+v", got)
	}
	if _, ok := byKey["ə/F1"]; ok {
		t.Fatal("ə has no F1 measurements")
	}
	if got := byKey["ə/duration"]; got.Count != 1 {
		t.Fatalf("ə/duration = %+v", got)
	}

	var order []string
	for _, r := range rows {
		order = append(order, r.Group+"/"+r.Measure)
	}
	want := []string{"a/F1", "a/F2", "a/duration", "i/F1", "i/F2", "i/duration", "ə/duration"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}

	height := Summarize(records, "height", 2)
	groups := map[string]bool{}
	for _, r := range height {
		groups[r.Group] = true
	}
	if !reflect.DeepEqual(groups, map[string]bool{"high": true, "low": true}) {
		t.Fatalf("height groups = %v, unclassified records must be left out", groups)
	}
}

func TestClassifier(t *testing.T) {
	tables := map[string]map[string]string{
		"place":   {"s": "alveolar", "S": "postalveolar", "ɕ": "alveolo-palatal"},
		"voicing": {"p": "voiceless", "pʰ": "voiceless aspirated"},
	}
	strict := NewClassifier(tables, false)
	loose := NewClassifier(tables, true)
	tables["place"]["x"] = "velar"

	if got := strict.Tables(); !reflect.DeepEqual(got, []string{"place", "voicing"}) {
		t.Fatalf("Tables() = %v", got)
	}
	if _, ok := strict.Lookup("place", "x"); ok {
		t.Fatal("classifier must not see later edits of the source tables")
	}
	if got := strict.Classify("pʰ"); !reflect.DeepEqual(got, map[string]string{"voicing": "voiceless aspirated"}) {
		t.Fatalf("Classify(pʰ) = %v", got)
	}
	if got := strict.Classify("tɕ"); got != nil {
		t.Fatalf("strict Classify(tɕ) = %v", got)
	}
	if got, ok := loose.Lookup("place", "tɕ"); !ok || got != "alveolo-palatal" {
		t.Fatalf("loose Lookup(tɕ) = %q, %v", got, ok)
	}
	if got, ok := loose.Lookup("place", "S"); !ok || got != "postalveolar" {
		t.Fatalf("Lookup(S) = %q, %v", got, ok)
	}
	if _, ok := loose.Lookup("manner", "s"); ok {
		t.Fatal("unknown table must not match")
	}
}
