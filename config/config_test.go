package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phonlab/tgpipe/textgrid"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Extract.Tier != "VOT" || cfg.Batch.Workers != 4 || !cfg.Batch.DropAbsent {
		t.Fatalf("defaults = %+v", cfg)
	}
	opts := cfg.Options()
	if opts.Mode != textgrid.ModeSingleToken || opts.BareSymbolMaxRunes != 5 || opts.ValueField != "value" {
		t.Fatalf("Options() = %+v", opts)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	tables := filepath.Join(dir, "tables.toml")
	writeFile(t, tables, `
[place]
s = "alveolar"
S = "postalveolar"
`)
	file := filepath.Join(dir, "config.yaml")
	writeFile(t, file, `
extract:
  tier: vowels
  mode: keyvalue
batch:
  workers: 2
classify:
  tables_file: `+tables+`
  tables:
    voicing:
      b: voiced
stats:
  group_by: [symbol, place, voicing]
`)
	t.Setenv("TGPIPE_BATCH_WORKERS", "8")

	cfg, err := Load(New(), file)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Extract.Tier != "vowels" || cfg.Options().Mode != textgrid.ModeKeyValue {
		t.Fatalf("extract = %+v", cfg.Extract)
	}
	if cfg.Batch.Workers != 8 {
		t.Fatalf("workers = %d, want env override 8", cfg.Batch.Workers)
	}
	if got := cfg.Classify.Tables["place"]["S"]; got != "postalveolar" {
		t.Fatalf("place[S] = %q", got)
	}
	if got := cfg.Classify.Tables["voicing"]["b"]; got != "voiced" {
		t.Fatalf("voicing[b] = %q", got)
	}
}

func TestLoadEnvSelectsGuess(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "lab")
	if err := os.MkdirAll(filepath.Join("config", "lab"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join("config", "lab", "config.yaml"), "extract:\n  tier: tones\n")
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Extract.Tier != "tones" {
		t.Fatalf("tier = %q", cfg.Extract.Tier)
	}
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	v := New()
	v.Set("extract.tier", " ")
	v.Set("extract.mode", "regex")
	v.Set("batch.workers", 0)
	v.Set("batch.pattern", "(")
	v.Set("stats.group_by", []string{"manner"})
	_, err := Load(v, "")
	if err == nil {
		t.Fatal("Load() want error")
	}
	for _, want := range []string{"extract.tier", "extract.mode", "batch.workers", "batch.pattern", "manner"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidateTableNames(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	tables := filepath.Join(dir, "tables.yaml")
	writeFile(t, tables, "place/manner:\n  s: alveolar fricative\n\"v[1]\":\n  p: voiceless\nplace:\n  s: alveolar\n")
	v := New()
	v.Set("classify.tables_file", tables)
	_, err := Load(v, "")
	if err == nil {
		t.Fatal("Load() want error")
	}
	for _, want := range []string{`"place/manner"`, `"v[1]"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
	if strings.Contains(err.Error(), `"place"`) {
		t.Errorf("error %q rejects a valid table name", err)
	}
}

func TestLoadTablesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yml")
	writeFile(t, path, "voicing:\n  pʰ: voiceless aspirated\n  p: voiceless\n")
	tables, err := LoadTables(path)
	if err != nil {
		t.Fatalf("LoadTables() error = %v", err)
	}
	if tables["voicing"]["pʰ"] != "voiceless aspirated" {
		t.Fatalf("tables = %v", tables)
	}
	other := filepath.Join(t.TempDir(), "tables.json")
	writeFile(t, other, "{}")
	if _, err := LoadTables(other); err == nil {
		t.Fatal("LoadTables(json) want error")
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
