package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Tables maps a table name (voicing, place, ...) to symbol -> class.
type Tables map[string]map[string]string

// LoadTables reads classification tables from a YAML or TOML file. Unlike
// inline tables in the main config, symbol keys keep their case, so SAMPA
// style "s" and "S" stay distinct.
func LoadTables(path string) (Tables, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	var t Tables
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &t)
	case ".toml":
		err = toml.Unmarshal(b, &t)
	default:
		return nil, fmt.Errorf("tables %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode tables %s: %w", path, err)
	}
	return t, nil
}

// mergeTables overlays b onto a, table by table.
func mergeTables(a map[string]map[string]string, b Tables) map[string]map[string]string {
	out := make(map[string]map[string]string, len(a)+len(b))
	for name, t := range a {
		out[name] = t
	}
	for name, t := range b {
		out[name] = t
	}
	return out
}
