package textgrid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

func TestDecode(t *testing.T) {
	const text = `name = "VOT" text = "tɕʰ"`

	be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatal(err)
	}
	le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatal(err)
	}
	noBOM, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatal(err)
	}
	noBOMLE, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   []byte
	}{
		{"utf-8", []byte(text)},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, text...)},
		{"utf-16be bom", be},
		{"utf-16le bom", le},
		{"utf-16be", noBOM},
		{"utf-16le", noBOMLE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != text {
				t.Fatalf("Decode() = %q, want %q", got, text)
			}
		})
	}
}

func TestDecodeFailure(t *testing.T) {
	_, err := Decode([]byte{0xD8, 0xD8, 0xD8, 0xD8})
	if !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("Decode() error = %v, want ErrDecodeFailure", err)
	}
}

func TestDecoderNamedEncoding(t *testing.T) {
	gbk, err := htmlindex.Get("gbk")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := gbk.NewEncoder().Bytes([]byte("中文"))
	if err != nil {
		t.Fatal(err)
	}
	dec, err := NewDecoder("utf-8", "gbk")
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	got, err := dec.Decode(raw)
	if err != nil || got != "中文" {
		t.Fatalf("Decode() = %q, %v", got, err)
	}

	if _, err := NewDecoder("klingon"); err == nil {
		t.Fatal("NewDecoder(klingon) want error")
	}
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1_ba.TextGrid")
	raw, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(twoTiers))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := ExtractFile(path, "VOT", nil, Options{})
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}
	if len(res.Intervals) != 3 {
		t.Fatalf("got %d intervals", len(res.Intervals))
	}

	le, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(twoTiers))
	if err != nil {
		t.Fatal(err)
	}
	lePath := filepath.Join(dir, "2_da.TextGrid")
	if err := os.WriteFile(lePath, le, 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = ExtractFile(lePath, "VOT", nil, Options{})
	if err != nil || res.Status != StatusOK || len(res.Intervals) != 3 {
		t.Fatalf("ExtractFile(utf-16le) = %+v, %v", res, err)
	}

	if _, err := ExtractFile(filepath.Join(dir, "missing.TextGrid"), "VOT", nil, Options{}); !os.IsNotExist(err) {
		t.Fatalf("ExtractFile(missing) error = %v", err)
	}
}
