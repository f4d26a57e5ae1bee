package matrix

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testMatrix() *mat.Dense {
	return mat.NewDense(2, 4, []float64{
		0.5, 0.25, 0.25, 0,
		1, 0, 0, 3,
	})
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, fn := range []string{"m.bin", "m.bin.gz"} {
		path := filepath.Join(t.TempDir(), fn)
		want := testMatrix()
		if err := Save(path, "bin", want); err != nil {
			t.Fatalf("save %s: %v", fn, err)
		}
		got, err := LoadBinary(path)
		if err != nil {
			t.Fatalf("load %s: %v", fn, err)
		}
		if !mat.Equal(want, got) {
			t.Fatalf("%s: round trip mismatch", fn)
		}
	}
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write("tsv", &buf, testMatrix()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "0.5\t0.25\t0.25\t0" {
		t.Fatalf("row 0 = %q", lines[0])
	}
	if lines[1] != "1\t0\t0\t3" {
		t.Fatalf("row 1 = %q", lines[1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write("json", &buf, testMatrix()); err != nil {
		t.Fatal(err)
	}
	var rows [][]float64
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 2 || len(rows[0]) != 4 || rows[1][3] != 3 {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write("npy", &buf, testMatrix())
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "npy") {
		t.Fatalf("error should name the format: %v", err)
	}
}

func TestSaveUnknownFormatCreatesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.npy")
	if err := Save(path, "npy", testMatrix()); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("artifact path should not exist after rejected format, stat err = %v", err)
	}
}

func TestFormats(t *testing.T) {
	got := strings.Join(Formats(), ",")
	if got != "bin,json,tsv" {
		t.Fatalf("Formats() = %s", got)
	}
}
