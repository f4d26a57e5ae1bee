// Package matrix persists the stacked feature matrix. Formats are a
// small registry so new artifact types slot in without touching
// callers.
package matrix

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var writers = map[string]func(io.Writer, *mat.Dense) error{
	"bin":  writeBinary,
	"tsv":  writeTSV,
	"json": writeJSON,
}

// Formats lists the registered output formats, sorted.
func Formats() []string {
	fs := make([]string, 0, len(writers))
	for f := range writers {
		fs = append(fs, f)
	}
	sort.Strings(fs)
	return fs
}

func writerFor(format string) (func(io.Writer, *mat.Dense) error, error) {
	fn, ok := writers[format]
	if !ok {
		return nil, fmt.Errorf("unknown matrix format %q (choose from %s)", format, strings.Join(Formats(), "|"))
	}
	return fn, nil
}

// Write serializes m to w in the given format.
func Write(format string, w io.Writer, m *mat.Dense) error {
	fn, err := writerFor(format)
	if err != nil {
		return err
	}
	return fn(w, m)
}

// Save writes m to path; a .gz suffix gzips the stream. The format is
// checked before the file is created so a bad format cannot clobber an
// existing artifact.
func Save(path, format string, m *mat.Dense) error {
	fn, err := writerFor(format)
	if err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	var w io.Writer = fh
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(fh)
		w = gz
	}
	werr := fn(w, m)
	if gz != nil {
		if cerr := gz.Close(); werr == nil {
			werr = cerr
		}
	}
	if cerr := fh.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("save matrix %s: %w", path, werr)
	}
	return nil
}

// LoadBinary reads back a "bin" artifact (gzipped when the path ends
// in .gz).
func LoadBinary(path string) (*mat.Dense, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	var r io.Reader = fh
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(fh)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	var m mat.Dense
	if _, err := m.UnmarshalBinaryFrom(r); err != nil {
		return nil, fmt.Errorf("load matrix %s: %w", path, err)
	}
	return &m, nil
}

func writeBinary(w io.Writer, m *mat.Dense) error {
	_, err := m.MarshalBinaryTo(w)
	return err
}

func writeTSV(w io.Writer, m *mat.Dense) error {
	rows, cols := m.Dims()
	var sb strings.Builder
	for i := 0; i < rows; i++ {
		sb.Reset()
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(strconv.FormatFloat(m.At(i, j), 'g', -1, 64))
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, m *mat.Dense) error {
	rows, _ := m.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = m.RawRowView(i)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
