// Package gridfile reads and writes grid documents holding the raw values of
// a spreadsheet, one row per entry, in YAML, TOML or CSV.
package gridfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/vogtb/go-gridcalc/packages/spreadsheet"
)

// Format identifies a grid document encoding
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

var (
	// ErrUnknownFormat is returned for paths whose extension names no format
	ErrUnknownFormat = errors.New("unknown grid file format")

	// ErrLocked is returned when the save lock could not be acquired in time
	ErrLocked = errors.New("grid file is locked")
)

// lockRetryInterval is how often Save and Update poll a held lock
const lockRetryInterval = 50 * time.Millisecond

// DetectFormat picks the format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// yamlDocument is the YAML shape: a single rows key, null for blank cells
type yamlDocument struct {
	Rows [][]any `yaml:"rows"`
}

// tomlDocument is the TOML shape. TOML has no null, so "" marks a blank cell.
type tomlDocument struct {
	Rows [][]any `toml:"rows"`
}

// Decode reads a grid document
func Decode(r io.Reader, f Format) ([][]spreadsheet.Primitive, error) {
	switch f {
	case FormatYAML:
		return decodeYAML(r)
	case FormatTOML:
		return decodeTOML(r)
	case FormatCSV:
		return decodeCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
}

func decodeYAML(r io.Reader) ([][]spreadsheet.Primitive, error) {
	var doc yamlDocument
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	return normalizeRows(doc.Rows, false)
}

func decodeTOML(r io.Reader) ([][]spreadsheet.Primitive, error) {
	var doc tomlDocument
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decoding toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decoding toml: unknown key %q", undecoded[0].String())
	}
	return normalizeRows(doc.Rows, true)
}

func decodeCSV(r io.Reader) ([][]spreadsheet.Primitive, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decoding csv: %w", err)
	}

	rows := make([][]spreadsheet.Primitive, len(records))
	for i, record := range records {
		rows[i] = make([]spreadsheet.Primitive, len(record))
		for j, field := range record {
			if field != "" {
				rows[i][j] = field
			}
		}
	}
	return rows, nil
}

func normalizeRows(in [][]any, emptyIsBlank bool) ([][]spreadsheet.Primitive, error) {
	rows := make([][]spreadsheet.Primitive, len(in))
	for i, row := range in {
		rows[i] = make([]spreadsheet.Primitive, len(row))
		for j, value := range row {
			cell, err := normalizeCell(value)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
			if emptyIsBlank && cell == "" {
				cell = nil
			}
			rows[i][j] = cell
		}
	}
	return rows, nil
}

// normalizeCell maps a decoded document value onto a raw cell value
func normalizeCell(value any) (spreadsheet.Primitive, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("unsupported cell value of type %T", value)
	}
}

// Encode writes a grid document
func Encode(w io.Writer, f Format, rows [][]spreadsheet.Primitive) error {
	switch f {
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(yamlDocument{Rows: documentRows(rows, nil)}); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return encoder.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(tomlDocument{Rows: documentRows(rows, "")}); err != nil {
			return fmt.Errorf("encoding toml: %w", err)
		}
		return nil
	case FormatCSV:
		writer := csv.NewWriter(w)
		for _, row := range rows {
			record := make([]string, len(row))
			for j, cell := range row {
				record[j] = formatField(cell)
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("encoding csv: %w", err)
			}
		}
		writer.Flush()
		return writer.Error()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
}

func documentRows(rows [][]spreadsheet.Primitive, blank any) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = make([]any, len(row))
		for j, cell := range row {
			if cell == nil {
				out[i][j] = blank
				continue
			}
			out[i][j] = cell
		}
	}
	return out
}

func formatField(cell spreadsheet.Primitive) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Load reads the grid document at path, choosing the format by extension
func Load(path string) ([][]spreadsheet.Primitive, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening grid file: %w", err)
	}
	defer f.Close()

	rows, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Save writes rows to path. It holds an exclusive lock on "<path>.lock"
// while writing and replaces the file atomically through a temporary file
// in the same directory.
func Save(ctx context.Context, path string, rows [][]spreadsheet.Primitive, lockTimeout time.Duration) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	lock, err := acquireLock(ctx, path, lockTimeout)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	return writeFile(path, format, rows)
}

// UpdateFunc receives the current rows and returns the rows to write back
type UpdateFunc func(rows [][]spreadsheet.Primitive) ([][]spreadsheet.Primitive, error)

// Update loads path, passes its rows to fn and writes the result back, all
// under the same lock Save takes, so concurrent updates of one file are
// applied one after another. Nothing is written when fn fails.
func Update(ctx context.Context, path string, lockTimeout time.Duration, fn UpdateFunc) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	lock, err := acquireLock(ctx, path, lockTimeout)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	rows, err := Load(path)
	if err != nil {
		return err
	}
	next, err := fn(rows)
	if err != nil {
		return err
	}
	return writeFile(path, format, next)
}

// writeFile replaces path through a temporary file. the caller holds the
// lock.
func writeFile(path string, format Format, rows [][]spreadsheet.Primitive) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := Encode(tmp, format, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing grid file: %w", err)
	}
	return nil
}

// acquireLock takes the advisory lock adjacent to path. the caller must
// unlock it.
func acquireLock(ctx context.Context, path string, timeout time.Duration) (*flock.Flock, error) {
	lockPath := path + ".lock"
	lock := flock.New(lockPath)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLocked, lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	return lock, nil
}
