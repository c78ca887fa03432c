package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/carbonledger/internal/logging"
)

// Format is an import file format.
type Format string

// Import formats.
const (
	FormatNDJSON Format = "ndjson"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatCSV    Format = "csv"
)

// maxLineBytes bounds a single NDJSON line.
const maxLineBytes = 1 << 20

// csvColumns are the recognised CSV header names.
var csvColumns = []string{"kind", "category", "type", "action", "value", "timestamp"} //nolint:gochecknoglobals // fixed header set

// ParseFormat parses a format name, accepting jsonl and yml aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension, pass a format", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Load reads and parses the file at path. An empty format is inferred from
// the extension.
func Load(ctx context.Context, path string, format Format) ([]Entry, error) {
	logger := logging.FromContext(ctx).With().
		Str("component", "ingest").
		Str("operation", "load").
		Str("path", path).
		Logger()

	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	entries, err := Parse(ctx, f, format)
	if err != nil {
		logger.Debug().Err(err).Msg("import file rejected")
		return nil, err
	}
	logger.Debug().Int("entries", len(entries)).Str("format", string(format)).Msg("import file parsed")
	return entries, nil
}

// Parse decodes every entry in r. All malformed entries are reported
// together, each wrapped in a *LineError; nothing is returned unless the
// whole input is valid. An input with no entries yields ErrNoEntries.
func Parse(ctx context.Context, r io.Reader, format Format) ([]Entry, error) {
	var (
		entries []Entry
		err     error
	)
	switch format {
	case FormatNDJSON:
		entries, err = parseNDJSON(ctx, r)
	case FormatJSON:
		entries, err = parseJSONArray(r)
	case FormatYAML:
		entries, err = parseYAML(r)
	case FormatCSV:
		entries, err = parseCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

// finish normalizes and validates a decoded entry.
func finish(e Entry, line int) (Entry, error) {
	e = e.Normalize()
	e.Line = line
	if err := e.Validate(); err != nil {
		return Entry{}, &LineError{Line: line, Err: err}
	}
	return e, nil
}

func decodeJSONEntry(raw []byte, line int) (Entry, error) {
	if err := validateJSONEntry(raw); err != nil {
		return Entry{}, &LineError{Line: line, Err: err}
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, &LineError{Line: line, Err: fmt.Errorf("%w: %w", ErrInvalidEntry, err)}
	}
	return finish(e, line)
}

// parseNDJSON reads one JSON object per line. Blank lines and lines starting
// with # are skipped.
func parseNDJSON(ctx context.Context, r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	var entries []Entry
	var errs []error
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		e, err := decodeJSONEntry(raw, line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading NDJSON: %w", err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return entries, nil
}

func parseJSONArray(r io.Reader) ([]Entry, error) {
	var raws []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array of entries: %w", ErrInvalidEntry, err)
	}

	entries := make([]Entry, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		e, err := decodeJSONEntry(raw, i+1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return entries, nil
}

// parseYAML reads a top-level sequence of entries. Positions are source lines.
func parseYAML(r io.Reader) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: parsing YAML: %w", ErrInvalidEntry, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: expected a YAML list of entries", ErrInvalidEntry)
	}

	entries := make([]Entry, 0, len(root.Content))
	var errs []error
	for _, node := range root.Content {
		var e Entry
		if err := node.Decode(&e); err != nil {
			errs = append(errs, &LineError{Line: node.Line, Err: fmt.Errorf("%w: %w", ErrInvalidEntry, err)})
			continue
		}
		e, err := finish(e, node.Line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return entries, nil
}

// parseCSV reads rows under a header naming any of the entry columns in any
// order. Empty cells are treated as absent.
func parseCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %w", ErrInvalidEntry, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if !slices.Contains(csvColumns, name) {
			return nil, fmt.Errorf("%w: unknown CSV column %q", ErrInvalidEntry, h)
		}
		index[name] = i
	}
	if _, ok := index["value"]; !ok {
		return nil, fmt.Errorf("%w: CSV header needs a value column", ErrInvalidEntry)
	}

	var entries []Entry
	var errs []error
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading CSV: %w", ErrInvalidEntry, err)
		}
		line, _ := reader.FieldPos(0)
		e, err := csvEntry(row, index, line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return entries, nil
}

func csvEntry(row []string, index map[string]int, line int) (Entry, error) {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	e := Entry{
		Kind:     Kind(cell("kind")),
		Category: cell("category"),
		Type:     cell("type"),
		Action:   cell("action"),
	}

	value, err := strconv.ParseFloat(cell("value"), 64)
	if err != nil {
		return Entry{}, &LineError{Line: line, Err: fmt.Errorf("%w: value %q is not a number", ErrInvalidEntry, cell("value"))}
	}
	e.Value = value

	if ts := cell("timestamp"); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return Entry{}, &LineError{Line: line, Err: fmt.Errorf("%w: timestamp %q is not RFC 3339", ErrInvalidEntry, ts)}
		}
		e.Timestamp = parsed
	}
	return finish(e, line)
}
