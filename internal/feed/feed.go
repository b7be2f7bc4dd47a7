// Package feed reads complaint records from tabular files.
//
// Supported formats are CSV (header row required), XLSX (first sheet,
// header row required) and JSON (an array of objects, or one object per
// line). Every record becomes a domain.Document whose Fields hold the
// record's columns as strings.
package feed

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"complaintrag/internal/domain"
)

// IDField is the column holding the complaint identifier.
const IDField = "Complaint ID"

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported feed format")

// Load reads all records from path, choosing the decoder by extension.
func Load(path string) ([]domain.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return readXLSX(path)
	case ".json", ".jsonl", ".ndjson":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadAll reads every path (glob patterns allowed) and concatenates the
// records. Row numbers continue across files.
func LoadAll(paths []string) ([]domain.Document, error) {
	var docs []domain.Document
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			batch, err := Load(m)
			if err != nil {
				return nil, fmt.Errorf("loading %s: %w", m, err)
			}
			offset := len(docs)
			for i := range batch {
				batch[i].Row += offset
				if strings.TrimSpace(batch[i].Fields[IDField]) == "" {
					batch[i].ID = rowID(batch[i].Row)
				}
			}
			docs = append(docs, batch...)
		}
	}
	return docs, nil
}

// ReadCSV decodes CSV records. The first row names the columns.
func ReadCSV(r io.Reader) ([]domain.Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return fromRows(rows), nil
}

// ReadJSON decodes either a JSON array of objects or JSON lines.
func ReadJSON(r io.Reader) ([]domain.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	var records []map[string]any
	if len(data) > 0 && data[0] == '[' {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding json array: %w", err)
		}
	} else {
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			dec := json.NewDecoder(bytes.NewReader(line))
			dec.UseNumber()
			var rec map[string]any
			if err := dec.Decode(&rec); err != nil {
				return nil, fmt.Errorf("decoding json line %d: %w", len(records)+1, err)
			}
			records = append(records, rec)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	}

	docs := make([]domain.Document, 0, len(records))
	for i, rec := range records {
		fields := make(map[string]string, len(rec))
		for k, v := range rec {
			if v == nil {
				continue
			}
			fields[k] = fmt.Sprint(v)
		}
		docs = append(docs, newDocument(i, fields))
	}
	return docs, nil
}

func readXLSX(path string) ([]domain.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return fromRows(rows), nil
}

func fromRows(rows [][]string) []domain.Document {
	if len(rows) < 2 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	docs := make([]domain.Document, 0, len(rows)-1)
	for i, row := range rows[1:] {
		fields := make(map[string]string, len(header))
		for j, name := range header {
			if name == "" || j >= len(row) {
				continue
			}
			fields[name] = row[j]
		}
		docs = append(docs, newDocument(i, fields))
	}
	return docs
}

func newDocument(row int, fields map[string]string) domain.Document {
	id := strings.TrimSpace(fields[IDField])
	if id == "" {
		id = rowID(row)
	}
	return domain.Document{ID: id, Row: row, Fields: fields}
}

func rowID(row int) string { return "ID_" + strconv.Itoa(row) }
