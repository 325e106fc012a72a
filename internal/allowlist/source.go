package allowlist

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrNoPhoneColumn = errors.New("allow-list source has no phone column")

	// PhoneColumns are tried in order on every row; the first non-empty one wins.
	PhoneColumns = []string{"celular", "numero", "telefono"}
)

// Source yields the raw phone values of an allow-list table.
type Source interface {
	Phones(ctx context.Context) ([]string, error)
	Path() string
}

type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Path() string {
	return s.path
}

func (s *CSVSource) Phones(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open allow-list: %w", err)
	}
	defer f.Close()

	return ReadPhones(ctx, f)
}

// ReadPhones reads a header row followed by records and returns, per record,
// the first non-empty value among PhoneColumns.
func ReadPhones(ctx context.Context, r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoPhoneColumn
	}
	if err != nil {
		return nil, fmt.Errorf("read allow-list header: %w", err)
	}

	columns := phoneColumnIndexes(header)
	if len(columns) == 0 {
		return nil, ErrNoPhoneColumn
	}

	var phones []string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read allow-list row: %w", err)
		}

		for _, idx := range columns {
			if idx < len(record) && strings.TrimSpace(record[idx]) != "" {
				phones = append(phones, record[idx])
				break
			}
		}
	}

	return phones, nil
}

func phoneColumnIndexes(header []string) []int {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		name = strings.ToLower(strings.TrimSpace(name))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	var indexes []int
	for _, column := range PhoneColumns {
		if idx, ok := positions[column]; ok {
			indexes = append(indexes, idx)
		}
	}
	return indexes
}
