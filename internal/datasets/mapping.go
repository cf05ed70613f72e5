package datasets

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/tagline/pkg/query"
	"github.com/JaimeStill/tagline/pkg/repository"
)

var projection = query.
	NewProjectionMap("datasets", "d").
	Project("id", "ID").
	Project("name", "Name").
	Project("uploaded_at", "UploadedAt").
	Project("headers", "Headers").
	Project("row_data", "Rows").
	Project("visible_columns", "VisibleColumns").
	Project("source_key", "SourceKey").
	Project("content_type", "ContentType")

var summaryProjection = query.
	NewProjectionMap("datasets", "d").
	Project("id", "ID").
	Project("name", "Name").
	Project("uploaded_at", "UploadedAt").
	Project("row_count", "RowCount").
	Project("column_count", "ColumnCount").
	Project("source_key", "SourceKey").
	Project("content_type", "ContentType")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for dataset queries.
// Name uses case-insensitive contains matching.
type Filters struct {
	Name *string `json:"name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereContains("Name", f.Name)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	return f
}

func scanDataset(s repository.Scanner) (Dataset, error) {
	var (
		d                      Dataset
		headers, rows, visible []byte
	)

	err := s.Scan(
		&d.ID,
		&d.Name,
		&d.UploadedAt,
		&headers,
		&rows,
		&visible,
		&d.SourceKey,
		&d.ContentType,
	)
	if err != nil {
		return d, err
	}

	if err := json.Unmarshal(headers, &d.Headers); err != nil {
		return d, fmt.Errorf("decode headers: %w", err)
	}
	if err := json.Unmarshal(rows, &d.Rows); err != nil {
		return d, fmt.Errorf("decode rows: %w", err)
	}
	if err := json.Unmarshal(visible, &d.VisibleColumns); err != nil {
		return d, fmt.Errorf("decode visibility: %w", err)
	}
	return d, nil
}

func scanSummary(s repository.Scanner) (Summary, error) {
	var d Summary
	err := s.Scan(
		&d.ID,
		&d.Name,
		&d.UploadedAt,
		&d.RowCount,
		&d.ColumnCount,
		&d.SourceKey,
		&d.ContentType,
	)
	return d, err
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
