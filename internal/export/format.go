package export

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for an unknown export format.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat normalizes raw into a Format. An empty value selects CSV.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// MIMEType returns the content type of the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Filename returns the download name for a report with the given base name.
func (f Format) Filename(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "report"
	}
	return base + "." + string(f)
}

// File is rendered export content ready for delivery.
type File struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Render serializes items in the requested format.
func Render[T Record](format Format, base string, items []T) (File, error) {
	var (
		content []byte
		err     error
	)
	switch format {
	case FormatCSV:
		var s string
		s, err = CSV(items)
		content = []byte(s)
	case FormatJSON:
		var s string
		s, err = JSON(items)
		content = []byte(s)
	case FormatXLSX:
		content, err = XLSX(items)
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
	if err != nil {
		return File{}, fmt.Errorf("render %s: %w", format, err)
	}
	return File{
		Filename: format.Filename(base),
		MIMEType: format.MIMEType(),
		Content:  content,
	}, nil
}
