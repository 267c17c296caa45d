package table

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kapu/student-insights-go/pkg/errors"
)

// SourceKind selects where the student table comes from. Exactly one kind is
// active per loader.
type SourceKind string

const (
	SourceLiteral  SourceKind = "literal"
	SourceURL      SourceKind = "url"
	SourcePath     SourceKind = "path"
	SourceSheet    SourceKind = "sheet"
	SourcePostgres SourceKind = "postgres"
)

// HeaderMode controls whether the first row is treated as column names.
type HeaderMode string

const (
	HeaderAuto    HeaderMode = "auto"
	HeaderPresent HeaderMode = "present"
	HeaderAbsent  HeaderMode = "absent"
)

// SourceConfig is the single configuration value for every source kind.
// Fields not used by Kind are ignored.
type SourceConfig struct {
	Kind SourceKind

	Literal string

	URL string
	// InferSchema synthesizes column names. When false the URL's first row is
	// a header kept verbatim.
	InferSchema bool

	Path string

	SpreadsheetID     string
	Range             string
	SheetsAPIKey      string
	SheetsAccessToken string
	SheetsEndpoint    string

	PostgresDSN   string
	PostgresQuery string

	Header       HeaderMode
	FetchTimeout time.Duration
}

// Literal selects an in-process table.
func Literal(text string) SourceConfig {
	return SourceConfig{Kind: SourceLiteral, Literal: text, InferSchema: true, Header: HeaderAuto}
}

// URL selects a remote CSV resource.
func URL(address string, inferSchema bool) SourceConfig {
	return SourceConfig{Kind: SourceURL, URL: address, InferSchema: inferSchema, Header: HeaderAuto}
}

// Path selects a local CSV file.
func Path(path string) SourceConfig {
	return SourceConfig{Kind: SourcePath, Path: path, InferSchema: true, Header: HeaderAuto}
}

// Sheet selects a Google Sheets range.
func Sheet(spreadsheetID, rng string) SourceConfig {
	return SourceConfig{Kind: SourceSheet, SpreadsheetID: spreadsheetID, Range: rng, InferSchema: true, Header: HeaderAuto}
}

// Postgres selects a read-only query whose columns follow the table layout.
func Postgres(dsn, query string) SourceConfig {
	return SourceConfig{Kind: SourcePostgres, PostgresDSN: dsn, PostgresQuery: query, InferSchema: true, Header: HeaderAbsent}
}

func (c SourceConfig) Validate() error {
	switch c.Kind {
	case SourceLiteral:
		// An empty literal falls back to the embedded sample table.
	case SourceURL:
		lower := strings.ToLower(strings.TrimSpace(c.URL))
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return errors.NewValidationError("DATA_URL must be an http(s) address", "DATA_URL", c.URL)
		}
	case SourcePath:
		if strings.TrimSpace(c.Path) == "" {
			return errors.NewValidationError("DATA_PATH is required for the path source", "DATA_PATH", c.Path)
		}
	case SourceSheet:
		if c.SpreadsheetID == "" {
			return errors.NewValidationError("SHEETS_SPREADSHEET_ID is required for the sheet source", "SHEETS_SPREADSHEET_ID", c.SpreadsheetID)
		}
		if c.SheetsAPIKey == "" && c.SheetsAccessToken == "" {
			return errors.NewValidationError("SHEETS_API_KEY or SHEETS_ACCESS_TOKEN is required for the sheet source", "SHEETS_API_KEY", "")
		}
	case SourcePostgres:
		if c.PostgresDSN == "" {
			return errors.NewValidationError("POSTGRES_DSN is required for the postgres source", "POSTGRES_DSN", "")
		}
		if c.PostgresQuery == "" {
			return errors.NewValidationError("POSTGRES_QUERY is required for the postgres source", "POSTGRES_QUERY", "")
		}
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown data source %q", c.Kind), "DATA_SOURCE", string(c.Kind))
	}

	switch c.Header {
	case "", HeaderAuto, HeaderPresent, HeaderAbsent:
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown header mode %q", c.Header), "DATA_HEADER", string(c.Header))
	}
	return nil
}

// headerMode resolves the effective header handling. Raw URL mode always
// reads a header.
func (c SourceConfig) headerMode() HeaderMode {
	if c.Kind == SourceURL && !c.InferSchema {
		return HeaderPresent
	}
	if c.Header == "" {
		return HeaderAuto
	}
	return c.Header
}

// Row is one physical source row. Err is set when the row could not be split
// into cells.
type Row struct {
	Line  int      `json:"line"`
	Cells []string `json:"cells"`
	Err   string   `json:"err,omitempty"`
}

// Source produces raw rows. Remote sources are eligible for the shared cache
// tier.
type Source interface {
	Name() string
	Remote() bool
	Rows(ctx context.Context) ([]Row, error)
}
