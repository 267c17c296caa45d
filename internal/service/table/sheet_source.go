package table

import (
	"context"
	"fmt"

	"github.com/kapu/student-insights-go/internal/constants"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type sheetSource struct {
	service       *sheets.Service
	spreadsheetID string
	rng           string
	logger        *zap.Logger
}

func newSheetSource(ctx context.Context, cfg SourceConfig, logger *zap.Logger) (*sheetSource, error) {
	opts := make([]option.ClientOption, 0, 2)
	if cfg.SheetsAccessToken != "" {
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.SheetsAccessToken,
			TokenType:   "Bearer",
		})))
	} else {
		opts = append(opts, option.WithAPIKey(cfg.SheetsAPIKey))
	}
	if cfg.SheetsEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.SheetsEndpoint))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	rng := cfg.Range
	if rng == "" {
		rng = constants.SourceConfig.SheetRange
	}

	return &sheetSource{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		rng:           rng,
		logger:        logger,
	}, nil
}

func (s *sheetSource) Name() string {
	return fmt.Sprintf("sheet:%s!%s", s.spreadsheetID, s.rng)
}

func (s *sheetSource) Remote() bool { return true }

func (s *sheetSource) Rows(ctx context.Context) ([]Row, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		if apiErr, ok := err.(*googleapi.Error); ok {
			return nil, fmt.Errorf("sheets API error %d: %s", apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("sheets request failed: %w", err)
	}

	cells := make([][]string, len(resp.Values))
	for i, values := range resp.Values {
		row := make([]string, len(values))
		for j, v := range values {
			row[j] = fmt.Sprint(v)
		}
		cells[i] = row
	}

	s.logger.Debug("Sheets range fetched",
		zap.String("spreadsheet", s.spreadsheetID),
		zap.String("range", s.rng),
		zap.Int("rows", len(cells)))

	return numberRows(padRows(cells)), nil
}

// padRows right-pads every row to the widest row. The Sheets API drops
// trailing empty cells, so short rows there are not malformed. Rows with no
// cells at all are left empty.
func padRows(cells [][]string) [][]string {
	width := 0
	for _, row := range cells {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range cells {
		if len(row) > 0 && len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			cells[i] = padded
		}
	}
	return cells
}
