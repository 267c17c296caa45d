package table

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/student-insights-go/internal/constants"
	"go.uber.org/zap"
)

type urlSource struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

func newURLSource(url string, timeout time.Duration, logger *zap.Logger) *urlSource {
	if timeout <= 0 {
		timeout = constants.SourceConfig.FetchTimeout
	}
	return &urlSource{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (s *urlSource) Name() string { return "url:" + s.url }

func (s *urlSource) Remote() bool { return true }

func (s *urlSource) Rows(ctx context.Context) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constants.SourceConfig.UserAgent)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, text/html;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "html") {
		s.logger.Debug("Remote table served as HTML, extracting first table",
			zap.String("url", s.url),
			zap.String("content_type", contentType))
		return readHTMLTable(resp.Body)
	}

	return readCSV(resp.Body)
}

// readHTMLTable extracts the data cells of the first <table>. Rows made only
// of <th> cells (column letters, header bands) are skipped.
func readHTMLTable(r io.Reader) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no <table> element in HTML response")
	}

	cells := make([][]string, 0, 32)
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return
		}
		row := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		cells = append(cells, row)
	})

	return numberRows(cells), nil
}
