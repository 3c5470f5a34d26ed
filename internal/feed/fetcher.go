// Package feed reads the published spreadsheet CSV exports behind the
// merchandise, blog and careers pages.
package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joinsangha/storefront/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotConfigured = errors.New("feed url is not configured")
	ErrUpstream      = errors.New("feed upstream error")
)

const maxFeedBytes = 5 << 20

// Table is a parsed CSV export. Header names are lower-cased and trimmed.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the header equal to name, falling back to the
// first header containing it. -1 when absent.
func (t *Table) Column(name string) int {
	name = strings.ToLower(name)
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	for i, h := range t.Header {
		if strings.Contains(h, name) {
			return i
		}
	}
	return -1
}

// Value returns row[col] trimmed, or "" when col is out of range.
func Value(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Records maps each row by header name.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Header))
		for i, h := range t.Header {
			rec[h] = Value(row, i)
		}
		out = append(out, rec)
	}
	return out
}

// Fetcher downloads and parses CSV feeds. Concurrent requests for the same
// url share one download, and a breaker stops hammering a failing sheet.
type Fetcher struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Table]
	group   singleflight.Group
	log     *zap.Logger
}

func NewFetcher(timeout time.Duration, log *zap.Logger) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New[*Table](circuitbreaker.DefaultOptions("spreadsheet-feeds", log)),
		log:     log,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*Table, error) {
	if url == "" {
		return nil, ErrNotConfigured
	}

	v, err, shared := f.group.Do(url, func() (any, error) {
		return f.breaker.Execute(func() (*Table, error) {
			return f.download(ctx, url)
		})
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.log.Debug("feed download shared", zap.String("url", url))
	}
	return v.(*Table), nil
}

func (f *Fetcher) download(ctx context.Context, url string) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	return Parse(io.LimitReader(resp.Body, maxFeedBytes))
}

// Parse reads a CSV document with a header row. Blank lines are skipped and
// short rows are allowed.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	t := &Table{Header: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if blank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
