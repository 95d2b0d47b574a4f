// Package csvio implements CSV batch input and output for census runs.
package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"census_server/core/domain"
	"census_server/pkg/logger"
)

// =============================================================================
// Source
// =============================================================================

// Source reads the portal list from a CSV file. The header row is matched
// case-insensitively; only a url column is required.
type Source struct {
	path string
	log  *logger.Logger
}

// NewSource creates a CSV portal source.
func NewSource(path string) *Source {
	return &Source{
		path: path,
		log:  logger.NewLogger("csv-source"),
	}
}

// Load reads all input rows. Rows without a URL are skipped with a warning.
func (s *Source) Load(ctx context.Context) ([]domain.Portal, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read input csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	urlCol, nameCol, descCol := headerColumns(rows[0])
	if urlCol < 0 {
		return nil, fmt.Errorf("input csv %s has no url column", s.path)
	}

	portals := make([]domain.Portal, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		url := cell(row, urlCol)
		if url == "" {
			s.log.Warn("row %d has no url, skipping", i+2)
			continue
		}

		portals = append(portals, domain.Portal{
			URL:         url,
			Name:        cell(row, nameCol),
			Description: cell(row, descCol),
		})
	}

	s.log.Info("loaded %d portals from %s", len(portals), s.path)
	return portals, nil
}

func headerColumns(header []string) (urlCol, nameCol, descCol int) {
	urlCol, nameCol, descCol = -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "url", "portal_url", "link":
			urlCol = i
		case "name", "title", "portal_name":
			nameCol = i
		case "description", "desc", "notes":
			descCol = i
		}
	}
	return
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// =============================================================================
// Sink
// =============================================================================

// Sink writes finished portals to a CSV file. Write replaces the whole file
// with the accumulated results, so a crash mid-run loses at most the rows
// since the last write.
type Sink struct {
	path string
	log  *logger.Logger
	mu   sync.Mutex
}

// NewSink creates a CSV result sink.
func NewSink(path string) *Sink {
	return &Sink{
		path: path,
		log:  logger.NewLogger("csv-sink"),
	}
}

var outputHeader = []string{
	"url", "name", "description",
	"category", "confidence", "stage",
	"location", "region", "place", "country",
	"ckan_version", "num_datasets", "error",
}

// Write persists the accumulated results.
func (s *Sink) Write(ctx context.Context, portals []domain.Portal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output csv: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(outputHeader); err != nil {
		f.Close()
		return err
	}

	for _, p := range portals {
		if err := ctx.Err(); err != nil {
			f.Close()
			return err
		}
		if err := w.Write(outputRow(p)); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace output csv: %w", err)
	}

	s.log.Info("wrote %d rows to %s", len(portals), s.path)
	return nil
}

// Flush is a final Write barrier; the sink writes eagerly so there is
// nothing buffered here.
func (s *Sink) Flush(ctx context.Context) error {
	return nil
}

func outputRow(p domain.Portal) []string {
	row := []string{p.URL, p.Name, p.Description}

	if c := p.Classification; c != nil {
		row = append(row, string(c.Category), strconv.Itoa(int(c.Confidence)), c.Stage)
	} else {
		row = append(row, "", "", "")
	}

	if l := p.Location; l != nil {
		row = append(row, l.Location, string(l.Region), l.Place, l.Country)
	} else {
		row = append(row, "", "", "", "")
	}

	if m := p.Metadata; m != nil {
		row = append(row, m.CKANVersion, strconv.Itoa(m.NumDatasets))
	} else {
		row = append(row, "", "")
	}

	return append(row, p.Error)
}
