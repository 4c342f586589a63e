package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// maxSourceBytes bounds a single downloaded or opened source.
const maxSourceBytes = 32 << 20

// column aliases accepted in CSV headers.
var csvColumns = map[string][]string{
	"title":       {"title", "name"},
	"description": {"description", "desc"},
	"latitude":    {"latitude", "lat"},
	"longitude":   {"longitude", "lon", "lng"},
}

// rowError is a CSV line that could not be turned into a POI payload.
type rowError struct {
	Line int
	Err  error
}

func (e rowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

// openSource returns the contents of a local file or an http(s) URL.
func openSource(ctx context.Context, client *http.Client, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.Open(src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, src)
	}
	return resp.Body, nil
}

// readSource loads POI payloads from src. Files ending in .json hold an array
// of {title, description, latitude, longitude}; anything else is read as CSV
// with a header row.
func readSource(ctx context.Context, client *http.Client, src string) ([]domain.NewPOI, []rowError, error) {
	rc, err := openSource(ctx, client, src)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()
	r := io.LimitReader(rc, maxSourceBytes)

	if strings.EqualFold(path.Ext(strings.SplitN(src, "?", 2)[0]), ".json") {
		var items []domain.NewPOI
		if err := json.NewDecoder(r).Decode(&items); err != nil {
			return nil, nil, fmt.Errorf("parse json: %w", err)
		}
		return items, nil, nil
	}
	return parseCSV(r)
}

func parseCSV(r io.Reader) ([]domain.NewPOI, []rowError, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, required := range []string{"title", "latitude", "longitude"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", required)
		}
	}

	var (
		items []domain.NewPOI
		bad   []rowError
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return items, bad, err
			}
			bad = append(bad, rowError{Line: pe.Line, Err: pe.Err})
			continue
		}
		line, _ := reader.FieldPos(0)

		lat, err := strconv.ParseFloat(getField(record, cols, "latitude"), 64)
		if err != nil {
			bad = append(bad, rowError{Line: line, Err: fmt.Errorf("latitude: %w", err)})
			continue
		}
		lon, err := strconv.ParseFloat(getField(record, cols, "longitude"), 64)
		if err != nil {
			bad = append(bad, rowError{Line: line, Err: fmt.Errorf("longitude: %w", err)})
			continue
		}
		items = append(items, domain.NewPOI{
			Title:       getField(record, cols, "title"),
			Description: getField(record, cols, "description"),
			Latitude:    lat,
			Longitude:   lon,
		})
	}
	return items, bad, nil
}

// indexColumns maps canonical column names to their position in header.
func indexColumns(header []string) map[string]int {
	pos := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		pos[strings.ToLower(strings.TrimSpace(col))] = i
	}

	cols := make(map[string]int, len(csvColumns))
	for name, aliases := range csvColumns {
		for _, alias := range aliases {
			if i, ok := pos[alias]; ok {
				cols[name] = i
				break
			}
		}
	}
	return cols
}

func getField(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
