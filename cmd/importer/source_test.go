package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/poimap/internal/core/domain"
)

func TestParseCSV(t *testing.T) {
	in := "\xef\xbb\xbfName, Lat, Lng, Desc\n" +
		"Big Ben,51.5,-0.12,Clock tower\n" +
		"Broken,north,1,\n" +
		"\"Central Park\",40.785,-73.968,\"Big park\"\n"

	items, bad, err := parseCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []domain.NewPOI{
		{Title: "Big Ben", Description: "Clock tower", Latitude: 51.5, Longitude: -0.12},
		{Title: "Central Park", Description: "Big park", Latitude: 40.785, Longitude: -73.968},
	}, items)
	require.Len(t, bad, 1)
	assert.Equal(t, 3, bad[0].Line)
	assert.Contains(t, bad[0].Error(), "line 3: latitude")
}

func TestParseCSV_MissingColumn(t *testing.T) {
	_, _, err := parseCSV(strings.NewReader("title,latitude\nA,1\n"))
	assert.EqualError(t, err, `missing column "longitude"`)
}

func TestParseCSV_Empty(t *testing.T) {
	_, _, err := parseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadSource_JSONFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "pois.json")
	require.NoError(t, os.WriteFile(p, []byte(`[{"title":"Big Ben","latitude":51.5,"longitude":-0.12}]`), 0o600))

	items, bad, err := readSource(context.Background(), http.DefaultClient, p)
	require.NoError(t, err)
	assert.Empty(t, bad)
	assert.Equal(t, []domain.NewPOI{{Title: "Big Ben", Latitude: 51.5, Longitude: -0.12}}, items)
}

func TestReadSource_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pois.csv":
			_, _ = w.Write([]byte("title,latitude,longitude\nA,1,2\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	items, _, err := readSource(context.Background(), srv.Client(), srv.URL+"/pois.csv?v=1")
	require.NoError(t, err)
	assert.Equal(t, []domain.NewPOI{{Title: "A", Latitude: 1, Longitude: 2}}, items)

	_, _, err = readSource(context.Background(), srv.Client(), srv.URL+"/missing.csv")
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestReadSource_MissingFile(t *testing.T) {
	_, _, err := readSource(context.Background(), http.DefaultClient, filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
