package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/poimap/internal/adapters/http"
	"github.com/samirrijal/poimap/internal/adapters/memory"
	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/core/usecases"
)

// ---- Mock repository ----

type mockPOIRepo struct {
	listFn    func(ctx context.Context) ([]domain.POI, error)
	getByIDFn func(ctx context.Context, id string) (*domain.POI, error)
	createFn  func(ctx context.Context, p *domain.POI) error
	updateFn  func(ctx context.Context, id string, u domain.POIUpdate) (*domain.POI, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockPOIRepo) List(ctx context.Context) ([]domain.POI, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockPOIRepo) GetByID(ctx context.Context, id string) (*domain.POI, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockPOIRepo) Create(ctx context.Context, p *domain.POI) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	p.ID = "new-id"
	return nil
}
func (m *mockPOIRepo) Update(ctx context.Context, id string, u domain.POIUpdate) (*domain.POI, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, u)
	}
	return nil, domain.ErrNotFound
}
func (m *mockPOIRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		POIs: usecases.NewPOIService(&mockPOIRepo{}, nil, nil),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func withRepo(repo *mockPOIRepo) func(*handler.Dependencies) {
	return func(d *handler.Dependencies) {
		d.POIs = usecases.NewPOIService(repo, nil, nil)
	}
}

func jsonRequest(method, target string, body interface{}) *nethttp.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeAPIError(t *testing.T, body io.Reader) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.NewDecoder(body).Decode(&apiErr); err != nil {
		t.Fatalf("decode api error: %v", err)
	}
	return apiErr
}

// ---- List ----

func TestListPOIs_BareArray(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockPOIRepo{
		listFn: func(ctx context.Context) ([]domain.POI, error) {
			return []domain.POI{
				{ID: "1", Title: "Big Ben", Latitude: 51.5, Longitude: -0.12},
				{ID: "2", Title: "Central Park", Latitude: 40.785, Longitude: -73.968},
			}, nil
		},
	})))

	resp, err := app.Test(httptest.NewRequest("GET", "/pois", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var pois []domain.POI
	if err := json.NewDecoder(resp.Body).Decode(&pois); err != nil {
		t.Fatalf("expected bare JSON array: %v", err)
	}
	if len(pois) != 2 || pois[0].Title != "Big Ben" {
		t.Errorf("unexpected pois: %+v", pois)
	}
	if resp.Header.Get("Cache-Control") != "no-cache" {
		t.Errorf("expected no-cache, got %q", resp.Header.Get("Cache-Control"))
	}
	if resp.Header.Get("X-Total-Count") != "" {
		t.Error("X-Total-Count should only be set when paging")
	}
}

func TestListPOIs_EmptyIsArray(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/pois", nil), -1)
	body := strings.TrimSpace(string(readBody(t, resp.Body)))
	if body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestListPOIs_Pagination(t *testing.T) {
	pois := make([]domain.POI, 5)
	for i := range pois {
		pois[i] = domain.POI{ID: fmt.Sprintf("p%d", i), Title: fmt.Sprintf("POI %d", i)}
	}
	app := setupApp(makeDeps(withRepo(&mockPOIRepo{
		listFn: func(ctx context.Context) ([]domain.POI, error) { return pois, nil },
	})))

	resp, _ := app.Test(httptest.NewRequest("GET", "/pois?offset=2&limit=2", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Total-Count"); got != "5" {
		t.Errorf("expected X-Total-Count 5, got %q", got)
	}
	link := resp.Header.Get("Link")
	for _, rel := range []string{`rel="first"`, `rel="prev"`, `rel="next"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("expected %s in Link header, got %s", rel, link)
		}
	}

	var page []domain.POI
	json.NewDecoder(resp.Body).Decode(&page)
	if len(page) != 2 || page[0].ID != "p2" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestListPOIs_Nearby(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockPOIRepo{
		listFn: func(ctx context.Context) ([]domain.POI, error) {
			return []domain.POI{
				{ID: "cp", Title: "Central Park", Latitude: 40.785, Longitude: -73.968},
				{ID: "ben", Title: "Big Ben", Latitude: 51.5007, Longitude: -0.1246},
			}, nil
		},
	})))

	resp, _ := app.Test(httptest.NewRequest("GET", "/pois?lat=51.5&lon=-0.12&radius=2000", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var pois []domain.POI
	json.NewDecoder(resp.Body).Decode(&pois)
	if len(pois) != 1 || pois[0].ID != "ben" || pois[0].Distance == nil {
		t.Errorf("expected only Big Ben with distance, got %+v", pois)
	}
}

func TestListPOIs_NearbyMissingLon(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/pois?lat=51.5", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if apiErr := decodeAPIError(t, resp.Body); apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request, got %s", apiErr.Code)
	}
}

func TestListPOIs_NearbyBadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/pois?lat=51.5&lon=-0.12&radius=999999", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListPOIs_RepoError(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockPOIRepo{
		listFn: func(ctx context.Context) ([]domain.POI, error) {
			return nil, errors.New("connection refused")
		},
	})))

	resp, _ := app.Test(httptest.NewRequest("GET", "/pois", nil), -1)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	apiErr := decodeAPIError(t, resp.Body)
	if apiErr.Code != "internal_error" {
		t.Errorf("expected internal_error, got %s", apiErr.Code)
	}
	if strings.Contains(apiErr.Message, "connection refused") {
		t.Error("internal error details should not leak to clients")
	}
	if apiErr.RequestID == "" {
		t.Error("expected request_id in error body")
	}
}

// ---- Get ----

func TestGetPOI_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/pois/missing", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if apiErr := decodeAPIError(t, resp.Body); apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %s", apiErr.Code)
	}
}

// ---- Create ----

func TestCreatePOI_Success(t *testing.T) {
	var got domain.POI
	app := setupApp(makeDeps(withRepo(&mockPOIRepo{
		createFn: func(ctx context.Context, p *domain.POI) error {
			p.ID = "cp-1"
			got = *p
			return nil
		},
	})))

	req := jsonRequest("POST", "/pois", map[string]interface{}{
		"title": "Central Park", "description": "Big park", "latitude": 40.785, "longitude": -73.968,
	})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if loc := resp.Header.Get("Location"); loc != "/pois/cp-1" {
		t.Errorf("expected Location /pois/cp-1, got %q", loc)
	}

	var created domain.POI
	json.NewDecoder(resp.Body).Decode(&created)
	if created.ID != "cp-1" || created.Title != "Central Park" {
		t.Errorf("unexpected created poi: %+v", created)
	}
	if got.Latitude != 40.785 || got.Longitude != -73.968 || got.Description != "Big park" {
		t.Errorf("unexpected stored poi: %+v", got)
	}
}

func TestCreatePOI_EmptyTitle(t *testing.T) {
	app := setupApp(makeDeps())

	req := jsonRequest("POST", "/pois", map[string]interface{}{
		"title": "", "description": "", "latitude": 51.5, "longitude": -0.12,
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	apiErr := decodeAPIError(t, resp.Body)
	if apiErr.Code != "validation_failed" {
		t.Errorf("expected validation_failed, got %s", apiErr.Code)
	}
	if len(apiErr.Fields) == 0 || apiErr.Fields[0].Field != "title" {
		t.Errorf("expected title field error, got %+v", apiErr.Fields)
	}
}

func TestCreatePOI_MissingCoordinates(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(jsonRequest("POST", "/pois", map[string]string{"title": "Nowhere"}), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreatePOI_OutOfRange(t *testing.T) {
	app := setupApp(makeDeps())

	req := jsonRequest("POST", "/pois", map[string]interface{}{
		"title": "Bad", "latitude": 95.0, "longitude": 200.0,
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if apiErr := decodeAPIError(t, resp.Body); len(apiErr.Fields) != 2 {
		t.Errorf("expected latitude and longitude errors, got %+v", apiErr.Fields)
	}
}

func TestCreatePOI_InvalidJSON(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/pois", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Update ----

func TestUpdatePOI_IgnoresCoordinates(t *testing.T) {
	var gotUpdate domain.POIUpdate
	app := setupApp(makeDeps(withRepo(&mockPOIRepo{
		updateFn: func(ctx context.Context, id string, u domain.POIUpdate) (*domain.POI, error) {
			gotUpdate = u
			return &domain.POI{ID: id, Title: u.Title, Description: u.Description, Latitude: 51.5, Longitude: -0.12}, nil
		},
	})))

	req := jsonRequest("PATCH", "/pois/ben", map[string]interface{}{
		"title": "Elizabeth Tower", "description": "Clock", "latitude": 0.0, "longitude": 0.0,
	})
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotUpdate.Title != "Elizabeth Tower" || gotUpdate.Description != "Clock" {
		t.Errorf("unexpected update: %+v", gotUpdate)
	}

	var poi domain.POI
	json.NewDecoder(resp.Body).Decode(&poi)
	if poi.Latitude != 51.5 {
		t.Errorf("coordinates should be unchanged, got %+v", poi)
	}
}

func TestUpdatePOI_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(jsonRequest("PATCH", "/pois/gone", map[string]string{"title": "x"}), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Delete ----

func TestDeletePOI_NoContent(t *testing.T) {
	var deleted string
	app := setupApp(makeDeps(withRepo(&mockPOIRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	})))

	resp, _ := app.Test(httptest.NewRequest("DELETE", "/pois/abc", nil), -1)
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if deleted != "abc" {
		t.Errorf("expected delete of abc, got %q", deleted)
	}
}

func TestDeletePOI_Unknown(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockPOIRepo{
		deleteFn: func(ctx context.Context, id string) error { return domain.ErrNotFound },
	})))

	resp, _ := app.Test(httptest.NewRequest("DELETE", "/pois/gone", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Round trip against the memory store ----

func TestPOILifecycle_MemoryStore(t *testing.T) {
	app := setupApp(&handler.Dependencies{
		POIs: usecases.NewPOIService(memory.NewPOIRepo(), nil, nil),
	})

	resp, _ := app.Test(jsonRequest("POST", "/pois", map[string]interface{}{
		"title": "Big Ben", "description": "", "latitude": 51.5, "longitude": -0.12,
	}), -1)
	if resp.StatusCode != 201 {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var created domain.POI
	json.NewDecoder(resp.Body).Decode(&created)

	resp, _ = app.Test(jsonRequest("PATCH", "/pois/"+created.ID, map[string]string{"title": "Elizabeth Tower", "description": "Clock"}), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/pois", nil), -1)
	var pois []domain.POI
	json.NewDecoder(resp.Body).Decode(&pois)
	if len(pois) != 1 || pois[0].Title != "Elizabeth Tower" || pois[0].Latitude != 51.5 {
		t.Fatalf("unexpected list after update: %+v", pois)
	}

	resp, _ = app.Test(httptest.NewRequest("DELETE", "/pois/"+created.ID, nil), -1)
	if resp.StatusCode != 204 {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest("DELETE", "/pois/"+created.ID, nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("second delete: expected 404, got %d", resp.StatusCode)
	}
}

// ---- Middleware and system endpoints ----

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockPOIRepo{
		listFn: func(ctx context.Context) ([]domain.POI, error) {
			return []domain.POI{{ID: "1", Title: "Big Ben"}}, nil
		},
	})))

	resp, _ := app.Test(httptest.NewRequest("GET", "/pois", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/pois", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
}

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %s", body["status"])
	}
}

func TestReady_NoStorage(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestReady_StorageOnly(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.DB = okPinger{}
	}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Checks["storage"] != "ok" || body.Checks["cache"] != "not configured" {
		t.Errorf("unexpected checks: %+v", body.Checks)
	}
}

func TestReady_CacheDown(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.DB = okPinger{}
		d.Cache = okPinger{err: errors.New("dial tcp: refused")}
	}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if v := resp.Header.Get("X-API-Version"); v != handler.APIVersion {
		t.Errorf("expected X-API-Version %s, got %q", handler.APIVersion, v)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header")
	}
}

func TestGraphQL_Pois(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockPOIRepo{
		listFn: func(ctx context.Context) ([]domain.POI, error) {
			return []domain.POI{{ID: "1", Title: "Big Ben", Latitude: 51.5, Longitude: -0.12}}, nil
		},
	})))

	resp, _ := app.Test(jsonRequest("POST", "/graphql", map[string]string{
		"query": "{ pois { id title latitude longitude } }",
	}), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			POIs []struct {
				ID       string  `json:"id"`
				Title    string  `json:"title"`
				Latitude float64 `json:"latitude"`
			} `json:"pois"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected graphql errors: %v", result.Errors)
	}
	if len(result.Data.POIs) != 1 || result.Data.POIs[0].Title != "Big Ben" {
		t.Errorf("unexpected data: %+v", result.Data)
	}
}

func TestGraphQL_EmptyQuery(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(jsonRequest("POST", "/graphql", map[string]string{}), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}
