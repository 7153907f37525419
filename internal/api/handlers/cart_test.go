package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paisapro/pricewise/internal/api/dto"
	"github.com/paisapro/pricewise/internal/api/handlers"
	"github.com/paisapro/pricewise/internal/api/router"
	"github.com/paisapro/pricewise/internal/config"
	"github.com/paisapro/pricewise/internal/currency"
	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/optimizer"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/pkg/validator"
	"github.com/paisapro/pricewise/internal/search"
	"github.com/paisapro/pricewise/internal/sources"
	"github.com/paisapro/pricewise/internal/testutil"
)

type fakeAdapter struct {
	name     string
	products []catalog.RawProduct
	err      error
}

func (f *fakeAdapter) Name() string     { return f.name }
func (f *fakeAdapter) Currency() string { return "PKR" }

func (f *fakeAdapter) Fetch(ctx context.Context, query string, maxResults int) ([]catalog.RawProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type testEnv struct {
	server   *httptest.Server
	searcher *testutil.Searcher
	recorder *testutil.Recorder
	history  *testutil.HistoryRepo
}

func newTestEnv(t *testing.T, adapters ...sources.Adapter) *testEnv {
	t.Helper()

	log := logger.Nop()
	db := testutil.NewTestDB(t)

	conv, err := currency.New("PKR", "USD", 280)
	if err != nil {
		t.Fatalf("currency.New() error = %v", err)
	}
	if len(adapters) == 0 {
		adapters = []sources.Adapter{&fakeAdapter{name: "daraz"}}
	}
	reg, err := sources.NewRegistry(adapters...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	env := &testEnv{
		searcher: testutil.NewSearcher(),
		recorder: testutil.NewRecorder(),
		history:  testutil.NewHistoryRepo(),
	}

	svc := optimizer.NewService(
		testutil.NewCartRepo(), testutil.NewSnapshotRepo(), env.history,
		env.searcher, env.recorder,
		reg.Names(), "PKR", "USD",
		optimizer.Config{RecommendationsPerItem: 3, ItemConcurrency: 2},
		log,
	)

	cfg := &config.Config{}
	cfg.Server.FrontendURL = "http://localhost:5173"
	cfg.Search = config.SearchConfig{Deadline: 5 * time.Second, DefaultTopN: 5, Parallel: true, SortByPrice: true}

	coord := search.NewCoordinator(reg, conv, cfg.Search.Deadline, 20, log)
	handler := router.New(cfg, log, &router.Handlers{
		Health:  handlers.NewHealthHandler(db, log),
		Search:  handlers.NewSearchHandler(coord, reg, cfg.Search, log),
		Cart:    handlers.NewCartHandler(svc, log, validator.New()),
		History: handlers.NewHistoryHandler(env.history, log),
	})

	env.server = httptest.NewServer(handler)
	t.Cleanup(env.server.Close)
	return env
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, method, url string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, env
}

func createList(t *testing.T, env *testEnv, owner, name string, items []dto.NewItemRequest) dto.ListDTO {
	t.Helper()
	status, body := do(t, http.MethodPost, env.server.URL+"/api/v1/carts", dto.CreateListRequest{
		OwnerID: owner,
		Name:    name,
		Items:   items,
	})
	if status != http.StatusCreated {
		t.Fatalf("create list status = %d, body = %+v", status, body)
	}
	var list dto.ListDTO
	if err := json.Unmarshal(body.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return list
}

func TestCreateListEndpoint(t *testing.T) {
	env := newTestEnv(t)

	list := createList(t, env, "user-1", "Groceries", []dto.NewItemRequest{
		{ProductName: "Milk 1L", Quantity: 2},
	})
	if list.ID == 0 || len(list.Items) != 1 || list.Items[0].Status != "pending" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestCreateListValidationError(t *testing.T) {
	env := newTestEnv(t)

	status, body := do(t, http.MethodPost, env.server.URL+"/api/v1/carts", dto.CreateListRequest{
		Name: "Groceries",
	})
	if status != http.StatusBadRequest || body.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("status = %d, code = %s, want 400 VALIDATION_ERROR", status, body.Error.Code)
	}
}

func TestCreateListDuplicateConflict(t *testing.T) {
	env := newTestEnv(t)

	createList(t, env, "user-1", "Groceries", nil)
	status, body := do(t, http.MethodPost, env.server.URL+"/api/v1/carts", dto.CreateListRequest{
		OwnerID: "user-1",
		Name:    "Groceries",
	})
	if status != http.StatusConflict || body.Error.Code != "CONFLICT" {
		t.Errorf("status = %d, code = %s, want 409 CONFLICT", status, body.Error.Code)
	}
}

func TestGetListNotFoundEndpoint(t *testing.T) {
	env := newTestEnv(t)

	status, body := do(t, http.MethodGet, env.server.URL+"/api/v1/carts/999", nil)
	if status != http.StatusNotFound || body.Error.Code != "NOT_FOUND" {
		t.Errorf("status = %d, code = %s, want 404 NOT_FOUND", status, body.Error.Code)
	}
}

func TestOptimizeAndSnapshotEndpoints(t *testing.T) {
	env := newTestEnv(t)

	env.searcher.Results["milk"] = []catalog.Recommendation{
		testutil.Recommendation("daraz", "Milk 1L", 1, 1.95),
		testutil.Recommendation("alfatah", "Milk 1L", 2, 2.10),
	}
	list := createList(t, env, "user-1", "Groceries", []dto.NewItemRequest{
		{ProductName: "milk", Quantity: 2},
	})

	// snapshot before any optimization run
	status, body := do(t, http.MethodGet, fmt.Sprintf("%s/api/v1/carts/%d/snapshot", env.server.URL, list.ID), nil)
	if status != http.StatusNotFound || body.Error.Code != "NEVER_OPTIMIZED" {
		t.Fatalf("status = %d, code = %s, want 404 NEVER_OPTIMIZED", status, body.Error.Code)
	}

	status, body = do(t, http.MethodPost, fmt.Sprintf("%s/api/v1/carts/%d/optimize", env.server.URL, list.ID), nil)
	if status != http.StatusOK {
		t.Fatalf("optimize status = %d, body = %+v", status, body)
	}
	var snap dto.SnapshotDTO
	if err := json.Unmarshal(body.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.TotalCostRef != 3.90 || snap.PotentialSavRef != 0.30 {
		t.Errorf("snapshot totals = %v / %v, want 3.90 / 0.30", snap.TotalCostRef, snap.PotentialSavRef)
	}

	// the cached read now serves the same snapshot
	status, body = do(t, http.MethodGet, fmt.Sprintf("%s/api/v1/carts/%d/snapshot", env.server.URL, list.ID), nil)
	if status != http.StatusOK {
		t.Fatalf("snapshot status = %d", status)
	}
	if err := json.Unmarshal(body.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.TotalCostRef != 3.90 {
		t.Errorf("cached TotalCostRef = %v, want 3.90", snap.TotalCostRef)
	}
}

func TestItemEndpoints(t *testing.T) {
	env := newTestEnv(t)

	list := createList(t, env, "user-1", "Groceries", []dto.NewItemRequest{
		{ProductName: "Milk 1L", Quantity: 1},
	})
	itemID := list.Items[0].ID
	base := env.server.URL + "/api/v1/carts"

	status, _ := do(t, http.MethodPut, fmt.Sprintf("%s/items/%d/quantity", base, itemID), dto.UpdateQuantityRequest{Quantity: 4})
	if status != http.StatusOK {
		t.Fatalf("update quantity status = %d", status)
	}

	status, _ = do(t, http.MethodPost, fmt.Sprintf("%s/items/%d/purchased", base, itemID), nil)
	if status != http.StatusOK {
		t.Fatalf("mark purchased status = %d", status)
	}

	status, _ = do(t, http.MethodPost, fmt.Sprintf("%s/items/%d/reactivate", base, itemID), nil)
	if status != http.StatusOK {
		t.Fatalf("reactivate status = %d", status)
	}

	status, body := do(t, http.MethodGet, fmt.Sprintf("%s/%d", base, list.ID), nil)
	if status != http.StatusOK {
		t.Fatalf("get list status = %d", status)
	}
	var got dto.ListDTO
	if err := json.Unmarshal(body.Data, &got); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if got.Items[0].Quantity != 4 || got.Items[0].Status != "pending" {
		t.Errorf("item = %+v, want quantity 4 pending", got.Items[0])
	}

	status, _ = do(t, http.MethodDelete, fmt.Sprintf("%s/items/%d", base, itemID), nil)
	if status != http.StatusOK {
		t.Fatalf("delete item status = %d", status)
	}
}

func TestDeleteListRequiresOwner(t *testing.T) {
	env := newTestEnv(t)

	list := createList(t, env, "user-1", "Groceries", nil)
	base := fmt.Sprintf("%s/api/v1/carts/%d", env.server.URL, list.ID)

	status, _ := do(t, http.MethodDelete, base, nil)
	if status != http.StatusBadRequest {
		t.Errorf("delete without owner status = %d, want 400", status)
	}
	status, _ = do(t, http.MethodDelete, base+"?owner_id=user-2", nil)
	if status != http.StatusNotFound {
		t.Errorf("delete by wrong owner status = %d, want 404", status)
	}
	status, _ = do(t, http.MethodDelete, base+"?owner_id=user-1", nil)
	if status != http.StatusOK {
		t.Errorf("delete by owner status = %d, want 200", status)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		status, _ := do(t, http.MethodGet, env.server.URL+path, nil)
		if status != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, status)
		}
	}
}
