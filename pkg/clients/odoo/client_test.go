package odoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaldonado/stocksync/internal/config"
)

// entityCall is one decoded execute_kw invocation seen by the fake server.
type entityCall struct {
	Model  string
	Method string
	Args   []any
	Kwargs map[string]any
}

// rpcFault makes the fake answer an entity call with an error envelope
// instead of a result, the way Odoo reports server-side exceptions.
type rpcFault struct {
	name    string
	message string
}

// fakeOdoo answers /jsonrpc the way a real server would: authenticate on the
// common service, a pluggable handler for entity calls.
type fakeOdoo struct {
	t      *testing.T
	uid    float64
	handle func(call entityCall) any
	calls  []entityCall
}

func (f *fakeOdoo) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, "/jsonrpc", r.URL.Path)

		var req struct {
			Params struct {
				Service string `json:"service"`
				Method  string `json:"method"`
				Args    []any  `json:"args"`
			} `json:"params"`
			ID int64 `json:"id"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))

		var result any
		switch req.Params.Service {
		case "common":
			require.Equal(f.t, "authenticate", req.Params.Method)
			if f.uid > 0 {
				result = f.uid
			} else {
				result = false
			}
		case "object":
			require.Len(f.t, req.Params.Args, 7)
			call := entityCall{
				Model:  req.Params.Args[3].(string),
				Method: req.Params.Args[4].(string),
				Args:   req.Params.Args[5].([]any),
			}
			if kwargs, ok := req.Params.Args[6].(map[string]any); ok {
				call.Kwargs = kwargs
			}
			f.calls = append(f.calls, call)
			result = f.handle(call)
		default:
			f.t.Fatalf("unexpected rpc service %q", req.Params.Service)
		}

		response := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if fault, ok := result.(rpcFault); ok {
			response["error"] = map[string]any{
				"code":    200,
				"message": "Odoo Server Error",
				"data": map[string]any{
					"name":    fault.name,
					"message": fault.message,
				},
			}
		} else {
			response["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(f.t, json.NewEncoder(w).Encode(response))
	}))
}

func newTestClient(t *testing.T, fake *fakeOdoo) *Client {
	srv := fake.server()
	t.Cleanup(srv.Close)

	client := NewClient(config.OdooConfig{
		URL:       srv.URL,
		Database:  "stocksync",
		Username:  "api",
		Password:  "secret",
		CompanyID: 1,
	})
	require.NoError(t, client.Authenticate(context.Background()))
	return client
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	fake := &fakeOdoo{t: t, uid: 0}
	srv := fake.server()
	t.Cleanup(srv.Close)

	client := NewClient(config.OdooConfig{URL: srv.URL, Database: "db", Username: "u", Password: "p", CompanyID: 1})
	err := client.Authenticate(context.Background())

	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestEntityCallsRequireAuthentication(t *testing.T) {
	client := NewClient(config.OdooConfig{URL: "http://localhost:1", Database: "db", Username: "u", Password: "p", CompanyID: 1})

	_, err := client.ProductByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestSearchProductsPaginatesToCompletion(t *testing.T) {
	// Three pages: 100 + 100 + 50 products.
	page := func(offset, count int) []any {
		records := make([]any, 0, count)
		for i := 0; i < count; i++ {
			records = append(records, map[string]any{
				"id":   float64(offset + i + 1),
				"name": "p",
			})
		}
		return records
	}

	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(call entityCall) any {
		require.Equal(t, "product.product", call.Model)
		require.Equal(t, "search_read", call.Method)
		offset := 0
		if v, ok := call.Kwargs["offset"].(float64); ok {
			offset = int(v)
		}
		switch offset {
		case 0, 100:
			return page(offset, 100)
		case 200:
			return page(offset, 50)
		default:
			t.Fatalf("unexpected offset %d", offset)
			return nil
		}
	}

	client := newTestClient(t, fake)
	products, err := client.SearchProducts(context.Background(), SearchOptions{})
	require.NoError(t, err)

	assert.Len(t, products, 250)
	assert.Len(t, fake.calls, 3)
}

func TestSearchProductsSinglePage(t *testing.T) {
	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(call entityCall) any {
		assert.Equal(t, float64(10), call.Kwargs["limit"])
		assert.Equal(t, float64(20), call.Kwargs["offset"])
		return []any{map[string]any{"id": float64(21), "name": "p"}}
	}

	client := newTestClient(t, fake)
	products, err := client.SearchProducts(context.Background(), SearchOptions{Limit: 10, Offset: 20})
	require.NoError(t, err)

	assert.Len(t, products, 1)
	assert.Len(t, fake.calls, 1)
}

func TestProductDecodingToleratesOdooFalse(t *testing.T) {
	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(call entityCall) any {
		return []any{map[string]any{
			"id":             float64(5),
			"name":           "Sin referencia",
			"default_code":   false,
			"standard_price": false,
			"list_price":     float64(9.9),
			"categ_id":       []any{float64(3), "Ferretería"},
		}}
	}

	client := newTestClient(t, fake)
	product, err := client.ProductByID(context.Background(), 5)
	require.NoError(t, err)

	assert.Empty(t, product.Code)
	assert.Nil(t, product.StandardPrice)
	require.NotNil(t, product.ListPrice)
	assert.Equal(t, 9.9, *product.ListPrice)
	assert.Equal(t, "Ferretería", product.CategoryRef)
}

func TestProductByIDNotFound(t *testing.T) {
	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(entityCall) any { return []any{} }

	client := newTestClient(t, fake)
	_, err := client.ProductByID(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProductPriceValidation(t *testing.T) {
	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(entityCall) any { return true }
	client := newTestClient(t, fake)

	price := 10.0
	_, err := client.UpdateProductPrice(context.Background(), 0, &price, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = client.UpdateProductPrice(context.Background(), 5, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// No entity call may have reached the server.
	assert.Empty(t, fake.calls)
}

func TestUpdateProductPriceWritesOnlySuppliedFields(t *testing.T) {
	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(call entityCall) any {
		switch call.Method {
		case "write":
			values := call.Args[1].(map[string]any)
			assert.Equal(t, float64(46.73), values["standard_price"])
			_, hasListPrice := values["list_price"]
			assert.False(t, hasListPrice)
			return true
		case "read":
			return []any{map[string]any{"id": float64(5), "standard_price": float64(46.73)}}
		default:
			t.Fatalf("unexpected method %q", call.Method)
			return nil
		}
	}

	client := newTestClient(t, fake)
	standard := 46.73
	product, err := client.UpdateProductPrice(context.Background(), 5, nil, &standard)
	require.NoError(t, err)

	// Read-after-write snapshot.
	require.NotNil(t, product.StandardPrice)
	assert.Equal(t, 46.73, *product.StandardPrice)
}

func TestUpdateDeletedRecordIsNotFound(t *testing.T) {
	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(call entityCall) any {
		require.Equal(t, "write", call.Method)
		return rpcFault{
			name:    "odoo.exceptions.MissingError",
			message: "Record does not exist or has been deleted. (Record: product.product(999999,), User: 7)",
		}
	}

	client := newTestClient(t, fake)
	price := 10.0
	_, err := client.UpdateProductPrice(context.Background(), 999999, &price, nil)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOtherServerExceptionsStayGeneric(t *testing.T) {
	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(entityCall) any {
		return rpcFault{name: "odoo.exceptions.ValidationError", message: "invalid value"}
	}

	client := newTestClient(t, fake)
	price := 10.0
	_, err := client.UpdateProductPrice(context.Background(), 5, &price, nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateProductStockCreatesThenWritesQuant(t *testing.T) {
	var quantIDs []any
	var createdValues map[string]any
	var writtenValues map[string]any

	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(call entityCall) any {
		switch {
		case call.Model == "stock.location" && call.Method == "search":
			return []any{float64(8)}
		case call.Model == "stock.quant" && call.Method == "search":
			return quantIDs
		case call.Model == "stock.quant" && call.Method == "create":
			createdValues = call.Args[0].(map[string]any)
			quantIDs = []any{float64(55)}
			return float64(55)
		case call.Model == "stock.quant" && call.Method == "write":
			writtenValues = call.Args[1].(map[string]any)
			return true
		case call.Model == "product.product" && call.Method == "read":
			return []any{map[string]any{"id": float64(5), "qty_available": float64(12)}}
		default:
			t.Fatalf("unexpected call %s.%s", call.Model, call.Method)
			return nil
		}
	}

	client := newTestClient(t, fake)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	// First application: no quant exists yet, one is created.
	_, err := client.UpdateProductStock(context.Background(), 5, 12, nil)
	require.NoError(t, err)
	require.NotNil(t, createdValues)
	assert.Equal(t, float64(5), createdValues["product_id"])
	assert.Equal(t, float64(8), createdValues["location_id"])
	assert.Equal(t, float64(12), createdValues["inventory_quantity"])
	assert.Equal(t, "2026-10-30 12:00:00", createdValues["inventory_date"])

	// Second application converges on the same quantity; the recount date
	// advances.
	now = now.Add(24 * time.Hour)
	_, err = client.UpdateProductStock(context.Background(), 5, 12, nil)
	require.NoError(t, err)
	require.NotNil(t, writtenValues)
	assert.Equal(t, float64(12), writtenValues["inventory_quantity"])
	assert.Equal(t, "2026-10-31 12:00:00", writtenValues["inventory_date"])
}

func TestUpdateProductStockNoInternalLocation(t *testing.T) {
	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(call entityCall) any {
		require.Equal(t, "stock.location", call.Model)
		return []any{}
	}

	client := newTestClient(t, fake)
	_, err := client.UpdateProductStock(context.Background(), 5, 12, nil)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProductStockRejectsBadInput(t *testing.T) {
	fake := &fakeOdoo{t: t, uid: 7}
	fake.handle = func(entityCall) any { return nil }
	client := newTestClient(t, fake)

	_, err := client.UpdateProductStock(context.Background(), -1, 12, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, fake.calls)
}
