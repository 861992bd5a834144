package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "salesync/internal/infrastructure/http/v1"
	"salesync/internal/relay"
	"salesync/internal/store"
	"salesync/pkg/liveview"
	"salesync/pkg/logger"
)

type testServer struct {
	*httptest.Server
	store *store.Store
	hub   *relay.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()

	st := store.New(log)
	hub := relay.NewHub(log)

	ctx, cancel := context.WithCancel(context.Background())
	go relay.New(st, hub, log).Run(ctx)

	srv := httptest.NewServer(v1.NewRouter(v1.RouterConfig{
		Store:  st,
		Hub:    hub,
		Logger: log,
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{Server: srv, store: st, hub: hub}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) (code string) {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Code
}

func TestSnapshotEndpoints(t *testing.T) {
	ts := newTestServer(t)
	snaps := liveview.NewSnapshotClient(ts.URL)
	ctx := context.Background()

	products, err := snaps.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	var foundRamen bool
	for _, p := range products {
		if p.Name == "Ramen" {
			foundRamen = true
		}
	}
	require.True(t, foundRamen)

	employees, err := snaps.Employees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 3)

	customers, err := snaps.Customers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 3)

	orders, err := snaps.OrdersForCustomer(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCreateCustomerRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/customers", map[string]string{
		"firstName": "Hub", "middleInitial": "X", "lastName": "Listener",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var created struct {
		ID        int    `json:"id"`
		FirstName string `json:"firstName"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Equal(t, 4, created.ID)
	require.Equal(t, "Hub", created.FirstName)
}

func TestCreateCustomerRejectsMissingFields(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/customers", map[string]string{
		"firstName": "OnlyFirst",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "VALIDATION_ERROR", decodeError(t, resp))
}

func TestCreateOrderRejectsDanglingReference(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/orders", map[string]any{
		"salespersonId": 1, "customerId": 1, "productId": 99, "quantity": "2",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "VALIDATION_ERROR", decodeError(t, resp))
}

func TestDeleteCustomerWithOrdersIsConflict(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/orders", map[string]any{
		"salespersonId": 1, "customerId": 1, "productId": 1, "quantity": "1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/customers/1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "CONFLICT", decodeError(t, resp))
}

func TestUpdateCustomerUnknownIDIsNotFound(t *testing.T) {
	ts := newTestServer(t)

	raw, err := json.Marshal(map[string]string{
		"firstName": "No", "middleInitial": "B", "lastName": "Ody",
	})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/customers/99", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", decodeError(t, resp))
}

func TestOrdersListRequiresCustomerID(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/orders")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "VALIDATION_ERROR", decodeError(t, resp))
}

func TestHealthInfoCountsSessions(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info struct {
		App      string `json:"app"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	require.Equal(t, "salesync", info.App)
	require.Equal(t, 0, info.Sessions)
}

// The full pipeline: mutate over REST, observe the change land in a remote
// reconciled view via the websocket stream.
func TestLiveViewTracksMutations(t *testing.T) {
	ts := newTestServer(t)
	log := logger.Nop()

	client, err := liveview.NewClient(ts.URL, log)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view := client.LiveCustomers(ctx)
	defer view.Close()
	client.Start(ctx)

	require.Eventually(t, func() bool {
		return view.State() == liveview.StateLive
	}, 5*time.Second, 10*time.Millisecond, "view never reached live")
	require.Equal(t, 3, view.Len())

	resp := postJSON(t, ts.URL+"/api/customers", map[string]string{
		"firstName": "Hub", "middleInitial": "X", "lastName": "Listener",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		c, ok := view.Get(4)
		return ok && c.FirstName == "Hub"
	}, 5*time.Second, 10*time.Millisecond, "created customer never reached the view")

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/customers/4", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.Eventually(t, func() bool {
		_, ok := view.Get(4)
		return !ok
	}, 5*time.Second, 10*time.Millisecond, "deleted customer never left the view")
}

// Orders view follows the selected customer, including a mid-session switch.
func TestLiveOrdersRescope(t *testing.T) {
	ts := newTestServer(t)
	log := logger.Nop()

	client, err := liveview.NewClient(ts.URL, log)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view := client.LiveOrders(ctx, 1)
	defer view.Close()
	client.Start(ctx)

	require.Eventually(t, func() bool {
		return view.State() == liveview.StateLive
	}, 5*time.Second, 10*time.Millisecond)

	resp := postJSON(t, ts.URL+"/api/orders", map[string]any{
		"salespersonId": 1, "customerId": 1, "productId": 1, "quantity": "2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// An order for a different customer must not show up.
	resp = postJSON(t, ts.URL+"/api/orders", map[string]any{
		"salespersonId": 1, "customerId": 2, "productId": 2, "quantity": "1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		o, ok := view.Get(1)
		return ok && o.ProductName == "Ramen" && view.Len() == 1
	}, 5*time.Second, 10*time.Millisecond)

	view.SetCustomer(2)
	require.Eventually(t, func() bool {
		o, ok := view.Get(2)
		return ok && o.CustomerID == 2 && view.Len() == 1
	}, 5*time.Second, 10*time.Millisecond, "rescoped view never converged")
}
