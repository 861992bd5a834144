package liveview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"salesync/internal/domain/sales"
)

// SnapshotClient fetches point-in-time snapshots over the REST API.
type SnapshotClient struct {
	baseURL string
	http    *http.Client
}

// NewSnapshotClient creates a snapshot client for the given base URL
// (e.g. http://localhost:8080).
func NewSnapshotClient(baseURL string) *SnapshotClient {
	return &SnapshotClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Customers fetches all customers.
func (c *SnapshotClient) Customers(ctx context.Context) ([]sales.Customer, error) {
	var out []sales.Customer
	if err := c.getJSON(ctx, "/api/customers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OrdersForCustomer fetches the orders referencing one customer, each
// including the joined product name.
func (c *SnapshotClient) OrdersForCustomer(ctx context.Context, customerID int) ([]sales.OrderView, error) {
	var out []sales.OrderView
	path := "/api/orders?customerId=" + strconv.Itoa(customerID)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Products fetches the static product reference list.
func (c *SnapshotClient) Products(ctx context.Context) ([]sales.Product, error) {
	var out []sales.Product
	if err := c.getJSON(ctx, "/api/products", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Employees fetches the static employee reference list.
func (c *SnapshotClient) Employees(ctx context.Context) ([]sales.Employee, error) {
	var out []sales.Employee
	if err := c.getJSON(ctx, "/api/employees", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SnapshotClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
