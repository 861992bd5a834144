package liveview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"salesync/internal/domain/sales"
	"salesync/pkg/logger"
)

// Client bundles the event stream and the snapshot API for one server.
// Open the views first, then Start: handlers registered before the first
// dial are guaranteed to see the initial connect signal.
type Client struct {
	Stream    *Stream
	Snapshots *SnapshotClient

	log *logger.Logger
}

// NewClient creates a client for an http(s) base URL; the stream endpoint
// is derived from it.
func NewClient(baseURL string, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Default()
	}

	wsURL, err := streamURL(baseURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		Stream:    NewStream(StreamConfig{URL: wsURL, Logger: log}),
		Snapshots: NewSnapshotClient(baseURL),
		log:       log,
	}, nil
}

// Start dials the event stream; every open view syncs once the
// subscription is active.
func (c *Client) Start(ctx context.Context) {
	c.Stream.Start(ctx)
}

// Close tears down the stream. Views must be closed individually.
func (c *Client) Close() {
	c.Stream.Close()
}

// LiveCustomers opens a live view over all customers.
func (c *Client) LiveCustomers(ctx context.Context) *View[sales.Customer] {
	v := NewView(ViewConfig[sales.Customer]{
		Name:   "customers",
		KeyOf:  func(cu sales.Customer) int { return cu.ID },
		Fetch:  c.Snapshots.Customers,
		Logger: c.log,
	})
	attach(ctx, c, v, sales.TopicCustomerChanged)
	return v
}

// OrdersView is a live view over the orders of one customer. The customer
// can be switched; switching supersedes any in-flight sync.
type OrdersView struct {
	*View[sales.OrderView]
	client *Client
}

// LiveOrders opens a live view over the orders of the given customer.
func (c *Client) LiveOrders(ctx context.Context, customerID int) *OrdersView {
	v := NewView(ViewConfig[sales.OrderView]{
		Name:    "orders",
		KeyOf:   func(o sales.OrderView) int { return o.ID },
		InScope: orderScope(customerID),
		Fetch:   c.ordersFetch(customerID),
		Logger:  c.log,
	})
	attach(ctx, c, v, sales.TopicOrderChanged)
	return &OrdersView{View: v, client: c}
}

// SetCustomer retargets the view to a different customer.
func (ov *OrdersView) SetCustomer(customerID int) {
	ov.Rescope(ov.client.ordersFetch(customerID), orderScope(customerID))
}

func (c *Client) ordersFetch(customerID int) func(context.Context) ([]sales.OrderView, error) {
	return func(ctx context.Context) ([]sales.OrderView, error) {
		return c.Snapshots.OrdersForCustomer(ctx, customerID)
	}
}

func orderScope(customerID int) func(sales.OrderView) bool {
	return func(o sales.OrderView) bool { return o.CustomerID == customerID }
}

// attach wires a view to the stream: decode events on the named topic and
// resync on every connect (initial and after each gap).
func attach[T any](ctx context.Context, c *Client, v *View[T], topic string) {
	c.Stream.On(topic, func(raw json.RawMessage) {
		var ev sales.Change[T]
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warnw("bad change event", "topic", topic, "error", err)
			return
		}
		v.OnEvent(ev)
	})
	c.Stream.OnConnect(func(bool) {
		v.Resync()
	})

	v.Start(ctx)
	// The stream may already be up when the view opens.
	if c.Stream.Connected() {
		v.Resync()
	}
}

func streamURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	return u.String(), nil
}
