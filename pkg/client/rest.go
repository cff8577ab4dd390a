package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
)

// APIError is a structured failure returned by the server. Mutation failures
// surface as APIError so the UI can show the message with a retry affordance.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Client is a REST client for the repair desk API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a REST client. baseURL is the server root, e.g.
// "http://localhost:8080".
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Login authenticates and returns the access token used for subsequent
// requests and the websocket connection.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, body, &resp); err != nil {
		return "", err
	}

	c.token = resp.Token
	return resp.Token, nil
}

// ListOrdersOptions narrows and pages the order list.
type ListOrdersOptions struct {
	Status     string
	Department string
	Search     string
	Limit      int
	Offset     int
}

// OrderList is the result of a bulk fetch. DemoMode reports whether the
// server is running against the in-memory demo store.
type OrderList struct {
	Data       []*domain.OrderSnapshot `json:"data"`
	DemoMode   bool                    `json:"demoMode"`
	Pagination struct {
		Limit   int  `json:"limit"`
		Offset  int  `json:"offset"`
		HasMore bool `json:"hasMore"`
	} `json:"pagination"`
}

// ListOrders fetches the current orders. The result typically feeds
// Reconciler.SetOrders.
func (c *Client) ListOrders(ctx context.Context, opts ListOrdersOptions) (*OrderList, error) {
	query := url.Values{}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Department != "" {
		query.Set("department", opts.Department)
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}

	var list OrderList
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateOrderInput is the payload for creating an order.
type CreateOrderInput struct {
	Subject    string `json:"subject"`
	DeviceName string `json:"deviceName"`
	Department string `json:"department"`
	ReportedBy string `json:"reportedBy"`
	Items      string `json:"items,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// CreateOrder creates an order and returns the server-assigned snapshot,
// including the generated order number and timestamps.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.OrderSnapshot, error) {
	var order domain.OrderSnapshot
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders", nil, input, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches a single order by its number.
func (c *Client) GetOrder(ctx context.Context, orderNo string) (*domain.OrderSnapshot, error) {
	var order domain.OrderSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(orderNo), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderInput is the payload for a partial update. Nil fields are left
// untouched on the server.
type UpdateOrderInput struct {
	Subject            *string `json:"subject,omitempty"`
	DeviceName         *string `json:"deviceName,omitempty"`
	Department         *string `json:"department,omitempty"`
	ReportedBy         *string `json:"reportedBy,omitempty"`
	Status             *string `json:"status,omitempty"`
	Items              *string `json:"items,omitempty"`
	RootCause          *string `json:"rootCause,omitempty"`
	Action             *string `json:"action,omitempty"`
	AssignedTechnician *string `json:"assignedTechnician,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// UpdateOrder applies a partial update and returns the updated snapshot.
func (c *Client) UpdateOrder(ctx context.Context, orderNo string, input UpdateOrderInput) (*domain.OrderSnapshot, error) {
	var order domain.OrderSnapshot
	if err := c.do(ctx, http.MethodPut, "/api/v1/orders/"+url.PathEscape(orderNo), nil, input, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteOrder deletes an order by its number.
func (c *Client) DeleteOrder(ctx context.Context, orderNo string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/orders/"+url.PathEscape(orderNo), nil, nil, nil)
}

// do performs a request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
