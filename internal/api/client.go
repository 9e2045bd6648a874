// Package api is the client for the upstream Servizo server: the source of
// truth for menu, orders, tables and payments. The terminal holds no order
// state of its own; everything read here replaces the previous cache in full.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Error carries the server-provided failure message so callers can show it
// verbatim, per the no-optimistic-mutation policy: a failed write leaves
// local state untouched and this message is all the user sees.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		logger: logger,
	}, nil
}

// UnpaidOrders fetches the full unpaid list for a table.
func (c *Client) UnpaidOrders(ctx context.Context, table int) ([]UnpaidOrder, error) {
	var out struct {
		Orders []UnpaidOrder `json:"orders"`
	}
	path := fmt.Sprintf("/api/orders/unpaid/%d/", table)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// CreateOrder submits a deduplicated line list for the table and returns the
// new order's id.
func (c *Client) CreateOrder(ctx context.Context, table int, lines []OrderLine) (string, error) {
	var out struct {
		Detail string `json:"detail"`
		ID     string `json:"id"`
	}
	path := fmt.Sprintf("/api/orders/create/%d/", table)
	body := map[string]any{"items": lines}
	if err := c.post(ctx, path, body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) PayOrder(ctx context.Context, orderID string) error {
	return c.post(ctx, "/api/orders/pay/"+url.PathEscape(orderID)+"/", map[string]any{}, nil)
}

func (c *Client) PayTable(ctx context.Context, table int) error {
	// The server expects the table number as a string here.
	body := map[string]any{"table_num": strconv.Itoa(table)}
	return c.post(ctx, "/api/orders/pay-table/", body, nil)
}

// Tables fetches every table's outstanding-balance snapshot.
func (c *Client) Tables(ctx context.Context) ([]TableSnapshot, error) {
	var out struct {
		Detail []TableSnapshot `json:"detail"`
	}
	if err := c.get(ctx, "/api/tables/", &out); err != nil {
		return nil, err
	}
	return out.Detail, nil
}

func (c *Client) MenuItems(ctx context.Context) ([]MenuItem, error) {
	var out struct {
		Items []MenuItem `json:"items"`
	}
	if err := c.get(ctx, "/api/menu/items/", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) Favorites(ctx context.Context) ([]MenuItem, error) {
	var out struct {
		Favorites []MenuItem `json:"favorites"`
	}
	if err := c.get(ctx, "/api/user/favorites/", &out); err != nil {
		return nil, err
	}
	return out.Favorites, nil
}

func (c *Client) AddFavorite(ctx context.Context, itemID string) error {
	return c.post(ctx, "/api/user/favorites/add/"+url.PathEscape(itemID)+"/", map[string]any{}, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, itemID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/user/favorites/remove/"+url.PathEscape(itemID)+"/", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// CreatePaymentIntent hands the listed orders to the card-payment processor
// and returns the client secret the payment UI needs. Capture itself happens
// entirely outside the terminal.
func (c *Client) CreatePaymentIntent(ctx context.Context, orderIDs []string) (PaymentIntent, error) {
	var out PaymentIntent
	body := map[string]any{"order_ids": orderIDs}
	if err := c.post(ctx, "/api/payments/create-intent/", body, &out); err != nil {
		return PaymentIntent{}, err
	}
	return out, nil
}

func (c *Client) WhoAmI(ctx context.Context) (User, error) {
	var out User
	if err := c.get(ctx, "/api/auth/whoami/", &out); err != nil {
		return User{}, err
	}
	return out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/api/auth/logout/", map[string]any{}, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet {
		if token := c.csrfToken(); token != "" {
			req.Header.Set("X-CSRFToken", token)
		}
	}
	return req, nil
}

// csrfToken mirrors the browser client's CSRF discipline: the server sets a
// csrftoken cookie and expects it echoed in a header on every write.
func (c *Client) csrfToken() string {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(base) {
		if cookie.Name == "csrftoken" {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}

	if res.StatusCode >= 400 {
		detail := struct {
			Detail string `json:"detail"`
		}{}
		_ = json.Unmarshal(raw, &detail)
		c.logger.Warn("server request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", res.StatusCode))
		return &Error{Status: res.StatusCode, Detail: detail.Detail}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
