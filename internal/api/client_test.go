package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return c, srv
}

func TestUnpaidOrdersParsesStringPrices(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/unpaid/5/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"orders":[{"id":"o1","status":"new","total_price":"12.50",
			"items":[{"id":"soup","name":"Soup","price":"3.5","quantity":2}]}]}`))
	}))

	orders, err := c.UnpaidOrders(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if !orders[0].TotalPrice.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected total 12.50, got %s", orders[0].TotalPrice)
	}
	if orders[0].Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", orders[0].Items[0].Quantity)
	}
}

func TestTablesParsesDetailEnvelope(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail":[{"id":"t3","table_number":3,"amount_due":"0"},
			{"id":"t1","table_number":1,"amount_due":12.5}]}`))
	}))

	tables, err := c.Tables(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if !tables[1].AmountDue.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("numeric amount_due not parsed: %s", tables[1].AmountDue)
	}
}

func TestCreateOrderSendsDedupedLines(t *testing.T) {
	var got struct {
		Items []OrderLine `json:"items"`
	}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/orders/create/7/" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"detail":"Order placed","id":"ord-9"}`))
	}))

	id, err := c.CreateOrder(context.Background(), 7, []OrderLine{{ID: "soup", Quantity: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if id != "ord-9" {
		t.Fatalf("expected ord-9, got %q", id)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 3 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestWriteEchoesCSRFCookie(t *testing.T) {
	var header string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/whoami/":
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok123", Path: "/"})
			w.Write([]byte(`{"username":"ana","role":"customer"}`))
		case "/api/orders/pay-table/":
			header = r.Header.Get("X-CSRFToken")
			w.Write([]byte(`{"detail":"ok"}`))
		}
	}))

	if _, err := c.WhoAmI(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.PayTable(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	if header != "tok123" {
		t.Fatalf("expected csrf token echoed on write, got %q", header)
	}
}

func TestServerDetailSurfacesAsError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Soup is currently unavailable"}`))
	}))

	_, err := c.CreateOrder(context.Background(), 7, []OrderLine{{ID: "soup", Quantity: 1}})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Detail != "Soup is currently unavailable" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if apiErr.Error() != "Soup is currently unavailable" {
		t.Fatalf("detail must be the message, got %q", apiErr.Error())
	}
}

func TestPayTableSendsTableNumberAsString(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"detail":"ok"}`))
	}))

	if err := c.PayTable(context.Background(), 11); err != nil {
		t.Fatal(err)
	}
	if body["table_num"] != "11" {
		t.Fatalf("expected table_num \"11\", got %v", body["table_num"])
	}
}
