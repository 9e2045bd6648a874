package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money tolerates the server's habit of sending amounts both as JSON numbers
// and as quoted strings ("12.50").
type Money struct {
	decimal.Decimal
}

func (m *Money) UnmarshalJSON(raw []byte) error {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		d, err := decimal.NewFromString(asString)
		if err != nil {
			return err
		}
		m.Decimal = d
		return nil
	}
	return m.Decimal.UnmarshalJSON(raw)
}

// UnpaidOrder is a server-confirmed, submitted order not yet marked paid.
// Replaced wholesale on every fetch; the client never patches one.
type UnpaidOrder struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	OrderedAt  string      `json:"ordered_at"`
	Items      []OrderItem `json:"items"`
	TotalPrice Money       `json:"total_price"`
}

type OrderItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    Money  `json:"price"`
	Quantity int    `json:"quantity"`
}

// OrderLine is the deduplicated submission shape: one entry per item id.
type OrderLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// TableSnapshot is one table's outstanding-balance row from the staff fetch.
type TableSnapshot struct {
	ID          string `json:"id"`
	TableNumber int    `json:"table_number"`
	AmountDue   Money  `json:"amount_due"`
}

type MenuItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CategoryID  string `json:"category_id"`
	Category    string `json:"category"`
	Price       Money  `json:"price"`
	Available   bool   `json:"available"`
	Description string `json:"description"`
}

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
