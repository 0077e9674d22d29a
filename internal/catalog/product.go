package catalog

import (
	"encoding/json"
	"net/url"
)

// Product is one catalog entry. Index is the human-assigned serial number
// and the key the UI works with; ID is the opaque identifier assigned by
// the remote store and is empty until the product has been persisted.
type Product struct {
	ID            string
	Index         string
	Name          string
	Category      string
	IsActive      bool
	InventoryRate float64
	BillingRate   float64
	Quantity      int
}

// Key identifies a product on the remote store.
type Key struct {
	ID    string
	Index string
}

// Key returns the remote identity of the product.
func (p Product) Key() Key {
	return Key{ID: p.ID, Index: p.Index}
}

// pathSegment picks the identifier used in request paths. The opaque id
// wins when present; otherwise the human index is sent, URL-escaped.
func (k Key) pathSegment() string {
	if k.ID != "" {
		return url.PathEscape(k.ID)
	}

	return url.PathEscape(k.Index)
}

// flexString accepts a JSON string or number. Servers disagree on whether
// ids are strings, and anything else is treated as absent.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}

	return nil
}

// wireProduct is the shape received from the remote API. Field names vary
// between server generations (id/_id, index/serialNumber, price/billingRate,
// stock/quantity), so every variant is accepted.
type wireProduct struct {
	ID            flexString `json:"id"`
	MongoID       flexString `json:"_id"`
	Index         string     `json:"index"`
	SerialNumber  string     `json:"serialNumber"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	IsActive      *bool      `json:"isActive"`
	Price         *float64   `json:"price"`
	BillingRate   *float64   `json:"billingRate"`
	InventoryRate *float64   `json:"inventoryRate"`
	Stock         *int       `json:"stock"`
	Quantity      *int       `json:"quantity"`
}

func (w wireProduct) toProduct() Product {
	p := Product{
		ID:       string(w.ID),
		Index:    w.Index,
		Name:     w.Name,
		Category: w.Category,
		IsActive: true,
	}

	if p.ID == "" {
		p.ID = string(w.MongoID)
	}

	if p.Index == "" {
		p.Index = w.SerialNumber
	}

	if p.Category == "" {
		p.Category = "General"
	}

	if w.IsActive != nil {
		p.IsActive = *w.IsActive
	}

	if w.InventoryRate != nil {
		p.InventoryRate = *w.InventoryRate
	}

	switch {
	case w.BillingRate != nil:
		p.BillingRate = *w.BillingRate
	case w.Price != nil:
		p.BillingRate = *w.Price
	}

	switch {
	case w.Stock != nil:
		p.Quantity = *w.Stock
	case w.Quantity != nil:
		p.Quantity = *w.Quantity
	}

	return p
}

// Draft carries the fields sent to the remote store on create and update.
type Draft struct {
	Index         string
	Name          string
	Description   string
	Category      string
	IsActive      bool
	InventoryRate float64
	BillingRate   float64
	Quantity      int
}

// wireDraft is the request body for create/update. Price duplicates the
// billing rate and stock duplicates the quantity for older servers.
type wireDraft struct {
	Index         string  `json:"index,omitempty"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	IsActive      bool    `json:"isActive"`
	InventoryRate float64 `json:"inventoryRate"`
	BillingRate   float64 `json:"billingRate"`
	Price         float64 `json:"price"`
	Stock         int     `json:"stock"`
}

func (d Draft) toWire() wireDraft {
	return wireDraft{
		Index:         d.Index,
		Name:          d.Name,
		Description:   d.Description,
		Category:      d.Category,
		IsActive:      d.IsActive,
		InventoryRate: d.InventoryRate,
		BillingRate:   d.BillingRate,
		Price:         d.BillingRate,
		Stock:         d.Quantity,
	}
}
