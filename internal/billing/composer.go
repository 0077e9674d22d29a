package billing

import (
	"slices"
	"strings"

	"github.com/calepa/shoptill/internal/catalog"
)

// CatalogView is the read side of the product catalog the composer
// resolves against. *catalog.Reconciler implements it.
type CatalogView interface {
	FindByIndex(index string) (catalog.Product, bool)
	FindByName(name string) (catalog.Product, bool)
}

// DefaultQuantity is pre-filled when a product resolves through the
// autocomplete contract.
const DefaultQuantity = 1

// Resolution is a successful product lookup with both identifying fields
// filled in, ready to be pushed back into the form.
type Resolution struct {
	Product  catalog.Product
	Quantity int
}

// LineParams carries the validated-at-the-edge form values for one line.
type LineParams struct {
	CustomerName string
	MobileNumber string
	Product      catalog.Product
	Quantity     int
}

// Composer builds invoice line items against the catalog. Lines are keyed
// by product index within the bill: one line per product, and edits target
// the line's key rather than its position, so a reorder between begin-edit
// and submit cannot corrupt the bill.
type Composer struct {
	catalog CatalogView
	lines   []LineItem
	editKey string
}

func NewComposer(view CatalogView) *Composer {
	return &Composer{catalog: view}
}

// Resolve looks up the unique product matching either field exactly,
// case-insensitively. The index field wins when both are given. On a hit
// the caller gets both fields plus a default quantity to auto-fill the
// form; partial input only feeds the suggestion dropdown and never
// resolves.
func (c *Composer) Resolve(byName, byIndex string) (Resolution, bool) {
	if byIndex != "" {
		if p, ok := c.catalog.FindByIndex(byIndex); ok {
			return Resolution{Product: p, Quantity: DefaultQuantity}, true
		}
	}

	if byName != "" {
		if p, ok := c.catalog.FindByName(byName); ok {
			return Resolution{Product: p, Quantity: DefaultQuantity}, true
		}
	}

	return Resolution{}, false
}

// AddLine validates params and appends a new line, or replaces the line
// under edit when BeginEdit armed one. Lines are session-local; validation
// failures never touch the network because there is no network to touch.
func (c *Composer) AddLine(params LineParams) error {
	if strings.TrimSpace(params.CustomerName) == "" {
		return &catalog.ValidationError{Field: "customer name", Reason: "required"}
	}

	if !ValidMobile(params.MobileNumber) {
		return &catalog.ValidationError{Field: "mobile number", Reason: "must be 10 digits starting 6-9"}
	}

	if params.Product.Index == "" {
		return &catalog.ValidationError{Field: "product", Reason: "no matching product"}
	}

	if params.Quantity <= 0 {
		return &catalog.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}

	line := LineItem{
		CustomerName: strings.TrimSpace(params.CustomerName),
		MobileNumber: params.MobileNumber,
		ProductIndex: params.Product.Index,
		ProductName:  params.Product.Name,
		Rate:         params.Product.BillingRate,
		Quantity:     params.Quantity,
	}
	line.Total, _ = lineTotal(line.Rate, line.Quantity).Float64()

	if c.editKey != "" {
		key := c.editKey
		c.editKey = ""

		if i := c.lineIndex(key); i >= 0 {
			c.lines[i] = line
			return nil
		}

		// The edited line vanished (e.g. cleared behind our back); fall
		// through and append.
	} else if c.lineIndex(line.ProductIndex) >= 0 {
		return &catalog.ValidationError{Field: "product", Reason: "already on the bill, edit that line instead"}
	}

	c.lines = append(c.lines, line)

	return nil
}

// BeginEdit loads the line for productIndex back into the caller's form
// and arms the edit key; the next AddLine replaces that line.
func (c *Composer) BeginEdit(productIndex string) (LineItem, bool) {
	i := c.lineIndex(productIndex)
	if i < 0 {
		return LineItem{}, false
	}

	c.editKey = c.lines[i].ProductIndex

	return c.lines[i], true
}

// CancelEdit disarms a pending edit.
func (c *Composer) CancelEdit() {
	c.editKey = ""
}

// Editing returns the product index of the line under edit, or "".
func (c *Composer) Editing() string {
	return c.editKey
}

// RemoveLine drops the line for productIndex, if present.
func (c *Composer) RemoveLine(productIndex string) {
	if i := c.lineIndex(productIndex); i >= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
	}

	if strings.EqualFold(c.editKey, productIndex) {
		c.editKey = ""
	}
}

// Lines returns a copy of the current bill.
func (c *Composer) Lines() []LineItem {
	return slices.Clone(c.lines)
}

// SetLines replaces the bill wholesale, used when restoring a saved draft.
func (c *Composer) SetLines(lines []LineItem) {
	c.lines = slices.Clone(lines)
	c.editKey = ""
}

// Totals computes the invoice arithmetic for the current bill.
func (c *Composer) Totals(discountPercent float64) Totals {
	return ComputeTotals(c.lines, discountPercent)
}

// Clear empties the bill, used by the post-print clear action.
func (c *Composer) Clear() {
	c.lines = nil
	c.editKey = ""
}

func (c *Composer) lineIndex(productIndex string) int {
	return slices.IndexFunc(c.lines, func(l LineItem) bool {
		return strings.EqualFold(l.ProductIndex, productIndex)
	})
}
