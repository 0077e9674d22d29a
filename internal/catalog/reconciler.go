package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

//go:generate mockgen -source=reconciler.go -destination=remote_mock.go -package=catalog

// RemoteCatalog is the remote store the reconciler mirrors. Client
// implements it against the HTTP API.
type RemoteCatalog interface {
	List(ctx context.Context) []Product
	Search(ctx context.Context, query string) []Product
	Create(ctx context.Context, draft Draft) (Product, error)
	Update(ctx context.Context, key Key, draft Draft) (Product, error)
	Delete(ctx context.Context, key Key) error
}

var (
	// ErrDuplicateIndex rejects an add or update whose index collides with
	// another live product (case-insensitive).
	ErrDuplicateIndex = errors.New("a product with this index already exists")

	// ErrNotFound means no live product carries the given index.
	ErrNotFound = errors.New("product not found")
)

// ValidationError is a local form-validation failure. It never reaches the
// network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// EntryDraft holds the raw inventory form buffers. Rates and quantity stay
// strings until validation parses them.
type EntryDraft struct {
	Index         string
	Name          string
	Category      string
	InventoryRate string
	BillingRate   string
	Quantity      string
}

// Reconciler keeps an in-memory mirror of the remote catalog consistent
// with user edits. Every mutation is local-state-follows-server: the
// mirror changes if and only if the remote call succeeded.
type Reconciler struct {
	mu       sync.RWMutex
	remote   RemoteCatalog
	products []Product
	collator *collate.Collator
}

func NewReconciler(remote RemoteCatalog) *Reconciler {
	return &Reconciler{
		remote:   remote,
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
}

// Load replaces the mirror with the remote catalog, discarding records
// missing an index or a name. Malformed remote data shrinks the catalog
// instead of breaking the session.
func (r *Reconciler) Load(ctx context.Context) {
	remote := r.remote.List(ctx)

	kept := make([]Product, 0, len(remote))
	for _, p := range remote {
		if p.Index == "" || p.Name == "" {
			continue
		}

		kept = append(kept, p)
	}

	r.mu.Lock()
	r.products = kept
	r.mu.Unlock()
}

// IsDuplicateIndex reports whether candidate collides with a live product,
// case-insensitively. The product whose index equals excluding (the entry
// under edit) is ignored; pass "" when adding.
func (r *Reconciler) IsDuplicateIndex(candidate, excluding string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if excluding != "" && strings.EqualFold(p.Index, excluding) {
			continue
		}

		if strings.EqualFold(strings.TrimSpace(p.Index), candidate) {
			return true
		}
	}

	return false
}

// Add validates the draft locally, creates it remotely, and prepends the
// new product to the mirror. A failed create leaves the mirror untouched.
func (r *Reconciler) Add(ctx context.Context, draft EntryDraft) error {
	p, err := parseEntry(draft)
	if err != nil {
		return err
	}

	if r.IsDuplicateIndex(p.Index, "") {
		return ErrDuplicateIndex
	}

	created, err := r.remote.Create(ctx, toRemoteDraft(p))
	if err != nil {
		return err
	}

	if created.ID != "" {
		p.ID = created.ID
	}

	r.mu.Lock()
	r.products = append([]Product{p}, r.products...)
	r.mu.Unlock()

	return nil
}

// Update applies the draft to the product currently carrying targetIndex.
// A resulting quantity of exactly 0 is reinterpreted as a delete.
func (r *Reconciler) Update(ctx context.Context, targetIndex string, draft EntryDraft) error {
	p, err := parseEntry(draft)
	if err != nil {
		return err
	}

	if r.IsDuplicateIndex(p.Index, targetIndex) {
		return ErrDuplicateIndex
	}

	r.mu.RLock()
	i := r.indexOf(targetIndex)

	var existing Product
	if i >= 0 {
		existing = r.products[i]
	}
	r.mu.RUnlock()

	if i < 0 {
		return ErrNotFound
	}

	if p.Quantity == 0 {
		if err := r.remote.Delete(ctx, existing.Key()); err != nil {
			return err
		}

		r.removeLocal(targetIndex)

		return nil
	}

	p.ID = existing.ID

	if _, err := r.remote.Update(ctx, existing.Key(), toRemoteDraft(p)); err != nil {
		return err
	}

	r.mu.Lock()
	if i := r.indexOf(targetIndex); i >= 0 {
		r.products[i] = p
	}
	r.mu.Unlock()

	return nil
}

// Remove deletes the product carrying targetIndex. Callers must have
// confirmed the action with the user before calling.
func (r *Reconciler) Remove(ctx context.Context, targetIndex string) error {
	r.mu.RLock()
	i := r.indexOf(targetIndex)

	var existing Product
	if i >= 0 {
		existing = r.products[i]
	}
	r.mu.RUnlock()

	if i < 0 {
		return ErrNotFound
	}

	if err := r.remote.Delete(ctx, existing.Key()); err != nil {
		return err
	}

	r.removeLocal(targetIndex)

	return nil
}

// SortedView returns all products ordered by name ascending,
// case-insensitively. It is a projection and never mutates the mirror.
func (r *Reconciler) SortedView() []Product {
	r.mu.RLock()
	view := slices.Clone(r.products)
	r.mu.RUnlock()

	slices.SortStableFunc(view, func(a, b Product) int {
		return r.collator.CompareString(a.Name, b.Name)
	})

	return view
}

// FindByIndex returns the product whose index matches exactly,
// case-insensitively.
func (r *Reconciler) FindByIndex(index string) (Product, bool) {
	return r.findExact(index, func(p Product) string { return p.Index })
}

// FindByName returns the product whose name matches exactly,
// case-insensitively.
func (r *Reconciler) FindByName(name string) (Product, bool) {
	return r.findExact(name, func(p Product) string { return p.Name })
}

// SuggestIndexes returns the indexes containing query, sorted, for the
// autocomplete dropdown. An empty query suggests nothing.
func (r *Reconciler) SuggestIndexes(query string) []string {
	return r.suggest(query, func(p Product) string { return p.Index })
}

// SuggestNames returns the product names containing query, sorted.
func (r *Reconciler) SuggestNames(query string) []string {
	return r.suggest(query, func(p Product) string { return p.Name })
}

func (r *Reconciler) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.products)
}

// indexOf requires r.mu held.
func (r *Reconciler) indexOf(index string) int {
	return slices.IndexFunc(r.products, func(p Product) bool {
		return strings.EqualFold(p.Index, index)
	})
}

func (r *Reconciler) removeLocal(index string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(index); i >= 0 {
		r.products = slices.Delete(r.products, i, i+1)
	}
}

func (r *Reconciler) findExact(value string, field func(Product) string) (Product, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Product{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if strings.EqualFold(field(p), value) {
			return p, true
		}
	}

	return Product{}, false
}

func (r *Reconciler) suggest(query string, field func(Product) string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	r.mu.RLock()

	var matches []string

	for _, p := range r.products {
		if strings.Contains(strings.ToLower(field(p)), query) {
			matches = append(matches, field(p))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matches, func(a, b string) int {
		return r.collator.CompareString(a, b)
	})

	return matches
}

// parseEntry validates the form buffers and builds the product they
// describe. An empty quantity defaults to 10, matching the form's
// placeholder behaviour.
func parseEntry(draft EntryDraft) (Product, error) {
	index := strings.TrimSpace(draft.Index)
	name := strings.TrimSpace(draft.Name)

	if index == "" {
		return Product{}, &ValidationError{Field: "index", Reason: "required"}
	}

	if name == "" {
		return Product{}, &ValidationError{Field: "name", Reason: "required"}
	}

	if strings.TrimSpace(draft.InventoryRate) == "" {
		return Product{}, &ValidationError{Field: "inventory rate", Reason: "required"}
	}

	inventoryRate, err := strconv.ParseFloat(strings.TrimSpace(draft.InventoryRate), 64)
	if err != nil {
		return Product{}, &ValidationError{Field: "inventory rate", Reason: "must be a number"}
	}

	billingRate, err := strconv.ParseFloat(strings.TrimSpace(draft.BillingRate), 64)
	if err != nil {
		return Product{}, &ValidationError{Field: "billing rate", Reason: "must be a number"}
	}

	quantityText := strings.TrimSpace(draft.Quantity)
	if quantityText == "" {
		quantityText = "10"
	}

	quantity, err := strconv.Atoi(quantityText)
	if err != nil || quantity < 0 {
		return Product{}, &ValidationError{Field: "quantity", Reason: "must be a non-negative integer"}
	}

	category := strings.TrimSpace(draft.Category)
	if category == "" {
		category = "General"
	}

	return Product{
		Index:         index,
		Name:          name,
		Category:      category,
		IsActive:      true,
		InventoryRate: inventoryRate,
		BillingRate:   billingRate,
		Quantity:      quantity,
	}, nil
}

func toRemoteDraft(p Product) Draft {
	return Draft{
		Index:         p.Index,
		Name:          p.Name,
		Category:      p.Category,
		IsActive:      p.IsActive,
		InventoryRate: p.InventoryRate,
		BillingRate:   p.BillingRate,
		Quantity:      p.Quantity,
	}
}
