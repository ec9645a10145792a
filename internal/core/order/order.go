// Package order models the read-only purchase snapshot produced by the order
// lookup collaborator.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/resolvd/internal/core/money"
)

// LineItem is one line of an order.
type LineItem struct {
	ID           string       `json:"id" yaml:"id"`
	Title        string       `json:"title" yaml:"title"`
	SKU          string       `json:"sku" yaml:"sku"`
	Quantity     int          `json:"quantity" yaml:"quantity"`
	UnitPrice    money.Amount `json:"unitPrice" yaml:"unit_price"`
	IsSelectable bool         `json:"isSelectable" yaml:"selectable"`
}

// Total is UnitPrice × Quantity.
func (li LineItem) Total() money.Amount {
	return li.UnitPrice.Times(li.Quantity)
}

// Snapshot is a purchase as seen at lookup time. It is never mutated afterwards.
type Snapshot struct {
	ID          string       `json:"id" yaml:"id"`
	OrderNumber string       `json:"orderNumber" yaml:"order_number"`
	TotalPrice  money.Amount `json:"totalPrice" yaml:"total_price"`
	Items       []LineItem   `json:"items" yaml:"items"`
	CreatedAt   time.Time    `json:"createdAt" yaml:"created_at"`
}

// ItemsTotal sums UnitPrice × Quantity over items. It is recomputed on every
// call so the result always reflects the live selection.
func ItemsTotal(items []LineItem) money.Amount {
	var total money.Amount
	for _, it := range items {
		total = total.Add(it.Total())
	}
	return total
}

// ItemIDs returns the ids of items in order.
func ItemIDs(items []LineItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// PickItems returns the snapshot's items whose ids are listed, in snapshot order.
// Every id must exist on the order and be selectable.
func PickItems(s Snapshot, ids []string) ([]LineItem, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no items selected")
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var picked []LineItem
	for _, it := range s.Items {
		if !wanted[it.ID] {
			continue
		}
		if !it.IsSelectable {
			return nil, fmt.Errorf("item %s (%s) cannot be selected", it.ID, it.Title)
		}
		picked = append(picked, it)
		delete(wanted, it.ID)
	}
	for id := range wanted {
		return nil, fmt.Errorf("item %s is not on order %s", id, s.OrderNumber)
	}
	return picked, nil
}

// Find returns the snapshot with the given id or order number. A leading
// '#' on the order number is ignored.
func Find(candidates []Snapshot, idOrNumber string) (Snapshot, bool) {
	if idOrNumber == "" {
		return Snapshot{}, false
	}
	number := strings.TrimPrefix(idOrNumber, "#")
	for _, c := range candidates {
		if c.ID == idOrNumber || strings.TrimPrefix(c.OrderNumber, "#") == number {
			return c, true
		}
	}
	return Snapshot{}, false
}

// SelectableItems returns the items a customer may raise an issue about.
func SelectableItems(s Snapshot) []LineItem {
	var out []LineItem
	for _, it := range s.Items {
		if it.IsSelectable {
			out = append(out, it)
		}
	}
	return out
}

// DaysSince returns the number of whole days between the order date and now.
func DaysSince(s Snapshot, now time.Time) int {
	if now.Before(s.CreatedAt) {
		return 0
	}
	return int(now.Sub(s.CreatedAt) / (24 * time.Hour))
}

// WithinGuarantee reports whether the order is still inside the guarantee window.
func WithinGuarantee(s Snapshot, now time.Time, window time.Duration) bool {
	return DaysSince(s, now) <= int(window/(24*time.Hour))
}
