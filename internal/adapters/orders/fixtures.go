// Package orders implements secondary.OrderLookup against a YAML fixture
// catalogue or the external order system's HTTP API.
package orders

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/money"
	"github.com/example/resolvd/internal/core/order"
	"github.com/example/resolvd/internal/ports/secondary"
)

//go:embed demo_orders.yaml
var demoCatalogue []byte

// Catalogue is the fixture file format.
type Catalogue struct {
	Customers []FixtureCustomer `yaml:"customers"`
}

// FixtureCustomer lists one customer's orders.
type FixtureCustomer struct {
	Email  string         `yaml:"email"`
	Phone  string         `yaml:"phone,omitempty"`
	Orders []FixtureOrder `yaml:"orders"`
}

// FixtureOrder is an order snapshot. PlacedDaysAgo, when set, dates the order
// relative to the lookup time so demo data stays inside or outside the
// guarantee window.
type FixtureOrder struct {
	ID            string           `yaml:"id"`
	OrderNumber   string           `yaml:"order_number"`
	TotalPrice    money.Amount     `yaml:"total_price"`
	CreatedAt     time.Time        `yaml:"created_at,omitempty"`
	PlacedDaysAgo int              `yaml:"placed_days_ago,omitempty"`
	Items         []order.LineItem `yaml:"items"`
}

// FixtureLookup serves orders from an in-memory catalogue.
type FixtureLookup struct {
	catalogue Catalogue
	nowFn     func() time.Time
}

// NewFixtureLookup parses a YAML catalogue.
func NewFixtureLookup(data []byte) (*FixtureLookup, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse order fixtures: %w", err)
	}
	for i, cust := range c.Customers {
		if !customer.IsEmail(customer.NormalizeEmail(cust.Email)) {
			return nil, fmt.Errorf("order fixtures: customer %d has invalid email %q", i, cust.Email)
		}
		c.Customers[i].Email = customer.NormalizeEmail(cust.Email)
		c.Customers[i].Phone = customer.NormalizePhone(cust.Phone)
	}
	return &FixtureLookup{catalogue: c, nowFn: time.Now}, nil
}

// LoadFixtureLookup reads the catalogue at path. An empty path loads the
// built-in demo catalogue.
func LoadFixtureLookup(path string) (*FixtureLookup, error) {
	if path == "" {
		return NewFixtureLookup(demoCatalogue)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read order fixtures: %w", err)
	}
	return NewFixtureLookup(data)
}

// Lookup returns the orders of the customer matching the identity's email,
// or its phone when no email matches.
func (f *FixtureLookup) Lookup(ctx context.Context, identity customer.Identity) ([]order.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	email := customer.NormalizeEmail(identity.Email)
	phone := customer.NormalizePhone(identity.Phone)

	var match *FixtureCustomer
	for i := range f.catalogue.Customers {
		c := &f.catalogue.Customers[i]
		if email != "" && c.Email == email {
			match = c
			break
		}
		if match == nil && phone != "" && c.Phone == phone {
			match = c
		}
	}
	if match == nil {
		return nil, nil
	}

	now := f.nowFn()
	out := make([]order.Snapshot, 0, len(match.Orders))
	for _, o := range match.Orders {
		out = append(out, o.snapshot(now))
	}
	return out, nil
}

func (o FixtureOrder) snapshot(now time.Time) order.Snapshot {
	created := o.CreatedAt
	if o.PlacedDaysAgo > 0 || created.IsZero() {
		created = now.AddDate(0, 0, -o.PlacedDaysAgo)
	}
	items := make([]order.LineItem, len(o.Items))
	copy(items, o.Items)
	total := o.TotalPrice
	if total.IsZero() {
		total = order.ItemsTotal(items)
	}
	return order.Snapshot{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		TotalPrice:  total,
		Items:       items,
		CreatedAt:   created.UTC(),
	}
}

var _ secondary.OrderLookup = (*FixtureLookup)(nil)
