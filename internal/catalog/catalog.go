package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

type FeeKind string

const (
	FeeFlat      FeeKind = "flat"
	FeeArea      FeeKind = "area"
	FeeItemCount FeeKind = "item_count"
)

// AreaFee is one named delivery area of an area-tiered vendor.
type AreaFee struct {
	Name string
	Fee  decimal.Decimal
}

// FeeRule describes how a vendor charges for delivery.
type FeeRule struct {
	Kind FeeKind
	Flat decimal.Decimal
	// Areas are matched in order; the first substring match wins.
	Areas []AreaFee
	Other decimal.Decimal
	Base  decimal.Decimal
	Step  decimal.Decimal
}

type Vendor struct {
	Name  string
	Items []domain.MenuItem
	Fee   FeeRule
}

// Catalog is the read-only menu and pricing policy. It is never mutated after
// construction and is safe for concurrent use.
type Catalog struct {
	vendors          []Vendor
	byName           map[string]int
	discounts        map[string]decimal.Decimal
	defaultFee       decimal.Decimal
	customFee        decimal.Decimal
	topUpFee         decimal.Decimal
	serviceCharge    decimal.Decimal
	customOrderTypes []string
	cylinders        []domain.CylinderSize
}

// Settings are the catalog-wide values that are not attached to a vendor.
type Settings struct {
	DefaultFee       decimal.Decimal
	CustomFee        decimal.Decimal
	TopUpFee         decimal.Decimal
	ServiceCharge    decimal.Decimal
	CustomOrderTypes []string
	Cylinders        []domain.CylinderSize
	Discounts        map[string]decimal.Decimal
}

func New(vendors []Vendor, settings Settings) (*Catalog, error) {
	if len(vendors) == 0 {
		return nil, fmt.Errorf("%w: no vendors", ErrInvalidCatalog)
	}

	c := &Catalog{
		vendors:          make([]Vendor, len(vendors)),
		byName:           make(map[string]int, len(vendors)),
		discounts:        make(map[string]decimal.Decimal, len(settings.Discounts)),
		defaultFee:       settings.DefaultFee,
		customFee:        settings.CustomFee,
		topUpFee:         settings.TopUpFee,
		serviceCharge:    settings.ServiceCharge,
		customOrderTypes: append([]string(nil), settings.CustomOrderTypes...),
		cylinders:        append([]domain.CylinderSize(nil), settings.Cylinders...),
	}

	for i, v := range vendors {
		if err := validateVendor(v); err != nil {
			return nil, err
		}
		if _, dup := c.byName[v.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate vendor %q", ErrInvalidCatalog, v.Name)
		}
		v.Items = append([]domain.MenuItem(nil), v.Items...)
		v.Fee.Areas = append([]AreaFee(nil), v.Fee.Areas...)
		c.vendors[i] = v
		c.byName[v.Name] = i
	}

	for code, amount := range settings.Discounts {
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: negative discount for %q", ErrInvalidCatalog, code)
		}
		c.discounts[strings.ToUpper(strings.TrimSpace(code))] = amount
	}

	return c, nil
}

func validateVendor(v Vendor) error {
	if v.Name == "" {
		return fmt.Errorf("%w: vendor without name", ErrInvalidCatalog)
	}
	if len(v.Items) == 0 {
		return fmt.Errorf("%w: vendor %q has no items", ErrInvalidCatalog, v.Name)
	}
	for _, item := range v.Items {
		if item.Name == "" || item.Price.IsNegative() {
			return fmt.Errorf("%w: vendor %q has an invalid item", ErrInvalidCatalog, v.Name)
		}
	}
	switch v.Fee.Kind {
	case FeeFlat, FeeItemCount:
	case FeeArea:
		for _, a := range v.Fee.Areas {
			if strings.TrimSpace(a.Name) == "" {
				return fmt.Errorf("%w: vendor %q has an unnamed area", ErrInvalidCatalog, v.Name)
			}
		}
	default:
		return fmt.Errorf("%w: vendor %q has unknown fee kind %q", ErrInvalidCatalog, v.Name, v.Fee.Kind)
	}
	return nil
}

// Vendors returns vendors in menu order.
func (c *Catalog) Vendors() []Vendor {
	return c.vendors
}

// VendorAt resolves a 1-based menu index.
func (c *Catalog) VendorAt(index int) (Vendor, bool) {
	if index < 1 || index > len(c.vendors) {
		return Vendor{}, false
	}
	return c.vendors[index-1], true
}

func (c *Catalog) Vendor(name string) (Vendor, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Vendor{}, false
	}
	return c.vendors[i], true
}

// ItemAt resolves a 1-based item index of the named vendor.
func (c *Catalog) ItemAt(vendor string, index int) (domain.MenuItem, bool) {
	v, ok := c.Vendor(vendor)
	if !ok || index < 1 || index > len(v.Items) {
		return domain.MenuItem{}, false
	}
	return v.Items[index-1], true
}

// Discount looks a code up case-insensitively.
func (c *Catalog) Discount(code string) (decimal.Decimal, bool) {
	amount, ok := c.discounts[strings.ToUpper(strings.TrimSpace(code))]
	return amount, ok
}

func (c *Catalog) DefaultFee() decimal.Decimal    { return c.defaultFee }
func (c *Catalog) CustomFee() decimal.Decimal     { return c.customFee }
func (c *Catalog) TopUpFee() decimal.Decimal      { return c.topUpFee }
func (c *Catalog) ServiceCharge() decimal.Decimal { return c.serviceCharge }

func (c *Catalog) CustomOrderTypes() []string {
	return c.customOrderTypes
}

// CustomOrderTypeAt resolves a 1-based index.
func (c *Catalog) CustomOrderTypeAt(index int) (string, bool) {
	if index < 1 || index > len(c.customOrderTypes) {
		return "", false
	}
	return c.customOrderTypes[index-1], true
}

func (c *Catalog) Cylinders() []domain.CylinderSize {
	return c.cylinders
}

// CylinderAt resolves a 1-based index.
func (c *Catalog) CylinderAt(index int) (domain.CylinderSize, bool) {
	if index < 1 || index > len(c.cylinders) {
		return domain.CylinderSize{}, false
	}
	return c.cylinders[index-1], true
}
