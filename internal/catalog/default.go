package catalog

import (
	"github.com/fjod/go_ussd/internal/domain"
	"github.com/shopspring/decimal"
)

func ghs(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount)
}

func item(name string, price int64) domain.MenuItem {
	return domain.MenuItem{Name: name, Price: ghs(price)}
}

func flat(fee int64) FeeRule {
	return FeeRule{Kind: FeeFlat, Flat: ghs(fee)}
}

// DefaultSettings are the built-in fees, custom order types, cylinders and
// discount codes.
func DefaultSettings() Settings {
	return Settings{
		DefaultFee:    ghs(15),
		CustomFee:     ghs(30),
		TopUpFee:      ghs(30),
		ServiceCharge: ghs(4),
		CustomOrderTypes: []string{
			"Grocery (Ransbet)",
			"Pickup",
			"Custom food order",
			"Other",
		},
		Cylinders: []domain.CylinderSize{
			{Label: "3kg", Minimum: ghs(20)},
			{Label: "6kg", Minimum: ghs(30)},
			{Label: "12.5kg", Minimum: ghs(50)},
		},
		Discounts: map[string]decimal.Decimal{
			"FLAP10": ghs(7),
			"VOU":    ghs(5),
			"GH":     ghs(12),
		},
	}
}

// DefaultVendors is the built-in vendor menu.
func DefaultVendors() []Vendor {
	return []Vendor{
		{
			Name:  "Chef One",
			Items: []domain.MenuItem{item("Jollof Rice", 35), item("Banku & Tilapia", 40), item("Indomie", 35), item("FriedRice & Chicken", 35)},
			Fee:   flat(15),
		},
		{
			Name:  "Eno's Kitchen",
			Items: []domain.MenuItem{item("Jollof Rice", 35), item("Banku & Tilapia", 40), item("FriedRice & Chicken", 35)},
			Fee:   flat(15),
		},
		{
			Name:  "Tovet",
			Items: []domain.MenuItem{item("Jollof & Chicken", 35), item("FriedRice & Chicken", 35), item("Banku", 40)},
			Fee:   flat(15),
		},
		{
			Name:  "Dine Inn - KT",
			Items: []domain.MenuItem{item("FriedRice & Chicken", 35), item("Jollof & Chicken", 35), item("Jollof & Chicken", 35)},
			Fee:   flat(15),
		},
		{
			Name:  "Founn",
			Items: []domain.MenuItem{item("Banku & Tilapia", 35), item("FriedRice & Chicken", 35), item("Jollof & Chicken", 35)},
			Fee:   flat(15),
		},
		{
			Name:  "KFC - Tarkwa",
			Items: []domain.MenuItem{item("15 Pieces Chicken", 427), item("Streetwise 2-Chips", 88), item("Streetwise 3-Rice", 112)},
			Fee: FeeRule{
				Kind: FeeArea,
				Areas: []AreaFee{
					{Name: "tarkwa central", Fee: ghs(30)},
					{Name: "tna", Fee: ghs(30)},
					{Name: "university", Fee: ghs(30)},
					{Name: "aboso", Fee: ghs(30)},
				},
				Other: ghs(30),
			},
		},
		{
			Name:  "Pizzaman",
			Items: []domain.MenuItem{item("Triple b-double Pizza", 290), item("Dukeman-small Pizza", 150), item("Chibella-double Pizza", 290)},
			Fee:   flat(15),
		},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultVendors(), DefaultSettings())
	if err != nil {
		panic(err)
	}
	return c
}
