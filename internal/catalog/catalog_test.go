package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestDefault_MenuOrder(t *testing.T) {
	c := Default()

	require.Len(t, c.Vendors(), 7)
	v, ok := c.VendorAt(1)
	require.True(t, ok)
	assert.Equal(t, "Chef One", v.Name)

	item, ok := c.ItemAt("Chef One", 1)
	require.True(t, ok)
	assert.Equal(t, "Jollof Rice", item.Name)
	assert.True(t, item.Price.Equal(dec("35")))

	_, ok = c.VendorAt(0)
	assert.False(t, ok)
	_, ok = c.VendorAt(8)
	assert.False(t, ok)
	_, ok = c.ItemAt("Chef One", 5)
	assert.False(t, ok)
	_, ok = c.ItemAt("Nobody", 1)
	assert.False(t, ok)
}

func TestDefault_RepeatedItemStaysSelectable(t *testing.T) {
	c := Default()

	v, ok := c.Vendor("Dine Inn - KT")
	require.True(t, ok)
	require.Len(t, v.Items, 3)

	item, ok := c.ItemAt("Dine Inn - KT", 3)
	require.True(t, ok)
	assert.Equal(t, "Jollof & Chicken", item.Name)
	assert.True(t, item.Price.Equal(dec("35")))
}

func TestDefault_Settings(t *testing.T) {
	c := Default()

	assert.True(t, c.ServiceCharge().Equal(dec("4")))
	assert.True(t, c.CustomFee().Equal(dec("30")))
	assert.True(t, c.TopUpFee().Equal(dec("30")))
	assert.True(t, c.DefaultFee().Equal(dec("15")))

	typ, ok := c.CustomOrderTypeAt(2)
	require.True(t, ok)
	assert.Equal(t, "Pickup", typ)

	cyl, ok := c.CylinderAt(3)
	require.True(t, ok)
	assert.Equal(t, "12.5kg", cyl.Label)
	assert.True(t, cyl.Minimum.Equal(dec("50")))
}

func TestCatalog_DiscountIsCaseInsensitive(t *testing.T) {
	c := Default()

	amount, ok := c.Discount("flap10")
	require.True(t, ok)
	assert.True(t, amount.Equal(dec("7")))

	amount, ok = c.Discount("  Gh ")
	require.True(t, ok)
	assert.True(t, amount.Equal(dec("12")))

	_, ok = c.Discount("FREE")
	assert.False(t, ok)
}

func TestNew_RejectsInvalidVendors(t *testing.T) {
	item := domain.MenuItem{Name: "Rice", Price: dec("10")}

	tests := []struct {
		name    string
		vendors []Vendor
	}{
		{"no vendors", nil},
		{"unnamed vendor", []Vendor{{Items: []domain.MenuItem{item}, Fee: flat(1)}}},
		{"empty menu", []Vendor{{Name: "A", Fee: flat(1)}}},
		{"negative price", []Vendor{{Name: "A", Items: []domain.MenuItem{{Name: "x", Price: dec("-1")}}, Fee: flat(1)}}},
		{"unknown fee kind", []Vendor{{Name: "A", Items: []domain.MenuItem{item}, Fee: FeeRule{Kind: "weight"}}}},
		{"duplicate vendor", []Vendor{
			{Name: "A", Items: []domain.MenuItem{item}, Fee: flat(1)},
			{Name: "A", Items: []domain.MenuItem{item}, Fee: flat(1)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.vendors, DefaultSettings())
			assert.True(t, errors.Is(err, ErrInvalidCatalog), "got %v", err)
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	vendors := DefaultVendors()
	c, err := New(vendors, DefaultSettings())
	require.NoError(t, err)

	vendors[0].Items[0].Name = "changed"
	item, _ := c.ItemAt("Chef One", 1)
	assert.Equal(t, "Jollof Rice", item.Name)
}

func TestLoadYAML(t *testing.T) {
	c, err := LoadYAML("testdata/catalog.yaml")
	require.NoError(t, err)

	require.Len(t, c.Vendors(), 3)
	assert.True(t, c.DefaultFee().Equal(dec("10")))
	assert.True(t, c.ServiceCharge().Equal(dec("2.5")))
	// omitted settings fall back to the built-in values
	assert.True(t, c.CustomFee().Equal(dec("30")))
	assert.Len(t, c.Cylinders(), 3)

	amount, ok := c.Discount("CAMPUS5")
	require.True(t, ok)
	assert.True(t, amount.Equal(dec("5")))
	_, ok = c.Discount("FLAP10")
	assert.False(t, ok)

	grill, ok := c.Vendor("Campus Grill")
	require.True(t, ok)
	assert.Equal(t, FeeArea, grill.Fee.Kind)
	require.Len(t, grill.Fee.Areas, 2)
	assert.Equal(t, "main gate", grill.Fee.Areas[1].Name)
	assert.True(t, grill.Fee.Other.Equal(dec("20")))

	bulk, _ := c.Vendor("Bulk Bites")
	assert.Equal(t, FeeItemCount, bulk.Fee.Kind)
	assert.True(t, bulk.Fee.Step.Equal(dec("2")))

	item, _ := c.ItemAt("Mama Akos", 2)
	assert.True(t, item.Price.Equal(dec("30.5")))
}

func TestParseYAML_Invalid(t *testing.T) {
	_, err := ParseYAML([]byte("vendors: [oops"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = ParseYAML([]byte("vendors: []"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoadYAML_MissingFile(t *testing.T) {
	_, err := LoadYAML("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestSQLiteRepository_LoadsSeededCatalog(t *testing.T) {
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.RunMigrations("./migrations"))

	c, err := repo.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, c.Vendors(), 7)
	kfc, ok := c.VendorAt(6)
	require.True(t, ok)
	assert.Equal(t, "KFC - Tarkwa", kfc.Name)
	assert.Equal(t, FeeArea, kfc.Fee.Kind)
	assert.Len(t, kfc.Fee.Areas, 4)
	assert.True(t, kfc.Fee.Other.Equal(dec("30")))

	eno, ok := c.VendorAt(2)
	require.True(t, ok)
	assert.Equal(t, "Eno's Kitchen", eno.Name)

	// the seed mirrors the built-in menu item for item
	for _, want := range DefaultVendors() {
		got, ok := c.Vendor(want.Name)
		require.True(t, ok, want.Name)
		require.Len(t, got.Items, len(want.Items), want.Name)
		for i := range want.Items {
			assert.Equal(t, want.Items[i].Name, got.Items[i].Name, want.Name)
			assert.True(t, want.Items[i].Price.Equal(got.Items[i].Price), want.Name)
		}
	}

	amount, ok := c.Discount("vou")
	require.True(t, ok)
	assert.True(t, amount.Equal(dec("5")))
}

func TestSQLiteRepository_CancelledContext(t *testing.T) {
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.RunMigrations("./migrations"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = repo.Load(ctx)
	assert.Error(t, err)
}

func TestLoad_Sources(t *testing.T) {
	ctx := context.Background()

	c, err := Load(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, c.Vendors(), 7)

	c, err = Load(ctx, "testdata/catalog.yaml", "")
	require.NoError(t, err)
	assert.Len(t, c.Vendors(), 3)

	c, err = Load(ctx, "sqlite::memory:", "./migrations")
	require.NoError(t, err)
	assert.Len(t, c.Vendors(), 7)
}
