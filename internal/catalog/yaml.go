package catalog

import (
	"fmt"
	"os"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type yamlCatalog struct {
	Settings yamlSettings `yaml:"settings"`
	Vendors  []yamlVendor `yaml:"vendors"`
}

type yamlSettings struct {
	DefaultFee       *float64           `yaml:"default_fee"`
	CustomFee        *float64           `yaml:"custom_fee"`
	TopUpFee         *float64           `yaml:"topup_fee"`
	ServiceCharge    *float64           `yaml:"service_charge"`
	CustomOrderTypes []string           `yaml:"custom_order_types"`
	Cylinders        []yamlCylinder     `yaml:"cylinders"`
	Discounts        map[string]float64 `yaml:"discounts"`
}

type yamlCylinder struct {
	Label   string  `yaml:"label"`
	Minimum float64 `yaml:"minimum"`
}

type yamlVendor struct {
	Name  string     `yaml:"name"`
	Items []yamlItem `yaml:"items"`
	Fee   yamlFee    `yaml:"fee"`
}

type yamlItem struct {
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

type yamlFee struct {
	Kind  string     `yaml:"kind"`
	Flat  float64    `yaml:"flat"`
	Areas []yamlArea `yaml:"areas"`
	Other float64    `yaml:"other"`
	Base  float64    `yaml:"base"`
	Step  float64    `yaml:"step"`
}

type yamlArea struct {
	Name string  `yaml:"name"`
	Fee  float64 `yaml:"fee"`
}

// LoadYAML reads a catalog file. Settings omitted from the file keep their
// built-in values.
func LoadYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) (*Catalog, error) {
	var raw yamlCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	settings := DefaultSettings()
	overrideMoney(&settings.DefaultFee, raw.Settings.DefaultFee)
	overrideMoney(&settings.CustomFee, raw.Settings.CustomFee)
	overrideMoney(&settings.TopUpFee, raw.Settings.TopUpFee)
	overrideMoney(&settings.ServiceCharge, raw.Settings.ServiceCharge)
	if len(raw.Settings.CustomOrderTypes) > 0 {
		settings.CustomOrderTypes = raw.Settings.CustomOrderTypes
	}
	if len(raw.Settings.Cylinders) > 0 {
		settings.Cylinders = make([]domain.CylinderSize, len(raw.Settings.Cylinders))
		for i, c := range raw.Settings.Cylinders {
			settings.Cylinders[i] = domain.CylinderSize{Label: c.Label, Minimum: decimal.NewFromFloat(c.Minimum)}
		}
	}
	if raw.Settings.Discounts != nil {
		settings.Discounts = make(map[string]decimal.Decimal, len(raw.Settings.Discounts))
		for code, amount := range raw.Settings.Discounts {
			settings.Discounts[code] = decimal.NewFromFloat(amount)
		}
	}

	vendors := make([]Vendor, len(raw.Vendors))
	for i, v := range raw.Vendors {
		items := make([]domain.MenuItem, len(v.Items))
		for j, it := range v.Items {
			items[j] = domain.MenuItem{Name: it.Name, Price: decimal.NewFromFloat(it.Price)}
		}
		vendors[i] = Vendor{Name: v.Name, Items: items, Fee: v.Fee.toRule()}
	}

	return New(vendors, settings)
}

func (f yamlFee) toRule() FeeRule {
	kind := FeeKind(f.Kind)
	if kind == "" {
		kind = FeeFlat
	}
	rule := FeeRule{
		Kind:  kind,
		Flat:  decimal.NewFromFloat(f.Flat),
		Other: decimal.NewFromFloat(f.Other),
		Base:  decimal.NewFromFloat(f.Base),
		Step:  decimal.NewFromFloat(f.Step),
	}
	for _, a := range f.Areas {
		rule.Areas = append(rule.Areas, AreaFee{Name: a.Name, Fee: decimal.NewFromFloat(a.Fee)})
	}
	return rule
}

func overrideMoney(dst *decimal.Decimal, v *float64) {
	if v != nil {
		*dst = decimal.NewFromFloat(*v)
	}
}
