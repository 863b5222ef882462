// Package catalog defines the asset categories the ledger tracks: their ID
// prefixes, compliance requirements, and reporting attributes. Defaults are
// compiled in; a YAML file can extend or override them per job.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	dErrors "assetledger/pkg/domain-errors"
)

// Category describes one asset category and the handling rules that apply to
// every asset in it.
type Category struct {
	Code                 string  `yaml:"code"`
	Name                 string  `yaml:"name"`
	Prefix               string  `yaml:"prefix"`
	DataBearing          bool    `yaml:"data_bearing"`
	RequiresLabelRemoval bool    `yaml:"requires_label_removal"`
	ExpectedQuantity     int     `yaml:"expected_quantity"`
	UnitWeightKG         float64 `yaml:"unit_weight_kg"`
}

// Catalog is an immutable lookup of categories by code. Build one at startup
// and share it; it is safe for concurrent reads.
type Catalog struct {
	byCode   map[string]Category
	byPrefix map[string]Category
}

// Defaults returns the built-in category set.
func Defaults() []Category {
	return []Category{
		{Code: "cabinet", Name: "Charging Cabinet", Prefix: "CAB", RequiresLabelRemoval: true, ExpectedQuantity: 85, UnitWeightKG: 42},
		{Code: "tablet_10_new", Name: "10\" Tablet (New/Boxed)", Prefix: "T10N", ExpectedQuantity: 380, UnitWeightKG: 0.7},
		{Code: "tablet_8_new", Name: "8\" Tablet (New/Boxed)", Prefix: "T8N", ExpectedQuantity: 400, UnitWeightKG: 0.5},
		{Code: "tablet_mixed_used", Name: "Mixed 8\"/10\" Tablet (Used Returns)", Prefix: "TMU", DataBearing: true, ExpectedQuantity: 1000, UnitWeightKG: 0.6},
		{Code: "remote_kit", Name: "Handheld Remote Device Kit", Prefix: "REM", ExpectedQuantity: 900, UnitWeightKG: 0.3},
		{Code: "computer_equipment", Name: "Office Computer Equipment", Prefix: "COMP", DataBearing: true, UnitWeightKG: 8},
	}
}

// New builds a catalog from the given categories.
//
// Errors: CodeInvalidInput when a category is missing a code or prefix, or
// when two categories share a code or prefix (prefix collisions would make
// allocated identifiers ambiguous).
func New(categories []Category) (*Catalog, error) {
	c := &Catalog{
		byCode:   make(map[string]Category, len(categories)),
		byPrefix: make(map[string]Category, len(categories)),
	}
	for _, cat := range categories {
		if cat.Code == "" || cat.Prefix == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "category requires code and prefix")
		}
		if _, ok := c.byCode[cat.Code]; ok {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "duplicate category code %q", cat.Code)
		}
		if _, ok := c.byPrefix[cat.Prefix]; ok {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "duplicate category prefix %q", cat.Prefix)
		}
		c.byCode[cat.Code] = cat
		c.byPrefix[cat.Prefix] = cat
	}
	return c, nil
}

// Load reads a YAML category file and merges it over the defaults. Entries
// with a known code replace the default; new codes are appended. An empty
// path yields the defaults unchanged.
func Load(path string) (*Catalog, error) {
	categories := Defaults()
	if path == "" {
		return New(categories)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category catalog: %w", err)
	}
	var file struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse category catalog: %w", err)
	}

	index := make(map[string]int, len(categories))
	for i, cat := range categories {
		index[cat.Code] = i
	}
	for _, override := range file.Categories {
		if i, ok := index[override.Code]; ok {
			categories[i] = override
			continue
		}
		categories = append(categories, override)
	}
	return New(categories)
}

// Get returns the category for a code.
//
// Errors: CodeInvalidInput for unknown codes; category membership is the
// catalog's responsibility, not the domain type's.
func (c *Catalog) Get(code string) (Category, error) {
	cat, ok := c.byCode[code]
	if !ok {
		return Category{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown category %q", code)
	}
	return cat, nil
}

// ByPrefix resolves a category from an asset identifier prefix.
func (c *Catalog) ByPrefix(prefix string) (Category, bool) {
	cat, ok := c.byPrefix[prefix]
	return cat, ok
}

// Codes returns all category codes in sorted order, for stable reports.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.byCode))
	for code := range c.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
