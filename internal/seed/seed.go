// Package seed provides the default categories and example transactions
// written into an empty store.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"cashorganizer/internal/core"
)

//go:embed seed.yaml
var defaultYAML []byte

// Data is the seed content.
type Data struct {
	Categories []core.Category
	Examples   []Example
}

// Example is a transaction template. Its date is filled in when seeding.
type Example struct {
	Type     core.TransactionType
	Category string
	Amount   decimal.Decimal
	Note     string
}

type file struct {
	Categories struct {
		Income  []string `yaml:"income"`
		Expense []string `yaml:"expense"`
	} `yaml:"categories"`
	Examples []struct {
		Type     string `yaml:"type"`
		Category string `yaml:"category"`
		Amount   string `yaml:"amount"`
		Note     string `yaml:"note"`
	} `yaml:"examples"`
}

// Default returns the embedded seed.
func Default() Data {
	d, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded seed is invalid: %v", err))
	}
	return d
}

// Load reads a seed file. An empty path returns Default.
func Load(path string) (Data, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read seed file: %w", err)
	}
	d, err := Parse(raw)
	if err != nil {
		return Data{}, fmt.Errorf("seed file %s: %w", path, err)
	}
	return d, nil
}

// Parse decodes and validates seed YAML.
func Parse(raw []byte) (Data, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Data{}, fmt.Errorf("parse yaml: %w", err)
	}

	var d Data
	for _, name := range f.Categories.Income {
		d.Categories = append(d.Categories, core.Category{Name: name, Type: core.Income})
	}
	for _, name := range f.Categories.Expense {
		d.Categories = append(d.Categories, core.Category{Name: name, Type: core.Expense})
	}
	for _, c := range d.Categories {
		if err := c.Validate(); err != nil {
			return Data{}, fmt.Errorf("category %q: %w", c.Name, err)
		}
	}

	for i, e := range f.Examples {
		tt, err := core.ParseTransactionType(e.Type)
		if err != nil {
			return Data{}, fmt.Errorf("example %d: %w", i, err)
		}
		amount, err := core.ParseAmount(e.Amount)
		if err != nil {
			return Data{}, fmt.Errorf("example %d: %w", i, err)
		}
		if e.Category == "" {
			return Data{}, fmt.Errorf("example %d: %w", i, core.ErrEmptyCategory)
		}
		d.Examples = append(d.Examples, Example{
			Type:     tt,
			Category: e.Category,
			Amount:   amount,
			Note:     e.Note,
		})
	}
	return d, nil
}

// Transaction turns the example into a transaction dated at now.
func (e Example) Transaction(now time.Time) core.Transaction {
	return core.Transaction{
		Amount:    e.Amount,
		Type:      e.Type,
		Category:  e.Category,
		Date:      now,
		Note:      e.Note,
		CreatedAt: now,
	}
}
