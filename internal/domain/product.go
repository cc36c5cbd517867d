package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Type is one of the labels of the product_type
// enum defined by the schema.
type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Type  string          `json:"type"`
	Image string          `json:"image"`
}

// Validate checks the fields required to create a product. Image is
// optional on create; updates additionally require it (see ValidateUpdate).
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.TrimSpace(p.Type)

	if p.Name == "" || p.Type == "" {
		return Validation("name, price and type are required")
	}
	if !p.Price.IsPositive() {
		return Validation("price must be a positive number")
	}
	return nil
}

func (p *Product) ValidateUpdate() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Image) == "" {
		return Validation("name, price, type and image are required")
	}
	return nil
}

// Table is a physical table in the dining room.
type Table struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func NewTable(name string) (*Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validation("table name is required")
	}
	return &Table{Name: name}, nil
}
