package parts

import "time"

// Part is a semiconductor fab part or material tracked in the inventory system.
type Part struct {
	PartID       string            `json:"part_id" yaml:"part_id"`
	Name         string            `json:"name" yaml:"name"`
	Category     string            `json:"category" yaml:"category"`
	Spec         map[string]string `json:"spec" yaml:"spec"`
	CurrentStock int               `json:"current_stock" yaml:"current_stock"`
	MinimumStock int               `json:"minimum_stock" yaml:"minimum_stock"`
	UnitPrice    float64           `json:"unit_price" yaml:"unit_price"`
	Supplier     string            `json:"supplier" yaml:"supplier"`
	Location     string            `json:"location" yaml:"location"`
	CreatedAt    time.Time         `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time         `json:"updated_at" yaml:"-"`
}

// BelowMinimum reports whether the current stock is under the minimum level.
func (p *Part) BelowMinimum() bool {
	return p.CurrentStock < p.MinimumStock
}

// ListFilter narrows List results.
type ListFilter struct {
	Category     string
	Supplier     string
	BelowMinimum bool
	Limit        int
	Offset       int
}
