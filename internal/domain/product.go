package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places stored for a price.
const PriceScale = 2

// MaxPrice is the first value that no longer fits the decimal(12,2) column.
var MaxPrice = decimal.New(1, 10)

func init() {
	// prices go over the wire as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog item. CategoryName is filled by joined reads only.
type Product struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string          `gorm:"size:255;index;not null" json:"name"`
	CategoryID   int64           `gorm:"index;not null" json:"categoryId"`
	CategoryName string          `gorm:"->;-:migration" json:"categoryName,omitempty"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Description  string          `gorm:"type:text" json:"description"`
	ImageURL     string          `gorm:"size:1024" json:"imageUrl"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

// CheckPrice reports whether price fits the stored column exactly.
func CheckPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return errors.Errorf("price %s is negative", price)
	}
	if price.GreaterThanOrEqual(MaxPrice) {
		return errors.Errorf("price %s must be below %s", price, MaxPrice)
	}
	if !price.Equal(price.Truncate(PriceScale)) {
		return errors.Errorf("price %s has more than %d decimal places", price, PriceScale)
	}
	return nil
}

// ProductUpdate carries a partial update; nil fields keep their stored value.
type ProductUpdate struct {
	Name        *string
	CategoryID  *int64
	Price       *decimal.Decimal
	Description *string
	ImageURL    *string
}

// Apply merges the present fields onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.CategoryID != nil {
		p.CategoryID = *u.CategoryID
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
}

// ProductQuery describes one page of the product listing.
type ProductQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Search    string
	Category  string
}

func (q ProductQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

// ReportRow is one line of the exported catalog report.
type ReportRow struct {
	ID          int64
	Name        string
	Category    string
	Price       decimal.Decimal
	Description string
	ImageURL    string
}
