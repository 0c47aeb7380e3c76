package importer

import (
	"strconv"
	"strings"

	"github.com/greenshelf/catalog/internal/domain"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ParseRow validates one decoded CSV line and converts it to a product.
// known is the set of existing category ids.
func ParseRow(row domain.ImportRow, known map[int64]struct{}) (*domain.Product, error) {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return nil, errors.New("name is blank")
	}

	categoryID, err := strconv.ParseInt(strings.TrimSpace(row.CategoryID), 10, 64)
	if err != nil || categoryID <= 0 {
		return nil, errors.Errorf("categoryId %q is not a positive integer", row.CategoryID)
	}
	if _, ok := known[categoryID]; !ok {
		return nil, errors.Errorf("category %d does not exist", categoryID)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(row.Price))
	if err != nil {
		return nil, errors.Errorf("price %q is not a number", row.Price)
	}
	if err := domain.CheckPrice(price); err != nil {
		return nil, err
	}

	return &domain.Product{
		Name:        name,
		CategoryID:  categoryID,
		Price:       price,
		Description: strings.TrimSpace(row.Description),
		ImageURL:    strings.TrimSpace(row.ImageURL),
	}, nil
}
