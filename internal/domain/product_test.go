package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int64
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{25, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TotalPages(tc.total, tc.limit), "total=%d limit=%d", tc.total, tc.limit)
	}
}

func TestProductQuery_Offset(t *testing.T) {
	assert.Equal(t, 0, ProductQuery{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 10, ProductQuery{Page: 2, Limit: 10}.Offset())
	assert.Equal(t, 40, ProductQuery{Page: 5, Limit: 10}.Offset())
}

func TestProductUpdate_ApplyKeepsOmittedFields(t *testing.T) {
	p := Product{
		ID:          7,
		Name:        "Solar lamp",
		CategoryID:  2,
		Price:       decimal.RequireFromString("19.90"),
		Description: "Charges by day",
		ImageURL:    "https://img/lamp.png",
	}
	newPrice := decimal.RequireFromString("17.50")
	ProductUpdate{Price: &newPrice}.Apply(&p)

	assert.Equal(t, "Solar lamp", p.Name)
	assert.Equal(t, int64(2), p.CategoryID)
	assert.True(t, newPrice.Equal(p.Price))
	assert.Equal(t, "Charges by day", p.Description)
	assert.Equal(t, "https://img/lamp.png", p.ImageURL)

	empty := ""
	ProductUpdate{Description: &empty}.Apply(&p)
	assert.Equal(t, "", p.Description)
	assert.Equal(t, "Solar lamp", p.Name)
}

func TestProduct_PriceMarshalsAsNumber(t *testing.T) {
	data, err := json.Marshal(Product{Name: "x", Price: decimal.RequireFromString("9.99")})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":9.99`)
}

func TestCheckPrice(t *testing.T) {
	for _, ok := range []string{"0", "0.5", "19.90", "1.500", "9999999999.99"} {
		assert.NoError(t, CheckPrice(decimal.RequireFromString(ok)), ok)
	}
	for _, bad := range []string{"-0.01", "10000000000", "1.005", "0.001"} {
		assert.Error(t, CheckPrice(decimal.RequireFromString(bad)), bad)
	}
}
