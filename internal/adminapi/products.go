package adminapi

import (
	"net/http"

	"github.com/greenshelf/catalog/internal/domain"
	"github.com/greenshelf/catalog/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type productPayload struct {
	Name        string           `json:"name" validate:"required,max=255"`
	CategoryID  int64            `json:"categoryId" validate:"required,gt=0"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Description string           `json:"description" validate:"max=5000"`
	ImageURL    string           `json:"imageUrl" validate:"max=1024"`
}

// productUpdatePayload leaves absent fields untouched
type productUpdatePayload struct {
	Name        *string          `json:"name" validate:"omitempty,max=255"`
	CategoryID  *int64           `json:"categoryId"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,max=1024"`
}

// registerProductRoutes registers product CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct, webserver.JWTAuth())
	webserver.ApiPATCH("/products/:id", updateProduct, webserver.JWTAuth())
	webserver.ApiDELETE("/products/:id", deleteProduct, webserver.JWTAuth())
}

// @Summary list products
// @Tags Products
// @Param page query int false "Page number"
// @Param limit query int false "Items per page, at most 100"
// @Param sortBy query string false "id, name or price"
// @Param sortOrder query string false "asc or desc"
// @Param search query string false "Case-insensitive name filter"
// @Param category query string false "Exact category name"
// @Success 200 {object} PagedResponse
// @Router /api/products [get]
func listProducts(c echo.Context) error {
	page, limit, err := parsePagination(c)
	if err != nil {
		return handleError(c, err, "Failed to retrieve products")
	}

	query := domain.ProductQuery{
		Page:      page,
		Limit:     limit,
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
		Search:    c.QueryParam("search"),
		Category:  c.QueryParam("category"),
	}
	rows, total, err := GetAppContext(c).Catalog().ListProducts(c.Request().Context(), query)
	if err != nil {
		return handleError(c, err, "Failed to retrieve products")
	}
	return paged(c, rows, total, page, limit)
}

// @Summary get a product
// @Tags Products
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} webserver.ErrorBody
// @Router /api/products/{id} [get]
func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, err, "Failed to retrieve product")
	}
	p, err := GetAppContext(c).Catalog().GetProduct(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err, "Failed to retrieve product")
	}
	return ok(c, p)
}

// @Summary create a product
// @Tags Products
// @Security BearerAuth
// @Param body body productPayload true "Product"
// @Success 201 {object} domain.Product
// @Router /api/products [post]
func createProduct(c echo.Context) error {
	var payload productPayload
	if err := bindAndValidate(c, &payload); err != nil {
		return handleError(c, err, "Failed to create product")
	}

	p := domain.Product{
		Name:        payload.Name,
		CategoryID:  payload.CategoryID,
		Price:       *payload.Price,
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
	}
	repo := GetAppContext(c).Catalog()
	if err := repo.CreateProduct(c.Request().Context(), &p); err != nil {
		return handleError(c, err, "Failed to create product")
	}

	// re-read so the response carries the category name
	out, err := repo.GetProduct(c.Request().Context(), p.ID)
	if err != nil {
		return handleError(c, err, "Failed to create product")
	}
	return created(c, out)
}

// @Summary update the given fields of a product
// @Tags Products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param body body productUpdatePayload true "Fields to change"
// @Success 200 {object} domain.Product
// @Router /api/products/{id} [patch]
func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, err, "Failed to update product")
	}
	var payload productUpdatePayload
	if err := bindAndValidate(c, &payload); err != nil {
		return handleError(c, err, "Failed to update product")
	}

	update := domain.ProductUpdate{
		Name:        payload.Name,
		CategoryID:  payload.CategoryID,
		Price:       payload.Price,
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
	}
	p, err := GetAppContext(c).Catalog().UpdateProduct(c.Request().Context(), id, update)
	if err != nil {
		return handleError(c, err, "Failed to update product")
	}
	return ok(c, p)
}

// @Summary delete a product
// @Tags Products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Router /api/products/{id} [delete]
func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, err, "Failed to delete product")
	}
	if err := GetAppContext(c).Catalog().DeleteProduct(c.Request().Context(), id); err != nil {
		return handleError(c, err, "Failed to delete product")
	}
	return c.NoContent(http.StatusNoContent)
}
