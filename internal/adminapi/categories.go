package adminapi

import (
	"net/http"

	"github.com/greenshelf/catalog/internal/domain"
	"github.com/greenshelf/catalog/internal/webserver"
	"github.com/labstack/echo/v4"
)

type categoryPayload struct {
	Name string `json:"name" validate:"required,min=1,max=128"`
}

// registerCategoryRoutes registers category CRUD routes
func registerCategoryRoutes() {
	webserver.ApiGET("/categories", listCategories)
	webserver.ApiGET("/categories/:id", getCategory)
	webserver.ApiPOST("/categories", createCategory, webserver.JWTAuth())
	webserver.ApiPATCH("/categories/:id", updateCategory, webserver.JWTAuth())
	webserver.ApiDELETE("/categories/:id", deleteCategory, webserver.JWTAuth())
}

// @Summary list categories
// @Tags Categories
// @Success 200 {array} domain.Category
// @Router /api/categories [get]
func listCategories(c echo.Context) error {
	cats, err := GetAppContext(c).Catalog().ListCategories(c.Request().Context())
	if err != nil {
		return handleError(c, err, "Failed to retrieve categories")
	}
	return ok(c, cats)
}

// @Summary get a category
// @Tags Categories
// @Param id path int true "Category ID"
// @Success 200 {object} domain.Category
// @Router /api/categories/{id} [get]
func getCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, err, "Failed to retrieve category")
	}
	cat, err := GetAppContext(c).Catalog().GetCategory(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err, "Failed to retrieve category")
	}
	return ok(c, cat)
}

// @Summary create a category
// @Tags Categories
// @Security BearerAuth
// @Param body body categoryPayload true "Category"
// @Success 201 {object} domain.Category
// @Failure 409 {object} webserver.ErrorBody
// @Router /api/categories [post]
func createCategory(c echo.Context) error {
	var payload categoryPayload
	if err := bindAndValidate(c, &payload); err != nil {
		return handleError(c, err, "Failed to create category")
	}
	cat := domain.Category{Name: payload.Name}
	if err := GetAppContext(c).Catalog().CreateCategory(c.Request().Context(), &cat); err != nil {
		return handleError(c, err, "Failed to create category")
	}
	return created(c, cat)
}

// @Summary rename a category
// @Tags Categories
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param body body categoryPayload true "Category"
// @Success 200 {object} domain.Category
// @Router /api/categories/{id} [patch]
func updateCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, err, "Failed to update category")
	}
	var payload categoryPayload
	if err := bindAndValidate(c, &payload); err != nil {
		return handleError(c, err, "Failed to update category")
	}
	cat, err := GetAppContext(c).Catalog().UpdateCategory(c.Request().Context(), id, payload.Name)
	if err != nil {
		return handleError(c, err, "Failed to update category")
	}
	return ok(c, cat)
}

// deleteCategory refuses while products still reference the category
// @Summary delete an unused category
// @Tags Categories
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 409 {object} webserver.ErrorBody
// @Router /api/categories/{id} [delete]
func deleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, err, "Failed to delete category")
	}
	if err := GetAppContext(c).Catalog().DeleteCategory(c.Request().Context(), id); err != nil {
		return handleError(c, err, "Failed to delete category")
	}
	return c.NoContent(http.StatusNoContent)
}
