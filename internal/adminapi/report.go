package adminapi

import (
	"fmt"
	"net/http"

	"github.com/greenshelf/catalog/internal/report"
	"github.com/greenshelf/catalog/internal/webserver"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func registerReportRoutes() {
	webserver.ApiGET("/products/report", downloadReport)
}

// downloadReport builds the whole workbook before sending headers, so a failed
// read still gets a JSON error.
// @Summary download the product report
// @Tags Products
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /api/products/report [get]
func downloadReport(c echo.Context) error {
	xlsx, err := GetAppContext(c).Reporter().Build(c.Request().Context())
	if err != nil {
		return handleError(c, err, "Failed to generate the report")
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, report.ContentType)
	resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, report.FileName))
	resp.WriteHeader(http.StatusOK)
	if err := xlsx.Write(resp); err != nil {
		// headers are gone; all that is left is to log
		zap.L().Error("write report", zap.Error(err))
	}
	return nil
}
