package adminapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"

	"github.com/greenshelf/catalog/internal/importer"
	"github.com/greenshelf/catalog/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UploadField is the multipart field carrying the CSV file
const UploadField = "productFile"

func registerImportRoutes() {
	webserver.ApiPOST("/products/bulk-upload", bulkUpload, webserver.JWTAuth())
	webserver.ApiGET("/products/bulk-upload/:id", getImportJob, webserver.JWTAuth())
}

// bulkUpload saves the file and answers 202 before any row is parsed.
// @Summary upload a product CSV for background import
// @Tags Imports
// @Security BearerAuth
// @Accept multipart/form-data
// @Param productFile formData file true "CSV with name,categoryId,price,description,imageUrl"
// @Success 202 {object} map[string]string
// @Failure 503 {object} webserver.ErrorBody
// @Router /api/products/bulk-upload [post]
func bulkUpload(c echo.Context) error {
	header, err := c.FormFile(UploadField)
	if err != nil {
		return fail(c, http.StatusBadRequest, "NO_FILE", "No file uploaded.")
	}

	appCtx := GetAppContext(c)
	path, err := saveUpload(appCtx.Config().GetUploadDir(), header)
	if err != nil {
		return handleError(c, err, "Failed to store upload")
	}

	job, err := appCtx.Importer().Submit(c.Request().Context(), importer.Upload{
		Path:     path,
		Filename: header.Filename,
		UserID:   webserver.CurrentIdentity(c).UserID,
	})
	if errors.Is(err, importer.ErrBusy) {
		return fail(c, http.StatusServiceUnavailable, "IMPORT_BUSY", "Too many imports in progress, retry later.")
	} else if err != nil {
		return handleError(c, err, "Failed to queue import")
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Upload received and is being processed.",
		"jobId":   strconv.FormatInt(job.ID, 10),
	})
}

func saveUpload(dir string, header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create upload dir")
	}
	dst, err := os.CreateTemp(dir, "upload-*.csv")
	if err != nil {
		return "", errors.Wrap(err, "create upload file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", errors.Wrap(err, "copy upload")
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", errors.Wrap(err, "close upload file")
	}
	return dst.Name(), nil
}

// @Summary get the status of an import
// @Tags Imports
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Success 200 {object} domain.ImportJob
// @Router /api/products/bulk-upload/{id} [get]
func getImportJob(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return handleError(c, err, "Failed to retrieve import job")
	}
	job, err := GetAppContext(c).Importer().Job(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err, "Failed to retrieve import job")
	}
	return ok(c, job)
}
