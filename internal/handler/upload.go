package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/famlink/internal/upload"
)

// UploadHandler accepts attachment blobs and hands back durable URLs.
type UploadHandler struct {
	Store *upload.Store
}

func NewUploadHandler(store *upload.Store) *UploadHandler {
	return &UploadHandler{Store: store}
}

// Upload stores one multipart file field named "file" and returns its
// URL and media kind. Failures are explicit errors; the client decides
// whether to send the message without the attachment.
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file field required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer src.Close()

	res, err := h.Store.Save(fh.Filename, fh.Header.Get("Content-Type"), src)
	if err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"url": res.URL, "kind": res.Kind})
}
