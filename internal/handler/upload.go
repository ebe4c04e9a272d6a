package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/media"
)

// allowedFolders is the upload destination allow-list. Anything else is
// rejected before the file is read.
var allowedFolders = map[string]bool{
	"profilepicture": true,
	"news":           true,
	"post":           true,
}

// UploadHandler proxies multipart uploads to the media host and returns
// the hosted url and id. The file never touches local disk.
type UploadHandler struct {
	host     media.Host
	maxBytes int64
}

func NewUploadHandler(host media.Host, maxBytes int64) *UploadHandler {
	return &UploadHandler{host: host, maxBytes: maxBytes}
}

// Upload accepts a multipart "file" field and a ?folder= destination.
func (h *UploadHandler) Upload(c echo.Context) error {
	folder := c.QueryParam("folder")
	if !allowedFolders[folder] {
		return apperror.NewValidation("folder must be one of profilepicture, news, post")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return apperror.NewValidation("a file field is required")
	}
	if fh.Size > h.maxBytes {
		return apperror.NewValidation("file exceeds the maximum allowed size")
	}

	src, err := fh.Open()
	if err != nil {
		return apperror.NewInternal(err)
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	obj, err := h.host.Upload(c.Request().Context(), folder, fh.Filename, contentType, src)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusCreated, "file uploaded", obj)
}

type moveRequest struct {
	ID     string `json:"id"`
	Folder string `json:"folder"`
}

// Move relocates a hosted object into another allowed folder, for
// promoting staged uploads. Admin-only by routing.
func (h *UploadHandler) Move(c echo.Context) error {
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if req.ID == "" {
		return apperror.NewValidation("id is required")
	}
	if !allowedFolders[req.Folder] {
		return apperror.NewValidation("folder must be one of profilepicture, news, post")
	}

	obj, err := h.host.Move(c.Request().Context(), req.ID, req.Folder)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "file moved", obj)
}

// Delete removes a hosted object by id. Admin-only by routing.
func (h *UploadHandler) Delete(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return apperror.NewValidation("id is required")
	}
	if err := h.host.Delete(c.Request().Context(), id); err != nil {
		return apperror.NewInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
