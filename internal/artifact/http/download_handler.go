// Package http serves artifacts stored in a file bucket through signed, expiring links.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gocloud.dev/blob/fileblob"

	artifactService "github.com/allisson/charms/internal/artifact/service"
	apperrors "github.com/allisson/charms/internal/errors"
	"github.com/allisson/charms/internal/httputil"
)

// DownloadHandler streams artifacts addressed by URLs signed with the bucket's HMAC signer.
type DownloadHandler struct {
	store  *artifactService.BlobStore
	signer *fileblob.URLSignerHMAC
	logger *slog.Logger
}

// NewDownloadHandler creates a new download handler.
func NewDownloadHandler(
	store *artifactService.BlobStore,
	signer *fileblob.URLSignerHMAC,
	logger *slog.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		store:  store,
		signer: signer,
		logger: logger,
	}
}

// DownloadHandler verifies the link signature and expiry, then streams the object.
// GET /v1/artifacts/download?obj=...&expiry=...&signature=...
func (h *DownloadHandler) DownloadHandler(c *gin.Context) {
	key, err := h.signer.KeyFromURL(c.Request.Context(), c.Request.URL)
	if err != nil || key == "" {
		httputil.HandleErrorGin(
			c,
			apperrors.Wrap(apperrors.ErrForbidden, "invalid or expired download link"),
			h.logger,
		)
		return
	}

	reader, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer func() {
		_ = reader.Close()
	}()

	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, reader.Size(), reader.ContentType(), reader, nil)
}
