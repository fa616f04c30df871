package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dgtech/internal/service/deliverable"
)

const (
	// maxUploadSize caps a single deliverable file.
	maxUploadSize = 50 << 20
	// multipartOverhead covers boundaries, part headers and the
	// description field around the file.
	multipartOverhead = 1 << 20
)

type DeliverableHandler struct {
	deliverables *deliverable.Service
	logger       *zap.Logger
	maxUpload    int64
}

func NewDeliverableHandler(deliverables *deliverable.Service, logger *zap.Logger) *DeliverableHandler {
	return &DeliverableHandler{deliverables: deliverables, logger: logger, maxUpload: maxUploadSize}
}

// Upload handles POST /milestones/:id/deliverables (multipart field "file")
func (h *DeliverableHandler) Upload(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	milestoneID, ok := pathID(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	if fh.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()

	var description *string
	if d := c.PostForm("description"); d != "" {
		description = &d
	}

	d, err := h.deliverables.Upload(c.Request.Context(), principal, deliverable.Upload{
		MilestoneID: milestoneID,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Description: description,
		Body:        f,
	})
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, d)
}

// DownloadURL handles GET /deliverables/:id/url
func (h *DeliverableHandler) DownloadURL(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	url, err := h.deliverables.DownloadURL(c.Request.Context(), principal, id)
	if err != nil {
		WriteError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
