// internal/handlers/document.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tracelink/provenance-backend/internal/services"
	"github.com/tracelink/provenance-backend/internal/utils"
)

type DocumentHandler struct {
	storageService *services.StorageService
}

func NewDocumentHandler(storageService *services.StorageService) *DocumentHandler {
	return &DocumentHandler{storageService: storageService}
}

// POST /documents
// Stores a custody document off-core and returns the content hash that
// products and checkpoints reference.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("document")
	if err != nil {
		utils.BadRequestResponse(c, "Missing document file", nil)
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadDocument(file, header)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"document": result,
	})
}
