// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tracelink/provenance-backend/internal/services"
	"github.com/tracelink/provenance-backend/internal/utils"
)

type ProductHandler struct {
	productService    *services.ProductService
	checkpointService *services.CheckpointService
	ownershipService  *services.OwnershipService
}

func NewProductHandler(productService *services.ProductService, checkpointService *services.CheckpointService, ownershipService *services.OwnershipService) *ProductHandler {
	return &ProductHandler{
		productService:    productService,
		checkpointService: checkpointService,
		ownershipService:  ownershipService,
	}
}

// POST /products
func (h *ProductHandler) Register(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RegisterProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.productService.Register(callerID, &req)
	if err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"product": product,
	})
}

// GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	product, err := h.productService.Get(productID)
	if err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// GET /products/:id/verify
func (h *ProductHandler) Verify(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	verified, err := h.productService.Verify(productID)
	if err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id": productID,
		"verified":   verified,
	})
}

// POST /products/:id/recall
func (h *ProductHandler) Recall(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	var req services.RecallProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.productService.Recall(callerID, productID, &req); err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id": productID,
		"recalled":   true,
	})
}

// POST /products/:id/checkpoints
func (h *ProductHandler) AddCheckpoint(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	var req services.AddCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	checkpoint, err := h.checkpointService.Add(callerID, productID, &req)
	if err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"checkpoint": checkpoint,
	})
}

// GET /products/:id/checkpoints
func (h *ProductHandler) ListCheckpoints(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	checkpoints, err := h.checkpointService.List(productID)
	if err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id":  productID,
		"checkpoints": checkpoints,
	})
}

// POST /products/:id/transfer
func (h *ProductHandler) Transfer(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	var req services.TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.ownershipService.Transfer(callerID, productID, &req); err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id": productID,
		"new_owner":  req.NewOwnerID,
	})
}

// GET /products/:id/owners
func (h *ProductHandler) ListOwners(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	entries, err := h.ownershipService.History(productID)
	if err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id": productID,
		"owners":     entries,
	})
}

func productIDParam(c *gin.Context) (uint64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return 0, false
	}
	return id, true
}
