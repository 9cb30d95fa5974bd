// internal/handlers/escrow.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tracelink/provenance-backend/internal/services"
	"github.com/tracelink/provenance-backend/internal/utils"
)

type EscrowHandler struct {
	escrowService *services.EscrowService
	bankService   *services.BankService
}

func NewEscrowHandler(escrowService *services.EscrowService, bankService *services.BankService) *EscrowHandler {
	return &EscrowHandler{
		escrowService: escrowService,
		bankService:   bankService,
	}
}

// POST /products/:id/escrow
func (h *EscrowHandler) Escrow(c *gin.Context) {
	payerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	var req services.EscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	payment, err := h.escrowService.Escrow(payerID, productID, &req)
	if err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"payment": payment,
	})
}

// POST /products/:id/escrow/release
func (h *EscrowHandler) Release(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	if err := h.escrowService.Release(callerID, productID); err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id": productID,
		"released":   true,
	})
}

// GET /products/:id/escrow
func (h *EscrowHandler) Get(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	payment, err := h.escrowService.Get(productID)
	if err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"payment": payment,
	})
}

// GET /accounts/balance
func (h *EscrowHandler) Balance(c *gin.Context) {
	principalID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	balance, err := h.bankService.Balance(principalID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"principal_id": principalID,
		"balance":      balance,
	})
}
