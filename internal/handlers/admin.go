// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/models"
	"github.com/tracelink/provenance-backend/internal/services"
	"github.com/tracelink/provenance-backend/internal/utils"
)

type AdminHandler struct {
	db              *gorm.DB
	roleService     *services.RoleService
	breakerService  *services.BreakerService
	bankService     *services.BankService
	settingsService *services.SettingsService
}

type RoleChangeRequest struct {
	PrincipalID uuid.UUID   `json:"principal_id" validate:"required"`
	Role        models.Role `json:"role" validate:"required"`
}

type DepositRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

func NewAdminHandler(db *gorm.DB, roleService *services.RoleService, breakerService *services.BreakerService, bankService *services.BankService, settingsService *services.SettingsService) *AdminHandler {
	return &AdminHandler{
		db:              db,
		roleService:     roleService,
		breakerService:  breakerService,
		bankService:     bankService,
		settingsService: settingsService,
	}
}

// POST /admin/roles/grant
func (h *AdminHandler) GrantRole(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req RoleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.roleService.GrantRole(callerID, req.PrincipalID, req.Role); err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"principal_id": req.PrincipalID,
		"role":         req.Role,
		"granted":      true,
	})
}

// POST /admin/roles/revoke
func (h *AdminHandler) RevokeRole(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req RoleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.roleService.RevokeRole(callerID, req.PrincipalID, req.Role); err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"principal_id": req.PrincipalID,
		"role":         req.Role,
		"revoked":      true,
	})
}

// POST /admin/pause
func (h *AdminHandler) Pause(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.breakerService.Pause(callerID); err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"halted": true})
}

// POST /admin/unpause
func (h *AdminHandler) Unpause(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.breakerService.Unpause(callerID); err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"halted": false})
}

// POST /admin/accounts/:id/deposit
func (h *AdminHandler) Deposit(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	principalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid principal ID", nil)
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	account, err := h.bankService.Deposit(callerID, principalID, req.Amount)
	if err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"account": account,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	query := h.db.Model(&models.AuditLog{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	allowedSortFields := []string{"created_at", "action", "resource_type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.List()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"settings": settings,
	})
}

// PUT /admin/settings
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	callerID, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	setting, err := h.settingsService.Update(callerID, &req)
	if err != nil {
		utils.LedgerErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"setting": setting,
	})
}
