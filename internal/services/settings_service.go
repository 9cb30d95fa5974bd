// internal/services/settings_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
	"github.com/tracelink/provenance-backend/internal/utils"
)

// SettingsService manages the persisted runtime settings. Updates to the
// recognized ledger keys take effect immediately on the core; everything else
// is stored as-is for the next restart to pick up.
type SettingsService struct {
	core        *Ledger
	roleService *RoleService
}

type UpdateSettingRequest struct {
	Category    string       `json:"category" validate:"required,max=50"`
	Key         string       `json:"key" validate:"required,max=100"`
	Value       models.JSONB `json:"value" validate:"required"`
	Description string       `json:"description,omitempty"`
}

func NewSettingsService(core *Ledger, roleService *RoleService) *SettingsService {
	return &SettingsService{core: core, roleService: roleService}
}

func (s *SettingsService) List() ([]models.Setting, error) {
	var settings []models.Setting
	if err := s.core.DB().Order("category, key").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsService) Update(callerID uuid.UUID, req *UpdateSettingRequest) (*models.Setting, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}
	if !s.roleService.HasRole(callerID, models.RoleAdmin) {
		return nil, fmt.Errorf("%w: only admins may update settings", ledger.ErrUnauthorized)
	}

	var setting models.Setting
	err := s.core.MutateUnguardedThen(func(tx *gorm.DB, emit func(ledger.Event)) error {
		err := tx.Where("category = ? AND key = ?", req.Category, req.Key).First(&setting).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to load setting: %w", err)
			}
			setting = models.Setting{
				Category: req.Category,
				Key:      req.Key,
				DataType: dataTypeOf(req.Value),
			}
		}
		setting.Value = req.Value
		setting.UpdatedBy = callerID
		if req.Description != "" {
			setting.Description = req.Description
		}
		return tx.Save(&setting).Error
	}, func() {
		s.apply(&setting)
	})
	if err != nil {
		return nil, err
	}

	return &setting, nil
}

// StrictTransitionsEnabled reads the persisted transition mode; fallback wins
// when no row exists yet.
func (s *SettingsService) StrictTransitionsEnabled(fallback bool) bool {
	var setting models.Setting
	err := s.core.DB().Where("category = ? AND key = ?", "ledger", "strict_transitions").
		First(&setting).Error
	if err != nil {
		return fallback
	}
	if strict, ok := setting.Value["value"].(bool); ok {
		return strict
	}
	return fallback
}

// apply runs inside the committed hook, writer lock held, so ledger flags
// become visible before any queued operation re-checks the entry gate.
func (s *SettingsService) apply(setting *models.Setting) {
	if setting.Category != "ledger" {
		return
	}
	switch setting.Key {
	case "halted":
		if halted, ok := setting.Value["value"].(bool); ok {
			s.core.SetHalted(halted)
		}
	case "strict_transitions":
		if strict, ok := setting.Value["value"].(bool); ok {
			if strict {
				s.core.SetTransitions(ledger.StrictTransitions{})
			} else {
				s.core.SetTransitions(ledger.PermissiveTransitions{})
			}
		}
	}
}

func dataTypeOf(value models.JSONB) string {
	if v, ok := value["value"]; ok {
		switch v.(type) {
		case bool:
			return "boolean"
		case float64, int, int64:
			return "number"
		case string:
			return "string"
		}
	}
	return "json"
}
