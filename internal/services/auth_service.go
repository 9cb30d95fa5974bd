// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/config"
	"github.com/tracelink/provenance-backend/internal/models"
	"github.com/tracelink/provenance-backend/internal/utils"
)

// AuthService authenticates principals and issues the bearer tokens the rest
// of the surface identifies callers by. Roles are not embedded in the token;
// every authorization check consults the role registry live.
type AuthService struct {
	db          *gorm.DB
	config      *config.Config
	roleService *RoleService
}

type RegisterPrincipalRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string            `json:"token"`
	Principal *models.Principal `json:"principal"`
	Roles     []models.Role     `json:"roles"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config, roleService *RoleService) *AuthService {
	return &AuthService{
		db:          db,
		config:      cfg,
		roleService: roleService,
	}
}

func (s *AuthService) Register(req *RegisterPrincipalRequest) (*models.Principal, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var count int64
	s.db.Model(&models.Principal{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count)
	if count > 0 {
		return nil, errors.New("username or email already registered")
	}

	principal := &models.Principal{
		Username: req.Username,
		Email:    req.Email,
		Status:   models.PrincipalStatusActive,
	}
	if err := principal.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(principal).Error; err != nil {
		return nil, fmt.Errorf("failed to create principal: %w", err)
	}

	return principal, nil
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var principal models.Principal
	if err := s.db.Where("email = ?", req.Email).First(&principal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid credentials")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := principal.CheckPassword(req.Password); err != nil {
		return nil, errors.New("invalid credentials")
	}

	if principal.Status != models.PrincipalStatusActive {
		return nil, errors.New("account is not active")
	}

	token, err := utils.GenerateJWT(principal.ID, principal.Username, s.config.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	s.db.Model(&principal).Update("last_login_at", &now)

	roles, err := s.roleService.RolesOf(principal.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token:     token,
		Principal: &principal,
		Roles:     roles,
	}, nil
}

func (s *AuthService) GetProfile(principalID uuid.UUID) (*models.Principal, []models.Role, error) {
	var principal models.Principal
	if err := s.db.First(&principal, "id = ?", principalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.New("principal not found")
		}
		return nil, nil, fmt.Errorf("database error: %w", err)
	}

	roles, err := s.roleService.RolesOf(principalID)
	if err != nil {
		return nil, nil, err
	}

	return &principal, roles, nil
}
