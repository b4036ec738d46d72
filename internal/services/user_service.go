// internal/services/user_service.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/c13agent/aaas-backend/internal/models"
	"github.com/c13agent/aaas-backend/internal/utils"
)

var (
	ErrDisplayNameTaken = errors.New("display name already claimed")
	ErrUserNotFound     = errors.New("user not found")
)

type UserService struct {
	db *gorm.DB
}

type ClaimDisplayNameRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required,wallet_address"`
	DisplayName   string `json:"display_name" validate:"required,display_name"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// ClaimDisplayName attaches a unique display name to a wallet, creating
// the user row on first contact. Re-claiming your own name is a no-op;
// claiming someone else's fails.
func (s *UserService) ClaimDisplayName(req *ClaimDisplayNameRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	wallet := utils.NormalizeWallet(req.WalletAddress)

	var holder models.User
	err := s.db.Where("display_name = ?", req.DisplayName).First(&holder).Error
	if err == nil && holder.WalletAddress != wallet {
		return nil, ErrDisplayNameTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	user := &models.User{
		WalletAddress: wallet,
		DisplayName:   &req.DisplayName,
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return nil, classifyClaimError(err)
	}

	return user, nil
}

// classifyClaimError separates losing the display-name race from the
// database simply failing. Only a unique violation on the display_name
// index means the name is taken; anything else is an infrastructure
// error and must not masquerade as a conflict.
func classifyClaimError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDisplayNameTaken
	}
	return fmt.Errorf("database error: %w", err)
}

func (s *UserService) GetUser(walletAddress string) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, "wallet_address = ?", utils.NormalizeWallet(walletAddress)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}
