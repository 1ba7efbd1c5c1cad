package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/repos"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

type VIPUpdate struct {
	Active           bool
	SubscriptionType string
	TransactionID    string
	ExpiresAt        *time.Time
}

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateVIPStatus(ctx context.Context, userID uuid.UUID, update VIPUpdate) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	return users[0], nil
}

func (us *userService) UpdateVIPStatus(ctx context.Context, userID uuid.UUID, update VIPUpdate) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	user := users[0]
	user.IsVIP = update.Active
	user.SubscriptionType = update.SubscriptionType
	user.TransactionID = update.TransactionID
	user.VIPExpiresAt = update.ExpiresAt

	if err := us.userRepo.UpdateVIP(ctx, nil, user); err != nil {
		us.log.Error("VIP update failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("Failed to update VIP status: %w", err)
	}
	us.log.Info("VIP status updated", "user_id", userID, "active", update.Active, "subscription_type", update.SubscriptionType)
	return user, nil
}
