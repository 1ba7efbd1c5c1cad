package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password         string     `gorm:"not null;column:password" json:"-"`
	IsVIP            bool       `gorm:"not null;default:false;column:is_vip" json:"is_vip"`
	SubscriptionType string     `gorm:"column:subscription_type" json:"subscription_type"`
	TransactionID    string     `gorm:"column:transaction_id" json:"-"`
	VIPExpiresAt     *time.Time `gorm:"column:vip_expires_at" json:"vip_expires_at"`
	CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

// ActiveVIP reports whether the user currently has a paid tier. An expiry in
// the past wins over the stored flag.
func (u *User) ActiveVIP() bool {
	if !u.IsVIP {
		return false
	}
	if u.VIPExpiresAt != nil && u.VIPExpiresAt.Before(time.Now()) {
		return false
	}
	return true
}
