package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"-"`
}

// IsPrivileged reports whether the user may manage objects it does not own
func (u *User) IsPrivileged() bool {
	return u != nil && u.IsActive && u.IsStaff
}

// CanModify reports whether u may change or delete a recipe owned by authorID
func (u *User) CanModify(authorID uint) bool {
	if u == nil {
		return false
	}
	return u.ID == authorID || u.IsPrivileged()
}

// Subscription is a follower -> user edge. A user cannot follow itself,
// which the check constraint enforces below application code.
type Subscription struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_subscriptions_pair;check:chk_subscriptions_no_self,user_id <> follower_id" json:"user_id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_subscriptions_pair;index" json:"follower_id"`
	User       User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Follower   User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
