package model

import (
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"type:varchar(150);not null" json:"first_name"`
	LastName     string    `gorm:"type:varchar(150);not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(20);default:'user'" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"-"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin is the single capability checked for admin-only actions
// and for editing recipes of other authors.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsStaff || u.IsSuperuser
}

// TokenRole is the role claim put into issued JWTs.
func (u *User) TokenRole() string {
	if u.IsAdmin() {
		return string(RoleAdmin)
	}
	return string(RoleUser)
}

// Subscription means UserID follows AuthorID.
type Subscription struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_subscriptions_user_author" json:"user_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_subscriptions_user_author;index" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Author User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
