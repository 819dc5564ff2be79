package domain

import "time"

// UserStatus represents lifecycle states for a platform user.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is the profile document kept alongside an identity-provider account.
// UID is assigned by the identity provider.
type User struct {
	UID                  string     `json:"uid" bson:"_id"`
	Email                string     `json:"email" bson:"email"`
	DisplayName          string     `json:"displayName" bson:"displayName"`
	Phone                string     `json:"phone" bson:"phone"`
	IsAdmin              bool       `json:"isAdmin" bson:"isAdmin"`
	Status               UserStatus `json:"status" bson:"status"`
	TotalCoursesEnrolled int64      `json:"totalCoursesEnrolled" bson:"totalCoursesEnrolled"`
	CreatedAt            time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// StatusForDisabled maps the identity-provider disabled flag onto a profile status.
func StatusForDisabled(disabled bool) UserStatus {
	if disabled {
		return UserStatusInactive
	}
	return UserStatusActive
}
