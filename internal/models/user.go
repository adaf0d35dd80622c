package models

import "time"

// User is either phone-authenticated (Phone set) or a guest (Nickname set).
type User struct {
	ID        int64      `json:"id"`
	Phone     *string    `json:"phone,omitempty"`
	Nickname  *string    `json:"nickname,omitempty"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (u *User) IsGuest() bool {
	return u.Phone == nil
}
