package model

import "time"

// User is a parent account record as kept by the credential store.  Email
// is the storage key and ID the correlation key carried in token subjects.
// Optional attributes are pointers: a nil Points means the record carries no
// account-level total and the profile falls back to summing the children.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Name         string     `json:"name"`
	IsParent     *bool      `json:"isParent,omitempty"`
	Children     []Child    `json:"children"`
	Points       *int       `json:"points,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// UserPatch is a partial update applied by email.  Nil fields are left as is.
type UserPatch struct {
	LastLogin *time.Time
}

// Apply copies the set fields of p onto u.
func (p UserPatch) Apply(u *User) {
	if p.LastLogin != nil {
		t := *p.LastLogin
		u.LastLogin = &t
	}
}
