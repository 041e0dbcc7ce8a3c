package model

import "time"

// Profile is the client-facing projection of a User.  The password digest
// never appears here.
type Profile struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	IsParent   bool       `json:"isParent"`
	Children   []Child    `json:"children"`
	Points     int        `json:"points"`
	RememberMe *bool      `json:"rememberMe,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// PrepareUserResponse projects u into a Profile.  IsParent defaults to true.
// Points on the record are authoritative; only when absent is the total
// derived from the children.
func PrepareUserResponse(u User) Profile {
	children := u.Children
	if children == nil {
		children = []Child{}
	}

	isParent := true
	if u.IsParent != nil {
		isParent = *u.IsParent
	}

	var points int
	if u.Points != nil {
		points = *u.Points
	} else {
		for _, c := range children {
			points += c.Points
		}
	}

	return Profile{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		IsParent: isParent,
		Children: children,
		Points:   points,
	}
}
