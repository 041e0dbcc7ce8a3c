package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestPrepareUserResponse_PointsFallback(t *testing.T) {
	u := User{
		ID:       "u1",
		Email:    "a@b.com",
		Children: []Child{{Points: 3}, {Points: 5}},
	}

	assert.Equal(t, 8, PrepareUserResponse(u).Points)
}

func TestPrepareUserResponse_RecordPointsWin(t *testing.T) {
	u := User{
		ID:       "u1",
		Children: []Child{{Points: 3}, {Points: 5}},
		Points:   intPtr(10),
	}

	assert.Equal(t, 10, PrepareUserResponse(u).Points)
}

func TestPrepareUserResponse_ZeroRecordPointsIsAuthoritative(t *testing.T) {
	u := User{Children: []Child{{Points: 7}}, Points: intPtr(0)}

	assert.Equal(t, 0, PrepareUserResponse(u).Points)
}

func TestPrepareUserResponse_Defaults(t *testing.T) {
	p := PrepareUserResponse(User{ID: "u1", Name: "Kid", Email: "a@b.com", PasswordHash: "x"})

	assert.True(t, p.IsParent)
	assert.NotNil(t, p.Children)
	assert.Empty(t, p.Children)
	assert.Equal(t, 0, p.Points)
	assert.Equal(t, "a@b.com", p.Email)

	no := false
	assert.False(t, PrepareUserResponse(User{IsParent: &no}).IsParent)
}

func TestNewChild(t *testing.T) {
	now := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)

	c := NewChild("id-1", "kid", 8, now)

	assert.Equal(t, "id-1", c.ID)
	assert.Equal(t, "Grade 3", c.Grade)
	assert.Equal(t, "K", c.Avatar)
	assert.Equal(t, "2025-03-09", c.DateAdded)
	assert.Equal(t, "Just created", c.LastActive)
	assert.Equal(t, 1, c.Level)
	assert.Equal(t, 0, c.Points)
	assert.NotNil(t, c.Strengths)
	assert.NotNil(t, c.Weaknesses)

	assert.Equal(t, "Grade 1", NewChild("id", "x", 3, now).Grade)
}

func TestUserPatch_Apply(t *testing.T) {
	at := time.Now().UTC()
	u := User{}

	UserPatch{}.Apply(&u)
	assert.Nil(t, u.LastLogin)

	UserPatch{LastLogin: &at}.Apply(&u)
	if assert.NotNil(t, u.LastLogin) {
		assert.True(t, at.Equal(*u.LastLogin))
	}
}
