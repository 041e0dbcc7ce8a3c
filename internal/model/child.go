package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultFavoriteColor is assigned to a freshly created child profile.
const DefaultFavoriteColor = "🟦 Blue"

// Child is a learner profile nested inside a parent account.
type Child struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Age              int      `json:"age"`
	Grade            string   `json:"grade"`
	FavoriteColor    string   `json:"favoriteColor"`
	DateAdded        string   `json:"dateAdded"`
	LastActive       string   `json:"lastActive"`
	Avatar           string   `json:"avatar"`
	Points           int      `json:"points"`
	Level            int      `json:"level"`
	LessonsCompleted int      `json:"lessonsCompleted"`
	TestsAttended    int      `json:"testsAttended"`
	CurrentStreak    int      `json:"currentStreak"`
	AverageScore     float64  `json:"averageScore"`
	TotalTime        int      `json:"totalTime"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
}

// NewChild derives the initial child profile created alongside an account.
// The child shares the account id; the grade is inferred from age.
func NewChild(id, name string, age int, now time.Time) Child {
	return Child{
		ID:            id,
		Name:          name,
		Age:           age,
		Grade:         fmt.Sprintf("Grade %d", max(1, age-5)),
		FavoriteColor: DefaultFavoriteColor,
		DateAdded:     now.UTC().Format(time.DateOnly),
		LastActive:    "Just created",
		Avatar:        avatar(name),
		Level:         1,
		Strengths:     []string{},
		Weaknesses:    []string{},
	}
}

func avatar(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}
