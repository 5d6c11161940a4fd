package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

type Judge struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Initials returns up to two upper-cased letters for avatar badges.
func (j Judge) Initials() string {
	return Initials(j.DisplayName)
}

func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "??"
	case 1:
		runes := []rune(parts[0])
		if len(runes) > 2 {
			runes = runes[:2]
		}
		return strings.ToUpper(string(runes))
	default:
		first, _ := utf8.DecodeRuneInString(parts[0])
		last, _ := utf8.DecodeRuneInString(parts[len(parts)-1])
		return strings.ToUpper(string([]rune{first, last}))
	}
}
