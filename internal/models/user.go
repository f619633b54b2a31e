package models

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// emailPattern requires a local part, an "@" and a dotted domain.
// "user@domain" is rejected, "user@domain.com" is accepted.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether the given address has an acceptable format.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// User represents a user account in the system.
type User struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"` // Never expose this to the client
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// UserView is the read-only projection of a user for listing and display.
type UserView struct {
	Email     string          `json:"email"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Balance   decimal.Decimal `json:"balance"`
}

// View returns the display projection of the user.
func (u User) View() UserView {
	return UserView{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Balance:   u.Balance,
	}
}
