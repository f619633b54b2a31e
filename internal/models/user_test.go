package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	testCases := []struct {
		email string
		valid bool
	}{
		{"username@domain.com", true},
		{"first.last@sub.domain.org", true},
		{"username@domain", false}, // missing dotted domain
		{"@domain.com", false},
		{"username@", false},
		{"username", false},
		{"user name@domain.com", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidEmail(tc.email))
		})
	}
}

func TestUserView(t *testing.T) {
	user := User{
		ID:           "some-id",
		Email:        "bingchandler@friends.com",
		PasswordHash: "$2a$10$secret",
		FirstName:    "Chandler",
		LastName:     "Bing",
		Balance:      decimal.RequireFromString("2509.56"),
	}

	view := user.View()

	assert.Equal(t, user.Email, view.Email)
	assert.Equal(t, user.FirstName, view.FirstName)
	assert.Equal(t, user.LastName, view.LastName)
	assert.True(t, view.Balance.Equal(user.Balance))
}
