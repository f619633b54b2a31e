package models

import "time"

// Buddy represents a directed connection between two users. The owner can send
// money to the connected user.
type Buddy struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	BuddyID   string    `json:"buddyId"`
	CreatedAt time.Time `json:"createdAt"`
}
