package services

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/paymybuddy/paymybuddy-be/internal/models"
)

// BuddyServiceProvider defines the interface for buddy connection services.
type BuddyServiceProvider interface {
	AddBuddy(userID, buddyEmail string) (models.UserView, error)
	GetBuddies(userID string) ([]models.UserView, error)
	RemoveBuddy(userID, buddyEmail string) error
	AreConnected(userID, buddyID string) (bool, error)
}

// BuddyService manages connections between users.
type BuddyService struct {
	db       *sql.DB
	userSvc  UserServiceProvider
	eventSvc EventServiceProvider
}

// NewBuddyService creates a new BuddyService.
func NewBuddyService(db *sql.DB, userSvc UserServiceProvider, eventSvc EventServiceProvider) *BuddyService {
	return &BuddyService{db: db, userSvc: userSvc, eventSvc: eventSvc}
}

// AddBuddy connects the user to the account registered under buddyEmail.
func (s *BuddyService) AddBuddy(userID, buddyEmail string) (models.UserView, error) {
	buddy, err := s.userSvc.GetUserByEmail(strings.ToLower(buddyEmail))
	if err != nil {
		return models.UserView{}, fmt.Errorf("%w: %s", ErrBuddyNotFound, buddyEmail)
	}

	if buddy.ID == userID {
		return models.UserView{}, ErrSelfBuddy
	}

	connected, err := s.AreConnected(userID, buddy.ID)
	if err != nil {
		return models.UserView{}, err
	}
	if connected {
		return models.UserView{}, ErrAlreadyBuddies
	}

	stmt, err := s.db.Prepare("INSERT INTO buddies (id, user_id, buddy_id) VALUES (?, ?, ?)")
	if err != nil {
		return models.UserView{}, err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(uuid.New().String(), userID, buddy.ID); err != nil {
		return models.UserView{}, err
	}

	s.eventSvc.CreateEvent("buddy.add", "info", fmt.Sprintf("Connected to %s.", buddy.Email), &userID)
	return buddy.View(), nil
}

// GetBuddies returns the user's connections in the order they were added.
func (s *BuddyService) GetBuddies(userID string) ([]models.UserView, error) {
	rows, err := s.db.Query(`
		SELECT u.email, u.first_name, u.last_name, u.balance
		FROM buddies b
		JOIN users u ON u.id = b.buddy_id
		WHERE b.user_id = ?
		ORDER BY b.created_at, b.rowid`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buddies []models.UserView
	for rows.Next() {
		var view models.UserView
		if err := rows.Scan(&view.Email, &view.FirstName, &view.LastName, &view.Balance); err != nil {
			return nil, err
		}
		buddies = append(buddies, view)
	}
	return buddies, rows.Err()
}

// RemoveBuddy deletes the connection to the account registered under buddyEmail.
func (s *BuddyService) RemoveBuddy(userID, buddyEmail string) error {
	buddy, err := s.userSvc.GetUserByEmail(strings.ToLower(buddyEmail))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBuddyNotFound, buddyEmail)
	}

	res, err := s.db.Exec("DELETE FROM buddies WHERE user_id = ? AND buddy_id = ?", userID, buddy.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotConnected
	}
	return nil
}

// AreConnected reports whether a buddy connection exists from userID to buddyID.
func (s *BuddyService) AreConnected(userID, buddyID string) (bool, error) {
	var count int
	row := s.db.QueryRow("SELECT COUNT(1) FROM buddies WHERE user_id = ? AND buddy_id = ?", userID, buddyID)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
