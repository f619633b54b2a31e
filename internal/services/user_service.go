package services

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/paymybuddy/paymybuddy-be/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(id string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
	CreateUser(email, password string) (models.User, error)
	UpdateUser(user models.User) (models.User, error)
	Deposit(user *models.User, amount string) error
	Withdraw(user *models.User, amount string) error
	SaveBalance(user models.User) error
	GetUsers() ([]models.UserView, error)
	UpdatePassword(id, currentPassword, newPassword string) error
	DeleteUser(id string) error
	AuthenticateUser(email, password string) (models.User, error)
}

// UserService provides business logic for user account management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, email, password_hash, first_name, last_name, balance, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Balance, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, including the password hash.
// Email comparison is case-insensitive.
func (s *UserService) GetUserByEmail(email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, email, password_hash, first_name, last_name, balance, created_at FROM users WHERE email = ?", strings.ToLower(email))
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Balance, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user %s: %w", email, ErrUserNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// CreateUser registers a new account: validates the email format, rejects
// duplicate emails, hashes the password and persists the user with a zero
// balance.
func (s *UserService) CreateUser(email, password string) (models.User, error) {
	if !models.ValidEmail(email) {
		return models.User{}, fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}
	email = strings.ToLower(email)

	if _, err := s.GetUserByEmail(email); err == nil {
		return models.User{}, fmt.Errorf("%w: %s", ErrEmailAlreadyUsed, email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Balance:      decimal.Zero,
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, email, password_hash, first_name, last_name, balance) VALUES(?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Balance)
	if err != nil {
		return models.User{}, err
	}

	return s.GetUserByID(user.ID)
}

// UpdateUser persists an already-mutated user identified by email. The stored
// password hash is rewritten as-is and never re-hashed; UpdatePassword is the
// path for credential changes.
func (s *UserService) UpdateUser(user models.User) (models.User, error) {
	if !models.ValidEmail(user.Email) {
		return models.User{}, fmt.Errorf("%w: %s", ErrInvalidEmail, user.Email)
	}
	user.Email = strings.ToLower(user.Email)

	existing, err := s.GetUserByEmail(user.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %s", ErrBuddyNotFound, user.Email)
	}

	stmt, err := s.db.Prepare("UPDATE users SET first_name = ?, last_name = ?, balance = ?, password_hash = ? WHERE id = ?")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(user.FirstName, user.LastName, user.Balance, user.PasswordHash, existing.ID); err != nil {
		return models.User{}, err
	}

	user.ID = existing.ID
	user.CreatedAt = existing.CreatedAt
	return user, nil
}

// parseAmount strips any "-" signs and parses the remainder as a decimal, so
// "490.44" and "-490.44" both yield the positive magnitude. The sign stripping
// mirrors the established product behavior for deposit and withdrawal inputs.
func parseAmount(amount string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(amount), "-", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return d, nil
}

// Deposit adds the amount's magnitude to the user's balance in place. The
// caller persists the change separately via SaveBalance.
func (s *UserService) Deposit(user *models.User, amount string) error {
	d, err := parseAmount(amount)
	if err != nil {
		return err
	}
	user.Balance = user.Balance.Add(d)
	return nil
}

// Withdraw subtracts the amount's magnitude from the user's balance in place.
// There is no lower-bound check; the caller persists separately.
func (s *UserService) Withdraw(user *models.User, amount string) error {
	d, err := parseAmount(amount)
	if err != nil {
		return err
	}
	user.Balance = user.Balance.Sub(d)
	return nil
}

// SaveBalance writes the user's current balance to the database. The mutate
// then save sequence is not atomic; concurrent updates to the same account can
// lose writes.
func (s *UserService) SaveBalance(user models.User) error {
	_, err := s.db.Exec("UPDATE users SET balance = ? WHERE id = ?", user.Balance, user.ID)
	return err
}

// GetUsers returns every user as a display projection, preserving the
// repository's ordering.
func (s *UserService) GetUsers() ([]models.UserView, error) {
	rows, err := s.db.Query("SELECT id, email, password_hash, first_name, last_name, balance, created_at FROM users ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []models.UserView
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Balance, &user.CreatedAt); err != nil {
			return nil, err
		}
		views = append(views, user.View())
	}
	return views, rows.Err()
}

// UpdatePassword verifies the current password, then hashes and sets a new password for a user.
func (s *UserService) UpdatePassword(id, currentPassword, newPassword string) error {
	var passwordHash string
	row := s.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", id)
	if err := row.Scan(&passwordHash); err != nil {
		return fmt.Errorf("could not find user to update password: %w", ErrUserNotFound)
	}

	// Check if the current password is correct
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", string(hashedPassword), id)
	return err
}

// DeleteUser removes a user from the database.
func (s *UserService) DeleteUser(id string) error {
	_, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return models.User{}, fmt.Errorf("authentication failed: user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("authentication failed: invalid password")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}
