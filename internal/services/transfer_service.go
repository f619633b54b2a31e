package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/paymybuddy/paymybuddy-be/internal/models"
	"github.com/paymybuddy/paymybuddy-be/internal/websocket"
)

// TransferServiceProvider defines the interface for money movement services.
type TransferServiceProvider interface {
	Transfer(senderID, buddyEmail, amount, description string) (models.Transaction, error)
	DepositToAccount(userID, amount string) (models.User, error)
	WithdrawFromAccount(userID, amount string) (models.User, error)
	GetTransactions(userID string, limit int) ([]models.Transaction, error)
}

// TransferService orchestrates deposits, withdrawals and buddy transfers.
type TransferService struct {
	db       *sql.DB
	userSvc  UserServiceProvider
	buddySvc BuddyServiceProvider
	eventSvc EventServiceProvider
	hub      *websocket.Hub
}

// NewTransferService creates a new TransferService.
func NewTransferService(db *sql.DB, userSvc UserServiceProvider, buddySvc BuddyServiceProvider, eventSvc EventServiceProvider, hub *websocket.Hub) *TransferService {
	return &TransferService{
		db:       db,
		userSvc:  userSvc,
		buddySvc: buddySvc,
		eventSvc: eventSvc,
		hub:      hub,
	}
}

// Transfer moves money from the sender to a connected buddy. The two balance
// saves are sequential, not transactional; see the known lost-update gap on
// SaveBalance.
func (s *TransferService) Transfer(senderID, buddyEmail, amount, description string) (models.Transaction, error) {
	sender, err := s.userSvc.GetUserByID(senderID)
	if err != nil {
		return models.Transaction{}, err
	}

	receiver, err := s.userSvc.GetUserByEmail(strings.ToLower(buddyEmail))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: %s", ErrBuddyNotFound, buddyEmail)
	}

	connected, err := s.buddySvc.AreConnected(sender.ID, receiver.ID)
	if err != nil {
		return models.Transaction{}, err
	}
	if !connected {
		return models.Transaction{}, fmt.Errorf("%w: %s", ErrNotConnected, buddyEmail)
	}

	magnitude, err := parseAmount(amount)
	if err != nil {
		return models.Transaction{}, err
	}
	if sender.Balance.LessThan(magnitude) {
		return models.Transaction{}, fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, sender.Balance, magnitude)
	}

	sender.Balance = sender.Balance.Sub(magnitude)
	receiver.Balance = receiver.Balance.Add(magnitude)

	if err := s.userSvc.SaveBalance(sender); err != nil {
		return models.Transaction{}, err
	}
	if err := s.userSvc.SaveBalance(receiver); err != nil {
		return models.Transaction{}, err
	}

	tx, err := s.recordTransaction(models.TransactionTransfer, sender.ID, receiver.ID, magnitude.String(), description)
	if err != nil {
		return models.Transaction{}, err
	}

	msg := fmt.Sprintf("Sent %s to %s.", magnitude, receiver.Email)
	s.eventSvc.CreateEvent("transfer.send", "info", msg, &sender.ID)
	s.notifyReceiver(receiver.ID, sender.Email, tx)

	return tx, nil
}

// DepositToAccount adds funds to the user's balance and persists the result.
func (s *TransferService) DepositToAccount(userID, amount string) (models.User, error) {
	user, err := s.userSvc.GetUserByID(userID)
	if err != nil {
		return models.User{}, err
	}

	magnitude, err := parseAmount(amount)
	if err != nil {
		return models.User{}, err
	}

	if err := s.userSvc.Deposit(&user, amount); err != nil {
		return models.User{}, err
	}
	if err := s.userSvc.SaveBalance(user); err != nil {
		return models.User{}, err
	}

	if _, err := s.recordTransaction(models.TransactionDeposit, user.ID, user.ID, magnitude.String(), "Deposit"); err != nil {
		return models.User{}, err
	}
	s.eventSvc.CreateEvent("balance.deposit", "info", fmt.Sprintf("Deposited %s.", magnitude), &user.ID)
	return user, nil
}

// WithdrawFromAccount removes funds from the user's balance and persists the result.
func (s *TransferService) WithdrawFromAccount(userID, amount string) (models.User, error) {
	user, err := s.userSvc.GetUserByID(userID)
	if err != nil {
		return models.User{}, err
	}

	magnitude, err := parseAmount(amount)
	if err != nil {
		return models.User{}, err
	}

	if err := s.userSvc.Withdraw(&user, amount); err != nil {
		return models.User{}, err
	}
	if err := s.userSvc.SaveBalance(user); err != nil {
		return models.User{}, err
	}

	if _, err := s.recordTransaction(models.TransactionWithdraw, user.ID, user.ID, magnitude.String(), "Withdrawal"); err != nil {
		return models.User{}, err
	}
	s.eventSvc.CreateEvent("balance.withdraw", "info", fmt.Sprintf("Withdrew %s.", magnitude), &user.ID)
	return user, nil
}

// GetTransactions returns the user's sent and received transactions, newest first.
func (s *TransferService) GetTransactions(userID string, limit int) ([]models.Transaction, error) {
	rows, err := s.db.Query(`
		SELECT id, type, sender_id, receiver_id, amount, description, created_at
		FROM transactions
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.Type, &tx.SenderID, &tx.ReceiverID, &tx.Amount, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *TransferService) recordTransaction(txType, senderID, receiverID, amount, description string) (models.Transaction, error) {
	tx := models.Transaction{
		ID:          uuid.New().String(),
		Type:        txType,
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Description: description,
	}

	stmt, err := s.db.Prepare("INSERT INTO transactions (id, type, sender_id, receiver_id, amount, description) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.Transaction{}, err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(tx.ID, tx.Type, tx.SenderID, tx.ReceiverID, amount, tx.Description); err != nil {
		return models.Transaction{}, err
	}

	var stored models.Transaction
	row := s.db.QueryRow("SELECT id, type, sender_id, receiver_id, amount, description, created_at FROM transactions WHERE id = ?", tx.ID)
	if err := row.Scan(&stored.ID, &stored.Type, &stored.SenderID, &stored.ReceiverID, &stored.Amount, &stored.Description, &stored.CreatedAt); err != nil {
		return models.Transaction{}, err
	}
	return stored, nil
}

// notifyReceiver pushes a live notification to the receiver's websocket
// subscribers. Delivery is best effort.
func (s *TransferService) notifyReceiver(receiverID, senderEmail string, tx models.Transaction) {
	if s.hub == nil {
		return
	}

	payload, err := json.Marshal(websocket.Message{
		Action: "transfer.received",
		Payload: map[string]interface{}{
			"from":        senderEmail,
			"amount":      tx.Amount,
			"description": tx.Description,
			"createdAt":   tx.CreatedAt,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("receiver_id", receiverID).Msg("Failed to encode transfer notification")
		return
	}

	s.hub.BroadcastTo(receiverID, payload)
}
