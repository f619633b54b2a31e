package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/paymybuddy/paymybuddy-be/internal/models"
)

// ScheduleServiceProvider defines the interface for standing-order services.
type ScheduleServiceProvider interface {
	CreateSchedule(schedule models.TransferSchedule) (models.TransferSchedule, error)
	GetSchedulesForUser(userID string) ([]models.TransferSchedule, error)
	GetScheduleByID(scheduleID string) (models.TransferSchedule, error)
	GetAllActiveSchedules() ([]models.TransferSchedule, error)
	UpdateSchedule(scheduleID string, schedule models.TransferSchedule) (models.TransferSchedule, error)
	DeleteSchedule(scheduleID string) error
	UpdateScheduleRunTimes(scheduleID string, lastRun time.Time, nextRun time.Time) error
}

// ScheduleService provides business logic for standing orders.
type ScheduleService struct {
	db           *sql.DB
	eventService EventServiceProvider
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(db *sql.DB, eventService EventServiceProvider) *ScheduleService {
	return &ScheduleService{
		db:           db,
		eventService: eventService,
	}
}

// validateCronExpression checks if a cron expression is valid.
func (s *ScheduleService) validateCronExpression(spec string) (cron.Schedule, error) {
	return cron.ParseStandard(spec)
}

// CreateSchedule validates and saves a new standing order.
func (s *ScheduleService) CreateSchedule(schedule models.TransferSchedule) (models.TransferSchedule, error) {
	cronSchedule, err := s.validateCronExpression(schedule.CronExpression)
	if err != nil {
		return models.TransferSchedule{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	if !models.ValidEmail(schedule.BuddyEmail) {
		return models.TransferSchedule{}, fmt.Errorf("%w: %s", ErrInvalidEmail, schedule.BuddyEmail)
	}
	if schedule.Amount.Sign() <= 0 {
		return models.TransferSchedule{}, fmt.Errorf("%w: %s", ErrInvalidAmount, schedule.Amount)
	}

	nextRun := cronSchedule.Next(time.Now())
	schedule.NextRunAt = &nextRun

	stmt, err := s.db.Prepare(`
		INSERT INTO transfer_schedules (id, user_id, buddy_email, name, cron_expression, amount, description, is_active, next_run_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return models.TransferSchedule{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(schedule.ID, schedule.UserID, schedule.BuddyEmail, schedule.Name, schedule.CronExpression, schedule.Amount, schedule.Description, schedule.IsActive, schedule.NextRunAt)
	if err != nil {
		return models.TransferSchedule{}, err
	}

	s.eventService.CreateEvent("schedule.create", "info", fmt.Sprintf("Standing order '%s' created.", schedule.Name), &schedule.UserID)
	return s.GetScheduleByID(schedule.ID)
}

// GetSchedulesForUser retrieves all standing orders owned by a user.
func (s *ScheduleService) GetSchedulesForUser(userID string) ([]models.TransferSchedule, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, buddy_email, name, cron_expression, amount, description, is_active, last_run_at, next_run_at, created_at
		FROM transfer_schedules WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanSchedules(rows)
}

// GetScheduleByID retrieves a single standing order.
func (s *ScheduleService) GetScheduleByID(scheduleID string) (models.TransferSchedule, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, buddy_email, name, cron_expression, amount, description, is_active, last_run_at, next_run_at, created_at
		FROM transfer_schedules WHERE id = ?`, scheduleID)

	var sc models.TransferSchedule
	err := row.Scan(&sc.ID, &sc.UserID, &sc.BuddyEmail, &sc.Name, &sc.CronExpression, &sc.Amount, &sc.Description, &sc.IsActive, &sc.LastRunAt, &sc.NextRunAt, &sc.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.TransferSchedule{}, fmt.Errorf("schedule with ID %s not found", scheduleID)
		}
		return models.TransferSchedule{}, err
	}
	return sc, nil
}

// GetAllActiveSchedules retrieves every active standing order across users.
func (s *ScheduleService) GetAllActiveSchedules() ([]models.TransferSchedule, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, buddy_email, name, cron_expression, amount, description, is_active, last_run_at, next_run_at, created_at
		FROM transfer_schedules WHERE is_active = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanSchedules(rows)
}

// UpdateSchedule replaces the mutable fields of an existing standing order.
func (s *ScheduleService) UpdateSchedule(scheduleID string, schedule models.TransferSchedule) (models.TransferSchedule, error) {
	cronSchedule, err := s.validateCronExpression(schedule.CronExpression)
	if err != nil {
		return models.TransferSchedule{}, fmt.Errorf("invalid cron expression: %w", err)
	}

	nextRun := cronSchedule.Next(time.Now())

	stmt, err := s.db.Prepare(`
		UPDATE transfer_schedules
		SET buddy_email = ?, name = ?, cron_expression = ?, amount = ?, description = ?, is_active = ?, next_run_at = ?
		WHERE id = ?`)
	if err != nil {
		return models.TransferSchedule{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(schedule.BuddyEmail, schedule.Name, schedule.CronExpression, schedule.Amount, schedule.Description, schedule.IsActive, nextRun, scheduleID)
	if err != nil {
		return models.TransferSchedule{}, err
	}
	return s.GetScheduleByID(scheduleID)
}

// DeleteSchedule removes a standing order.
func (s *ScheduleService) DeleteSchedule(scheduleID string) error {
	_, err := s.db.Exec("DELETE FROM transfer_schedules WHERE id = ?", scheduleID)
	return err
}

// UpdateScheduleRunTimes records an execution and the next due time.
func (s *ScheduleService) UpdateScheduleRunTimes(scheduleID string, lastRun time.Time, nextRun time.Time) error {
	_, err := s.db.Exec("UPDATE transfer_schedules SET last_run_at = ?, next_run_at = ? WHERE id = ?", lastRun, nextRun, scheduleID)
	return err
}

func (s *ScheduleService) scanSchedules(rows *sql.Rows) ([]models.TransferSchedule, error) {
	var schedules []models.TransferSchedule
	for rows.Next() {
		var sc models.TransferSchedule
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.BuddyEmail, &sc.Name, &sc.CronExpression, &sc.Amount, &sc.Description, &sc.IsActive, &sc.LastRunAt, &sc.NextRunAt, &sc.CreatedAt); err != nil {
			return nil, err
		}
		schedules = append(schedules, sc)
	}
	return schedules, rows.Err()
}
