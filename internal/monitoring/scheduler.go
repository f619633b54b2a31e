package monitoring

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/paymybuddy/paymybuddy-be/internal/models"
	"github.com/paymybuddy/paymybuddy-be/internal/services"
)

// Scheduler checks for and executes due standing orders.
type Scheduler struct {
	scheduleSvc services.ScheduleServiceProvider
	transferSvc services.TransferServiceProvider
	eventSvc    services.EventServiceProvider
	ticker      *time.Ticker
	done        chan bool
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(scheduleSvc services.ScheduleServiceProvider, transferSvc services.TransferServiceProvider, eventSvc services.EventServiceProvider) *Scheduler {
	return &Scheduler{
		scheduleSvc: scheduleSvc,
		transferSvc: transferSvc,
		eventSvc:    eventSvc,
		done:        make(chan bool),
	}
}

// Run starts the scheduler's ticking loop.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting standing-order scheduler...")
	s.ticker = time.NewTicker(1 * time.Minute)
	defer s.ticker.Stop()

	// Run once immediately on start
	s.checkAndRunSchedules()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping standing-order scheduler.")
			return
		case <-s.ticker.C:
			s.checkAndRunSchedules()
		}
	}
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.done <- true
}

// checkAndRunSchedules queries for due standing orders and executes them.
func (s *Scheduler) checkAndRunSchedules() {
	schedules, err := s.scheduleSvc.GetAllActiveSchedules()
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to retrieve active standing orders")
		return
	}

	for _, schedule := range schedules {
		cronSchedule, err := cron.ParseStandard(schedule.CronExpression)
		if err != nil {
			log.Error().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Invalid cron expression")
			continue
		}

		now := time.Now()
		// If NextRunAt is in the past, it's time to run
		if schedule.NextRunAt != nil && now.After(*schedule.NextRunAt) {
			go s.executeTransfer(schedule) // Run in a goroutine to not block the scheduler

			// Update the times for the next run
			lastRun := now
			nextRun := cronSchedule.Next(now)
			if err := s.scheduleSvc.UpdateScheduleRunTimes(schedule.ID, lastRun, nextRun); err != nil {
				log.Error().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Failed to update run times")
			}
		}
	}
}

// executeTransfer performs the transfer defined by the standing order.
func (s *Scheduler) executeTransfer(schedule models.TransferSchedule) {
	log.Info().Str("schedule_id", schedule.ID).Str("name", schedule.Name).Msg("Scheduler: Executing standing order")

	description := schedule.Description
	if description == "" {
		description = schedule.Name
	}

	_, err := s.transferSvc.Transfer(schedule.UserID, schedule.BuddyEmail, schedule.Amount.String(), description)
	if err != nil {
		log.Error().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Standing order failed")
		msg := fmt.Sprintf("Standing order '%s' failed: %v", schedule.Name, err)
		s.eventSvc.CreateEvent("schedule.execute.fail", "error", msg, &schedule.UserID)
		return
	}

	msg := fmt.Sprintf("Standing order '%s' executed successfully.", schedule.Name)
	s.eventSvc.CreateEvent("schedule.execute.success", "info", msg, &schedule.UserID)
}
