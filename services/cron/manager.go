package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron: c,
		db:   db,
	}
}

// Start registers all jobs and starts the scheduler
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every 15 minutes: delete expired refresh tokens
	_, err := m.cron.AddFunc("0 */15 * * * *", func() {
		m.logJobStart("purge_expired_refresh_tokens")
		m.PurgeExpiredRefreshTokens()
	})
	if err != nil {
		return err
	}

	// Every hour: prune blacklist rows past their token's expiry
	_, err = m.cron.AddFunc("0 0 * * * *", func() {
		m.logJobStart("prune_token_blacklist")
		m.PruneTokenBlacklist()
	})
	if err != nil {
		return err
	}

	// Daily at 1 AM: flag active loans past their due date
	_, err = m.cron.AddFunc("0 0 1 * * *", func() {
		m.logJobStart("mark_overdue_loans")
		m.MarkOverdueLoans()
	})
	if err != nil {
		return err
	}

	// Daily at 2 AM: expire stale reservations
	_, err = m.cron.AddFunc("0 0 2 * * *", func() {
		m.logJobStart("expire_reservations")
		m.ExpireReservations()
	})
	if err != nil {
		return err
	}

	// Daily at 3 AM: delete used and expired password reset tokens
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.logJobStart("purge_password_reset_tokens")
		m.PurgePasswordResetTokens()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
	}
	m.db.Create(&cronLog)
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(jobName string, message string) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, message)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": time.Now(),
			"message":      message,
		})
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(jobName string, err error) {
	log.Printf("[CRON] Error in job: %s - %v", jobName, err)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "failed",
			"completed_at": time.Now(),
			"error_msg":    err.Error(),
		})
}
