package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/biblio-app/biblio-api/model"
	"github.com/biblio-app/biblio-api/utils/auth"
)

const jobTimeout = 5 * time.Minute

// PurgeExpiredRefreshTokens removes refresh tokens past their expiry.
// Expired tokens are also deleted on use; this catches the ones whose
// owners never came back.
func (m *CronManager) PurgeExpiredRefreshTokens() {
	const jobName = "purge_expired_refresh_tokens"

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result := m.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.RefreshToken{})
	if result.Error != nil {
		m.logJobError(jobName, result.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("deleted %d expired refresh tokens", result.RowsAffected))
}

// PruneTokenBlacklist hard-deletes blacklist rows whose underlying bearer
// tokens have expired. No lookup can ever match them again.
func (m *CronManager) PruneTokenBlacklist() {
	const jobName = "prune_token_blacklist"

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	pruned, err := auth.NewBlacklistService(m.db).CleanupExpired(ctx)
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("pruned %d blacklist entries", pruned))
}

// MarkOverdueLoans flags active loans whose due date has passed
func (m *CronManager) MarkOverdueLoans() {
	const jobName = "mark_overdue_loans"

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result := m.db.WithContext(ctx).Model(&model.Loan{}).
		Where("status = ? AND due_date < ?", model.LoanActive, time.Now()).
		Update("status", model.LoanOverdue)
	if result.Error != nil {
		m.logJobError(jobName, result.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("marked %d loans overdue", result.RowsAffected))
}

// ExpireReservations closes pending reservations past their window
func (m *CronManager) ExpireReservations() {
	const jobName = "expire_reservations"

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result := m.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("status IN ? AND expiration_date < ?",
			[]string{model.ReservationPending, model.ReservationOnHold}, time.Now()).
		Update("status", model.ReservationExpired)
	if result.Error != nil {
		m.logJobError(jobName, result.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("expired %d reservations", result.RowsAffected))
}

// PurgePasswordResetTokens removes reset tokens that were used or have
// expired.
func (m *CronManager) PurgePasswordResetTokens() {
	const jobName = "purge_password_reset_tokens"

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result := m.db.WithContext(ctx).Unscoped().
		Where("used_at IS NOT NULL OR expires_at < ?", time.Now()).
		Delete(&model.PasswordResetToken{})
	if result.Error != nil {
		m.logJobError(jobName, result.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("purged %d password reset tokens", result.RowsAffected))
}
