package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// QuotationExpiryJobName is the name of the quotation expiry job
const QuotationExpiryJobName = "quotation_expiry"

// QuotationExpirer expires pending quotations whose validity has ended
type QuotationExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

// QuotationExpiryJob moves overdue pending quotations to expired
type QuotationExpiryJob struct {
	expirer QuotationExpirer
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewQuotationExpiryJob creates the job. timeout bounds a single run.
func NewQuotationExpiryJob(expirer QuotationExpirer, logger *zap.Logger, timeout time.Duration) *QuotationExpiryJob {
	return &QuotationExpiryJob{
		expirer: expirer,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// Run executes one expiry pass. It is called by the scheduler.
func (j *QuotationExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.RunWithContext(ctx)
}

// RunWithContext executes one expiry pass and returns the number of expired quotations
func (j *QuotationExpiryJob) RunWithContext(ctx context.Context) int {
	start := time.Now()

	expired, err := j.expirer.ExpireOverdue(ctx, j.now())
	if err != nil {
		j.logger.Error("quotation expiry job failed",
			zap.Int("expired", expired),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return expired
	}

	if expired > 0 {
		j.logger.Info("expired overdue quotations",
			zap.Int("expired", expired),
			zap.Duration("duration", time.Since(start)))
	}
	return expired
}

// RegisterQuotationExpiryJob registers the expiry job with the scheduler
func RegisterQuotationExpiryJob(scheduler *Scheduler, expirer QuotationExpirer, logger *zap.Logger, cronExpr string) error {
	job := NewQuotationExpiryJob(expirer, logger, 5*time.Minute)
	return scheduler.AddJob(QuotationExpiryJobName, cronExpr, job.Run)
}
