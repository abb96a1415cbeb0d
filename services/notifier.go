package services

import (
	"context"
	"fmt"
	"html"
	"sync"

	"report-ledger-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mailer delivers an HTML message.
type Mailer interface {
	Send(to []string, subject, html string) error
}

// ReceiptNotifier e-mails the submitter a receipt once a submit has
// committed. Delivery is best-effort: failures are logged and never reach
// the caller.
type ReceiptNotifier struct {
	db     *gorm.DB
	mailer Mailer
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewReceiptNotifier(db *gorm.DB, mailer Mailer, logger *zap.Logger) *ReceiptNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptNotifier{db: db, mailer: mailer, logger: logger}
}

// persistentContext keeps request values but drops the request's cancellation,
// so a receipt is still sent after the response has been written.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}

func (n *ReceiptNotifier) SubmissionCommitted(ctx context.Context, module models.Module, submission models.Submission, action models.SubmissionAction) {
	bg := persistentContext(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.send(bg, module, submission, action)
	}()
}

func (n *ReceiptNotifier) send(ctx context.Context, module models.Module, submission models.Submission, action models.SubmissionAction) {
	log := n.logger.With(
		zap.String("module", module.Key),
		zap.String("period", submission.Period),
		zap.Int("user_id", submission.SubmittedBy),
	)

	var user models.User
	if err := n.db.WithContext(ctx).
		Select("user_id", "username", "email").
		Where("user_id = ?", submission.SubmittedBy).
		Take(&user).Error; err != nil {
		log.Warn("submission receipt skipped: submitter lookup failed", zap.Error(err))
		return
	}
	if user.Email == "" {
		return
	}

	subject := fmt.Sprintf("[%s] %s report %sd for %s", module.Key, module.Name, action, submission.Period)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your %s report for <strong>%s</strong> was recorded (%s, revision %d).</p>",
		html.EscapeString(user.Username),
		html.EscapeString(module.Name),
		html.EscapeString(submission.Period),
		action,
		submission.SubmissionCount,
	)

	if err := n.mailer.Send([]string{user.Email}, subject, body); err != nil {
		log.Warn("submission receipt not sent", zap.Error(err))
		return
	}
	log.Debug("submission receipt sent", zap.String("email", user.Email))
}

// Wait blocks until every in-flight receipt has been handled.
func (n *ReceiptNotifier) Wait() {
	n.wg.Wait()
}
