// Package poller walks the active mailboxes on a fixed interval and feeds
// candidate emails into the intake pipeline. One slow or broken account never
// blocks the others; its failure is recorded as a failed email_detection log
// and the loop moves on.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/common"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/mail"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/pipeline"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/repository"
)

type Poller struct {
	cfg       common.PollerConfig
	accounts  repository.EmailAccountRepository
	logs      repository.ProcessingLogRepository
	providers *mail.Providers
	intake    *pipeline.AttachmentProcessor
	logger    *slog.Logger
}

func New(cfg common.PollerConfig, accounts repository.EmailAccountRepository, logs repository.ProcessingLogRepository, providers *mail.Providers, intake *pipeline.AttachmentProcessor, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:       cfg,
		accounts:  accounts,
		logs:      logs,
		providers: providers,
		intake:    intake,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled. The first pass starts after a short
// initial delay so the process finishes wiring before network calls begin.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller.start", "interval", p.cfg.Interval, "window", p.cfg.Window)

	select {
	case <-ctx.Done():
		return
	case <-time.After(p.cfg.InitialDelay):
	}
	p.PollOnce(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller.stop")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs a single pass over all active accounts, sequentially.
func (p *Poller) PollOnce(ctx context.Context) {
	accounts, err := p.accounts.ListActiveEmailAccounts(ctx)
	if err != nil {
		p.logger.Error("poller.list_accounts_failed", "error", err)
		return
	}
	p.logger.Debug("poller.pass", "accounts", len(accounts))

	for i := range accounts {
		acct := &accounts[i]
		if acct.ReconnectRequired {
			p.logger.Debug("poller.account_skipped", "email", acct.Email, "reason", "reconnect required")
			continue
		}
		if err := p.pollAccount(ctx, acct); err != nil {
			p.recordAccountFailure(ctx, acct, err)
		}
		if err := p.accounts.UpdateLastChecked(ctx, acct.ID, time.Now()); err != nil {
			p.logger.Error("poller.update_last_checked_failed", "email", acct.Email, "error", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (p *Poller) pollAccount(ctx context.Context, acct *entity.EmailAccount) error {
	provider, err := p.providers.ForProvider(acct.Provider)
	if err != nil {
		return err
	}

	messages, err := provider.FetchCandidates(ctx, acct, p.cfg.Window, p.cfg.MaxMessages)
	if errors.Is(err, mail.ErrUnauthorized) {
		// Stale access token: refresh once and retry.
		if refreshErr := p.refreshAccount(ctx, acct); refreshErr != nil {
			return refreshErr
		}
		messages, err = provider.FetchCandidates(ctx, acct, p.cfg.Window, p.cfg.MaxMessages)
	}
	if errors.Is(err, mail.ErrPermission) {
		if markErr := p.accounts.SetReconnectRequired(ctx, acct.ID); markErr != nil {
			p.logger.Error("poller.mark_reconnect_failed", "email", acct.Email, "error", markErr)
		}
		return fmt.Errorf("account %s: authorization revoked, reconnect required", acct.Email)
	}
	if err != nil {
		return fmt.Errorf("fetch %s: %w", acct.Email, err)
	}

	p.logger.Info("poller.account_checked", "email", acct.Email, "provider", acct.Provider, "candidates", len(messages))
	for i := range messages {
		msg := &messages[i]
		created, err := p.intake.HandleEmail(ctx, acct, msg)
		if err != nil {
			p.logger.Error("poller.handle_email_failed", "email", acct.Email, "subject", msg.Subject, "error", err)
			continue
		}
		if err := provider.MarkProcessed(ctx, acct, msg); err != nil {
			p.logger.Warn("poller.mark_processed_failed", "email", acct.Email, "subject", msg.Subject, "error", err)
		}
		if created > 0 {
			p.logger.Info("poller.email_processed", "email", acct.Email, "subject", msg.Subject, "orders", created)
		}
	}
	return nil
}

func (p *Poller) refreshAccount(ctx context.Context, acct *entity.EmailAccount) error {
	if err := p.providers.Refresh(ctx, acct); err != nil {
		if markErr := p.accounts.SetReconnectRequired(ctx, acct.ID); markErr != nil {
			p.logger.Error("poller.mark_reconnect_failed", "email", acct.Email, "error", markErr)
		}
		return fmt.Errorf("refresh %s: %w", acct.Email, err)
	}
	if err := p.accounts.UpdateTokens(ctx, acct.ID, acct.AccessToken, acct.RefreshToken); err != nil {
		return fmt.Errorf("persist tokens for %s: %w", acct.Email, err)
	}
	return nil
}

// recordAccountFailure writes a failed email_detection entry so account-level
// problems are visible in the same log stream as document failures.
func (p *Poller) recordAccountFailure(ctx context.Context, acct *entity.EmailAccount, cause error) {
	p.logger.Error("poller.account_failed", "email", acct.Email, "error", cause)

	now := time.Now()
	msg := cause.Error()
	details, _ := json.Marshal(map[string]any{"email": acct.Email, "provider": acct.Provider})
	entry := &entity.ProcessingLog{
		ID:           uuid.New(),
		TenantID:     acct.TenantID,
		Stage:        constants.StageEmailDetection,
		Status:       constants.StageFailed,
		StartTime:    now,
		EndTime:      &now,
		Details:      details,
		ErrorMessage: &msg,
	}
	if err := p.logs.CreateProcessingLog(ctx, entry); err != nil {
		p.logger.Error("poller.record_failure_failed", "email", acct.Email, "error", err)
	}
}
