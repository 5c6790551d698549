// Package dispatcher delivers routed notifications over their channels and
// keeps a best-effort audit trail of what went out.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/pkg/logger"
	"github.com/evanpardo/ccdwatch/internal/router"
	"github.com/evanpardo/ccdwatch/internal/user"
)

// ChatSender delivers a chat message to one chat id.
type ChatSender interface {
	SendMessage(ctx context.Context, chatID int64, title, body string) error
}

// EmailSender delivers an email to one recipient.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Audit is one delivery record: the label-enriched event snapshot, the
// composed message, and which channels actually got it. Storage keys it by
// block hash and user token, so re-deliveries overwrite rather than
// accumulate.
type Audit struct {
	BlockHash   string             `json:"block_hash"`
	BlockHeight uint64             `json:"block_height"`
	UserToken   string             `json:"user_token"`
	Family      string             `json:"family"`
	Event       notification.Event `json:"event"`
	Message     router.Message     `json:"message"`
	Channels    []user.Channel     `json:"channels"`
	NotifiedAt  time.Time          `json:"notified_at"`
}

// Key is the storage identifier of the record.
func (a Audit) Key() string {
	return a.BlockHash + "-" + a.UserToken
}

// AuditStorage persists delivery records.
type AuditStorage interface {
	SaveAudit(ctx context.Context, audit Audit) error
}

// Service sends decided notifications. Channel failures are isolated: a
// broken chat delivery never blocks the email one.
type Service struct {
	chat  ChatSender
	email EmailSender
	audit AuditStorage
}

// Option customizes the dispatcher.
type Option func(*Service)

// WithAuditStorage enables the delivery audit trail.
func WithAuditStorage(storage AuditStorage) Option {
	return func(s *Service) { s.audit = storage }
}

// New builds a dispatcher. A nil sender disables that channel.
func New(chat ChatSender, email EmailSender, opts ...Option) *Service {
	s := &Service{chat: chat, email: email}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver sends the decision's message over every eligible channel the user
// has contact details for. It returns the channels that succeeded plus the
// joined failures; partial delivery is normal.
func (s *Service) Deliver(ctx context.Context, u user.User, decision router.Decision) ([]user.Channel, error) {
	var (
		delivered []user.Channel
		errs      []error
	)

	if decision.Channels[user.ChannelChat] && u.ChatID != 0 && s.chat != nil {
		if err := s.chat.SendMessage(ctx, u.ChatID, decision.Message.ChatTitle, decision.Message.ChatBody); err != nil {
			logger.Error(ctx, "chat delivery failed", "user_token", u.Token, "error", err)
			errs = append(errs, fmt.Errorf("chat: %w", err))
		} else {
			delivered = append(delivered, user.ChannelChat)
		}
	}

	if decision.Channels[user.ChannelEmail] && u.Email != "" && s.email != nil {
		if err := s.email.SendEmail(ctx, u.Email, decision.Message.EmailTitle, decision.Message.EmailBody); err != nil {
			logger.Error(ctx, "email delivery failed", "user_token", u.Token, "error", err)
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			delivered = append(delivered, user.ChannelEmail)
		}
	}

	return delivered, errors.Join(errs...)
}

// RecordAudit upserts the delivery record for one user and one routed
// decision. It is best effort: storage failures are logged and swallowed.
func (s *Service) RecordAudit(ctx context.Context, u user.User, decision router.Decision, delivered []user.Channel) {
	if s.audit == nil || len(delivered) == 0 {
		return
	}

	event := decision.Event
	audit := Audit{
		BlockHash:   event.BlockHash,
		BlockHeight: event.BlockHeight,
		UserToken:   u.Token,
		Family:      string(event.Family()),
		Event:       event,
		Message:     decision.Message,
		Channels:    delivered,
		NotifiedAt:  time.Now().UTC(),
	}
	if err := s.audit.SaveAudit(ctx, audit); err != nil {
		logger.Warn(ctx, "saving notification audit failed",
			"block_hash", event.BlockHash,
			"user_token", u.Token,
			"error", err,
		)
	}
}
