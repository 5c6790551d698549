// Package router matches extracted events against user preferences and
// decides which delivery channels receive them.
package router

import (
	"context"
	"fmt"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/user"
)

// Message is the rendered notification content per channel.
type Message struct {
	ChatTitle  string `json:"chat_title,omitempty"`
	ChatBody   string `json:"chat_body,omitempty"`
	EmailTitle string `json:"email_title,omitempty"`
	EmailBody  string `json:"email_body,omitempty"`
}

// Composer renders an event into channel messages for one user.
type Composer interface {
	Compose(ctx context.Context, u user.User, event notification.Event) (Message, error)
}

// LabelSource answers display labels for raw address strings.
type LabelSource interface {
	Label(address string) (string, bool)
}

// Decision is the routing outcome for one user and one event. Channels only
// holds channels whose preference allows the event; contact details are the
// dispatcher's concern. Event is the label-enriched snapshot the message was
// composed from.
type Decision struct {
	Event    notification.Event
	Channels map[user.Channel]bool
	Message  Message
}

// Service routes events. A nil decision from Route means the user is not
// notified.
type Service struct {
	composer Composer
	labels   LabelSource
}

// Option customizes the router.
type Option func(*Service)

// WithLabelSource wires the global label table used to annotate impacted
// addresses.
func WithLabelSource(labels LabelSource) Option {
	return func(s *Service) { s.labels = labels }
}

// New builds a router around the given message composer.
func New(composer Composer, opts ...Option) *Service {
	s := &Service{composer: composer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Route decides whether and over which channels the user hears about the
// event. It returns nil when no preference matches or no channel clears its
// amount threshold.
func (s *Service) Route(ctx context.Context, u user.User, event notification.Event) (*Decision, error) {
	pref := matchPreference(u, event)
	if pref == nil {
		return nil, nil
	}

	amount := event.Amount()
	channels := make(map[user.Channel]bool, 2)
	for _, ch := range user.Channels() {
		if pref.Channel(ch).Allows(amount) {
			channels[ch] = true
		}
	}
	if len(channels) == 0 {
		return nil, nil
	}

	enriched := s.enrichLabels(u, event)
	message, err := s.composer.Compose(ctx, u, enriched)
	if err != nil {
		return nil, fmt.Errorf("composing message: %w", err)
	}

	return &Decision{Event: enriched, Channels: channels, Message: message}, nil
}

// matchPreference finds the preference entry gating this event for this
// user. The first impacted address is the subject; only it is matched.
func matchPreference(u user.User, event notification.Event) *user.Preference {
	switch {
	case event.Account != nil:
		return accountPreference(u, event)
	case event.Validator != nil:
		return validatorPreference(u, event)
	case event.Contract != nil:
		return contractPreference(u, event)
	case event.Other != nil:
		return otherPreference(u, event.Other)
	}
	return nil
}

func subjectAccount(u user.User, event notification.Event) (user.Account, bool) {
	subject, ok := event.Subject()
	if !ok || subject.Address.Account == nil {
		return user.Account{}, false
	}
	return u.AccountByIndex(subject.Address.Account.Index)
}

func accountPreference(u user.User, event notification.Event) *user.Preference {
	account, ok := subjectAccount(u, event)
	if !ok || account.Account == nil {
		return nil
	}
	prefs := account.Account

	payload := event.Account
	switch {
	case payload.ModuleDeployed != nil:
		return prefs.ModuleDeployed
	case payload.ContractInitialized != nil:
		return prefs.ContractInitialized
	case payload.Transfer != nil:
		return prefs.AccountTransfer
	case payload.ScheduledTransfer != nil:
		return prefs.TransferredWithSchedule
	case payload.DataRegistered != nil:
		return prefs.DataRegistered
	case payload.ValidatorConfigured != nil:
		return prefs.ValidatorConfigured
	case payload.DelegationConfigured != nil:
		return prefs.DelegationConfigured
	case payload.CommissionChanged != nil:
		// Only delegators of the affected pool hear about its commissions.
		if account.DelegationTarget == nil || *account.DelegationTarget != payload.CommissionChanged.ValidatorID {
			return nil
		}
		return prefs.CommissionChanged
	case payload.PaydayReward != nil:
		return prefs.PaydayAccountReward
	case payload.Token != nil:
		return prefs.TokenEvent
	}
	return nil
}

func validatorPreference(u user.User, event notification.Event) *user.Preference {
	account, ok := subjectAccount(u, event)
	if !ok || account.Validator == nil {
		return nil
	}
	prefs := account.Validator

	payload := event.Validator
	switch {
	case payload.BlockValidated != nil:
		return prefs.BlockValidated
	case payload.ValidatorConfigured != nil:
		return prefs.ValidatorConfigured
	case payload.DelegationConfigured != nil:
		return prefs.DelegationConfigured
	case payload.PaydayPoolReward != nil:
		return prefs.PaydayPoolReward
	case payload.RunningBehind != nil:
		return prefs.RunningBehind
	}
	return nil
}

func contractPreference(u user.User, event notification.Event) *user.Preference {
	subject, ok := event.Subject()
	if !ok || subject.Address.Contract == nil || subject.Role != notification.RoleContract {
		return nil
	}

	contract, ok := u.ContractByIndex(subject.Address.Contract.Index)
	if !ok || contract.Prefs == nil || event.Contract.UpdateIssued == nil {
		return nil
	}

	// The method must be explicitly listed; there is no wildcard.
	return contract.Prefs.ContractUpdateIssued[event.Contract.UpdateIssued.Method]
}

func otherPreference(u user.User, payload *notification.OtherPayload) *user.Preference {
	if u.Other == nil {
		return nil
	}
	prefs := u.Other

	switch {
	case payload.ProtocolUpdate != nil:
		return prefs.ProtocolUpdate
	case payload.AddAnonymityRevoker != nil:
		return prefs.AddAnonymityRevoker
	case payload.AddIdentityProvider != nil:
		return prefs.AddIdentityProvider
	case payload.ModuleDeployed != nil:
		return prefs.ModuleDeployed
	case payload.ContractInitialized != nil:
		return prefs.ContractInitialized
	case payload.LoweredStake != nil:
		return prefs.LoweredStake
	case payload.CommissionChanged != nil:
		return prefs.CommissionChanged
	case payload.Transfer != nil:
		return prefs.AccountTransfer
	case payload.ScheduledTransfer != nil:
		return prefs.TransferredWithSchedule
	case payload.DomainMinted != nil:
		return prefs.DomainMinted
	case payload.AccountCreated != nil:
		return prefs.AccountCreated
	}
	return nil
}

// enrichLabels returns a copy of the event with display labels attached to
// every impacted address: the user's own label wins, then the global label
// table, then the printable address itself.
func (s *Service) enrichLabels(u user.User, event notification.Event) notification.Event {
	if len(event.Impacted) == 0 {
		return event
	}

	impacted := make([]notification.ImpactedAddress, len(event.Impacted))
	copy(impacted, event.Impacted)
	for i := range impacted {
		impacted[i].Label = s.labelFor(u, impacted[i].Address)
	}

	event.Impacted = impacted
	return event
}

func (s *Service) labelFor(u user.User, address chain.Address) string {
	switch {
	case address.Account != nil:
		if account, ok := u.AccountByIndex(address.Account.Index); ok && account.Label != "" {
			return account.Label
		}
		if s.labels != nil {
			if label, ok := s.labels.Label(string(address.Account.ID)); ok {
				return label
			}
		}
		return string(address.Account.ID)

	case address.Contract != nil:
		if contract, ok := u.ContractByIndex(address.Contract.Index); ok && contract.Label != "" {
			return contract.Label
		}
		if s.labels != nil {
			if label, ok := s.labels.Label(address.Contract.String()); ok {
				return label
			}
		}
		return address.Contract.String()
	}
	return ""
}
