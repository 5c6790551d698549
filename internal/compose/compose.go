// Package compose renders notification events into per-channel messages.
// Chat bodies use Telegram-flavored HTML; email bodies are plain text.
package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/router"
	"github.com/evanpardo/ccdwatch/internal/user"
)

// Composer is the default plain-text message renderer.
type Composer struct{}

var _ router.Composer = (*Composer)(nil)

// New builds the default composer.
func New() *Composer {
	return &Composer{}
}

// Compose renders the event for one user.
func (c *Composer) Compose(_ context.Context, _ user.User, event notification.Event) (router.Message, error) {
	title := eventTitle(event)
	body := eventBody(event)

	return router.Message{
		ChatTitle:  title,
		ChatBody:   fmt.Sprintf("<b>%s</b>\n%s", title, body),
		EmailTitle: title,
		EmailBody:  body,
	}, nil
}

func eventTitle(event notification.Event) string {
	switch {
	case event.Account != nil:
		return accountTitle(event.Account)
	case event.Validator != nil:
		return validatorTitle(event.Validator)
	case event.Contract != nil:
		return "Contract updated"
	case event.Other != nil:
		return otherTitle(event.Other)
	}
	return "Chain event"
}

func accountTitle(payload *notification.AccountPayload) string {
	switch {
	case payload.Transfer != nil:
		return fmt.Sprintf("CCD transfer of %s", formatCCD(payload.Transfer.Amount))
	case payload.ScheduledTransfer != nil:
		return fmt.Sprintf("Scheduled transfer of %s", formatCCD(payload.ScheduledTransfer.Total))
	case payload.DataRegistered != nil:
		return "Data registered"
	case payload.ModuleDeployed != nil:
		return "Module deployed"
	case payload.ContractInitialized != nil:
		return "Contract initialized"
	case payload.ValidatorConfigured != nil:
		return "Validator configuration changed"
	case payload.DelegationConfigured != nil:
		return "Delegation changed"
	case payload.CommissionChanged != nil:
		return fmt.Sprintf("Validator %d changed its commission rates", payload.CommissionChanged.ValidatorID)
	case payload.PaydayReward != nil:
		return "Payday account reward"
	case payload.Token != nil:
		return tokenTitle(payload.Token)
	}
	return "Account event"
}

func tokenTitle(token *notification.TokenEvent) string {
	switch token.Kind {
	case notification.TokenMint:
		return fmt.Sprintf("Token minted: %s", token.TokenName)
	case notification.TokenBurn:
		return fmt.Sprintf("Token burned: %s", token.TokenName)
	default:
		return fmt.Sprintf("Token transfer: %s", token.TokenName)
	}
}

func validatorTitle(payload *notification.ValidatorPayload) string {
	switch {
	case payload.BlockValidated != nil:
		return "Block validated"
	case payload.ValidatorConfigured != nil:
		return "Validator configuration changed"
	case payload.DelegationConfigured != nil:
		return "Delegation to your pool changed"
	case payload.PaydayPoolReward != nil:
		return "Payday pool reward"
	case payload.RunningBehind != nil:
		return fmt.Sprintf("Validator node %s is running behind", payload.RunningBehind.NodeName)
	}
	return "Validator event"
}

func otherTitle(payload *notification.OtherPayload) string {
	switch {
	case payload.ProtocolUpdate != nil:
		return "Protocol update"
	case payload.AddAnonymityRevoker != nil:
		return "Anonymity revoker added"
	case payload.AddIdentityProvider != nil:
		return "Identity provider added"
	case payload.ModuleDeployed != nil:
		return "Module deployed"
	case payload.ContractInitialized != nil:
		return "Contract initialized"
	case payload.LoweredStake != nil:
		if payload.LoweredStake.Removed {
			return fmt.Sprintf("Validator removed, %s unstaked", formatCCD(payload.LoweredStake.UnstakedAmount))
		}
		return fmt.Sprintf("Validator lowered stake by %s (%.1f%%)",
			formatCCD(payload.LoweredStake.UnstakedAmount),
			payload.LoweredStake.PercentageUnstaked*100,
		)
	case payload.CommissionChanged != nil:
		return fmt.Sprintf("Validator %d changed its commission rates", payload.CommissionChanged.ValidatorID)
	case payload.Transfer != nil:
		return fmt.Sprintf("CCD transfer of %s", formatCCD(payload.Transfer.Amount))
	case payload.ScheduledTransfer != nil:
		return fmt.Sprintf("Scheduled transfer of %s", formatCCD(payload.ScheduledTransfer.Total))
	case payload.DomainMinted != nil:
		return fmt.Sprintf("Domain minted: %s", payload.DomainMinted.Name)
	case payload.AccountCreated != nil:
		return "Account created"
	case payload.ValidatorConfigured != nil:
		return "Validator configuration changed"
	}
	return "Chain event"
}

func eventBody(event notification.Event) string {
	var b strings.Builder

	for _, impacted := range event.Impacted {
		label := impacted.Label
		if label == "" {
			label = printableAddress(impacted.Address)
		}
		fmt.Fprintf(&b, "%s: %s\n", impacted.Role, label)
	}

	if event.TxHash != "" {
		fmt.Fprintf(&b, "Transaction: %s\n", event.TxHash)
	}
	fmt.Fprintf(&b, "Block %d (%s) at %s", event.BlockHeight, event.BlockHash, event.SlotTime.Format("2006-01-02 15:04:05 MST"))

	return b.String()
}

func printableAddress(address chain.Address) string {
	switch {
	case address.Account != nil:
		return string(address.Account.ID)
	case address.Contract != nil:
		return address.Contract.String()
	}
	return ""
}

// formatCCD renders a microCCD amount as a decimal CCD string.
func formatCCD(amount chain.MicroCCD) string {
	return fmt.Sprintf("%.6f CCD", float64(amount)/1_000_000)
}
