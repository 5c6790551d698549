package extractor

import (
	"context"
	"errors"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/pkg/logger"
)

// loggedEventPass covers CIS-2 transfer, mint and burn log entries. A
// transfer produces two events, receiver subject first; mints on the domain
// name service contract additionally produce a domain minted event when the
// name can be fetched.
func (s *Service) loggedEventPass(ctx context.Context, block chain.Block, bctx notification.BlockContext) ([]notification.Event, error) {
	var events []notification.Event

	for _, logged := range block.LoggedEvents {
		if logged.Contract == s.domainContract && logged.Tag == chain.TagTokenMint {
			if event, ok := s.domainMintedEvent(ctx, bctx, logged); ok {
				events = append(events, event)
			}
		}

		token := &notification.TokenEvent{
			TokenAddress: logged.TokenAddress(),
			TokenName:    s.tokenName(ctx, logged.TokenAddress()),
			From:         logged.From,
			To:           logged.To,
			Amount:       logged.Amount,
		}

		switch logged.Tag {
		case chain.TagTokenTransfer:
			token.Kind = notification.TokenTransfer

			from, err := s.resolveImpacted(ctx, logged.From, notification.RoleSender)
			if err != nil {
				return events, err
			}
			to, err := s.resolveImpacted(ctx, logged.To, notification.RoleReceiver)
			if err != nil {
				return events, err
			}

			payload := notification.AccountPayload{Token: token}
			receiverEvent, err := notification.NewAccountEvent(bctx, logged.TxHash, payload,
				[]notification.ImpactedAddress{to, from})
			if err != nil {
				return events, err
			}
			senderEvent, err := notification.NewAccountEvent(bctx, logged.TxHash, payload,
				[]notification.ImpactedAddress{from, to})
			if err != nil {
				return events, err
			}
			events = append(events, receiverEvent, senderEvent)

		case chain.TagTokenMint:
			token.Kind = notification.TokenMint

			to, err := s.resolveImpacted(ctx, logged.To, notification.RoleAccount)
			if err != nil {
				return events, err
			}
			event, err := notification.NewAccountEvent(bctx, logged.TxHash, notification.AccountPayload{Token: token},
				[]notification.ImpactedAddress{to, notification.ImpactedContract(logged.Contract)})
			if err != nil {
				return events, err
			}
			events = append(events, event)

		case chain.TagTokenBurn:
			token.Kind = notification.TokenBurn

			from, err := s.resolveImpacted(ctx, logged.From, notification.RoleAccount)
			if err != nil {
				return events, err
			}
			event, err := notification.NewAccountEvent(bctx, logged.TxHash, notification.AccountPayload{Token: token},
				[]notification.ImpactedAddress{from, notification.ImpactedContract(logged.Contract)})
			if err != nil {
				return events, err
			}
			events = append(events, event)
		}
	}

	return events, nil
}

// domainMintedEvent resolves the minted domain name from the token's
// off-chain metadata. Fetch failures skip the event; the regular mint event
// is still produced.
func (s *Service) domainMintedEvent(ctx context.Context, bctx notification.BlockContext, logged chain.LoggedEvent) (notification.Event, bool) {
	if s.metadata == nil {
		return notification.Event{}, false
	}

	name, err := s.metadata.TokenName(ctx, logged.Contract, logged.TokenID)
	if err != nil || name == "" {
		if err != nil {
			logger.Warn(ctx, "fetching domain name metadata failed",
				"token_address", logged.TokenAddress(),
				"error", err,
			)
		}
		return notification.Event{}, false
	}

	to, err := s.resolveImpacted(ctx, logged.To, notification.RoleAccount)
	if err != nil {
		logger.Warn(ctx, "resolving domain mint receiver failed",
			"token_address", logged.TokenAddress(),
			"error", err,
		)
		return notification.Event{}, false
	}

	event, err := notification.NewOtherEvent(bctx, logged.TxHash, notification.OtherPayload{
		DomainMinted: &notification.DomainMinted{
			Name:         name,
			TokenAddress: logged.TokenAddress(),
		},
	}, []notification.ImpactedAddress{to, notification.ImpactedContract(logged.Contract)})
	if err != nil {
		return notification.Event{}, false
	}
	return event, true
}

func (s *Service) tokenName(ctx context.Context, tokenAddress string) string {
	if s.tokenNames == nil {
		return tokenNamePlaceholder
	}

	name, err := s.tokenNames.TokenName(ctx, tokenAddress)
	if err != nil {
		if !errors.Is(err, ErrTokenNameNotFound) {
			logger.Warn(ctx, "token name lookup failed", "token_address", tokenAddress, "error", err)
		}
		return tokenNamePlaceholder
	}
	if name == "" {
		return tokenNamePlaceholder
	}
	return name
}

func (s *Service) resolveImpacted(ctx context.Context, raw string, role notification.Role) (notification.ImpactedAddress, error) {
	address, err := s.resolver.ResolveRaw(ctx, raw)
	if err != nil {
		return notification.ImpactedAddress{}, err
	}
	return notification.ImpactedAddress{Address: address, Role: role}, nil
}
