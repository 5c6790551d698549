package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/user"
)

type composerMock struct {
	composeFunc func(ctx context.Context, u user.User, event notification.Event) (Message, error)
}

func (m *composerMock) Compose(ctx context.Context, u user.User, event notification.Event) (Message, error) {
	if m.composeFunc == nil {
		return Message{ChatTitle: "t", ChatBody: "b", EmailTitle: "t", EmailBody: "b"}, nil
	}
	return m.composeFunc(ctx, u, event)
}

type labelSourceMock struct {
	labels map[string]string
}

func (m *labelSourceMock) Label(address string) (string, bool) {
	label, ok := m.labels[address]
	return label, ok
}

func limit(v chain.MicroCCD) *chain.MicroCCD { return &v }

func enabled() *user.Preference {
	return &user.Preference{
		Chat:  &user.ChannelPreference{Enabled: true},
		Email: &user.ChannelPreference{Enabled: true},
	}
}

func blockContext() notification.BlockContext {
	return notification.BlockContext{
		Height:   1000,
		Hash:     "hash-1000",
		SlotTime: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
}

func transferEvent(t *testing.T, amount chain.MicroCCD) notification.Event {
	t.Helper()
	event, err := notification.NewAccountEvent(blockContext(), "tx-1", notification.AccountPayload{
		Transfer: &notification.TransferInfo{Amount: amount, Sender: "acct1", Receiver: "acct2"},
	}, []notification.ImpactedAddress{
		notification.ImpactedAccount(notification.RoleReceiver, chain.AccountRef{ID: "acct2", Index: 2}),
		notification.ImpactedAccount(notification.RoleSender, chain.AccountRef{ID: "acct1", Index: 1}),
	})
	require.NoError(t, err)
	return event
}

func TestRouteAccountFamily(t *testing.T) {
	watcher := user.User{
		Token: "tok-1",
		Accounts: map[string]user.Account{
			"2": {Index: 2, Address: "acct2", Account: &user.AccountPreferences{
				AccountTransfer: enabled(),
			}},
		},
	}

	t.Run("routes when the subject is watched with a matching preference", func(t *testing.T) {
		svc := New(&composerMock{})

		decision, err := svc.Route(t.Context(), watcher, transferEvent(t, 100))
		require.NoError(t, err)
		require.NotNil(t, decision)
		assert.True(t, decision.Channels[user.ChannelChat])
		assert.True(t, decision.Channels[user.ChannelEmail])
	})

	t.Run("does not route when the subject account is not watched", func(t *testing.T) {
		other := user.User{
			Token: "tok-2",
			Accounts: map[string]user.Account{
				"1": {Index: 1, Address: "acct1", Account: &user.AccountPreferences{AccountTransfer: enabled()}},
			},
		}
		// Subject is account 2; user only watches account 1.
		decision, err := New(&composerMock{}).Route(t.Context(), other, transferEvent(t, 100))
		require.NoError(t, err)
		assert.Nil(t, decision)
	})

	t.Run("does not route when the topic preference is unset", func(t *testing.T) {
		noPref := user.User{
			Token: "tok-3",
			Accounts: map[string]user.Account{
				"2": {Index: 2, Address: "acct2", Account: &user.AccountPreferences{}},
			},
		}
		decision, err := New(&composerMock{}).Route(t.Context(), noPref, transferEvent(t, 100))
		require.NoError(t, err)
		assert.Nil(t, decision)
	})

	t.Run("propagates composer failures", func(t *testing.T) {
		errCompose := errors.New("template broken")
		svc := New(&composerMock{
			composeFunc: func(context.Context, user.User, notification.Event) (Message, error) {
				return Message{}, errCompose
			},
		})

		_, err := svc.Route(t.Context(), watcher, transferEvent(t, 100))
		assert.ErrorIs(t, err, errCompose)
	})
}

func TestRouteAmountThreshold(t *testing.T) {
	withLimit := user.User{
		Token: "tok-1",
		Accounts: map[string]user.Account{
			"2": {Index: 2, Address: "acct2", Account: &user.AccountPreferences{
				AccountTransfer: &user.Preference{
					Chat:  &user.ChannelPreference{Enabled: true, Limit: limit(1_000)},
					Email: &user.ChannelPreference{Enabled: true},
				},
			}},
		},
	}

	t.Run("an amount equal to the limit does not clear it", func(t *testing.T) {
		decision, err := New(&composerMock{}).Route(t.Context(), withLimit, transferEvent(t, 1_000))
		require.NoError(t, err)
		require.NotNil(t, decision)
		assert.False(t, decision.Channels[user.ChannelChat])
		assert.True(t, decision.Channels[user.ChannelEmail])
	})

	t.Run("an amount above the limit clears it", func(t *testing.T) {
		decision, err := New(&composerMock{}).Route(t.Context(), withLimit, transferEvent(t, 1_001))
		require.NoError(t, err)
		require.NotNil(t, decision)
		assert.True(t, decision.Channels[user.ChannelChat])
	})

	t.Run("no eligible channel means no decision", func(t *testing.T) {
		bothLimited := user.User{
			Token: "tok-1",
			Accounts: map[string]user.Account{
				"2": {Index: 2, Address: "acct2", Account: &user.AccountPreferences{
					AccountTransfer: &user.Preference{
						Chat:  &user.ChannelPreference{Enabled: true, Limit: limit(1_000_000)},
						Email: &user.ChannelPreference{Enabled: false},
					},
				}},
			},
		}
		decision, err := New(&composerMock{}).Route(t.Context(), bothLimited, transferEvent(t, 100))
		require.NoError(t, err)
		assert.Nil(t, decision)
	})

	t.Run("a limit does not gate topics without an amount", func(t *testing.T) {
		withTokenLimit := user.User{
			Token: "tok-1",
			Accounts: map[string]user.Account{
				"2": {Index: 2, Address: "acct2", Account: &user.AccountPreferences{
					TokenEvent: &user.Preference{
						Chat: &user.ChannelPreference{Enabled: true, Limit: limit(10)},
					},
				}},
			},
		}
		event, err := notification.NewAccountEvent(blockContext(), "tx-9", notification.AccountPayload{
			Token: &notification.TokenEvent{Kind: notification.TokenMint},
		}, []notification.ImpactedAddress{
			notification.ImpactedAccount(notification.RoleAccount, chain.AccountRef{ID: "acct2", Index: 2}),
		})
		require.NoError(t, err)

		decision, err := New(&composerMock{}).Route(t.Context(), withTokenLimit, event)
		require.NoError(t, err)
		require.NotNil(t, decision)
		assert.True(t, decision.Channels[user.ChannelChat])
	})

	t.Run("routing is idempotent", func(t *testing.T) {
		svc := New(&composerMock{})
		event := transferEvent(t, 2_000)

		first, err := svc.Route(t.Context(), withLimit, event)
		require.NoError(t, err)
		second, err := svc.Route(t.Context(), withLimit, event)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestRouteCommissionChanged(t *testing.T) {
	target := chain.AccountIndex(5)

	commissionEvent := func(t *testing.T, validatorID chain.AccountIndex) notification.Event {
		t.Helper()
		event, err := notification.NewAccountEvent(blockContext(), "tx-1", notification.AccountPayload{
			CommissionChanged: &notification.CommissionChanged{ValidatorID: validatorID, Delegators: []chain.AccountIndex{2}},
		}, []notification.ImpactedAddress{
			notification.ImpactedAccount(notification.RoleDelegator, chain.AccountRef{ID: "acct2", Index: 2}),
			notification.ImpactedAccount(notification.RoleValidator, chain.AccountRef{ID: "acct5", Index: 5}),
		})
		require.NoError(t, err)
		return event
	}

	delegator := user.User{
		Token: "tok-1",
		Accounts: map[string]user.Account{
			"2": {Index: 2, Address: "acct2", DelegationTarget: &target, Account: &user.AccountPreferences{
				CommissionChanged: enabled(),
			}},
		},
	}

	t.Run("routes when the user delegates to the affected pool", func(t *testing.T) {
		decision, err := New(&composerMock{}).Route(t.Context(), delegator, commissionEvent(t, 5))
		require.NoError(t, err)
		assert.NotNil(t, decision)
	})

	t.Run("does not route when the user delegates elsewhere", func(t *testing.T) {
		decision, err := New(&composerMock{}).Route(t.Context(), delegator, commissionEvent(t, 9))
		require.NoError(t, err)
		assert.Nil(t, decision)
	})
}

func TestRouteValidatorFamily(t *testing.T) {
	event, err := notification.NewValidatorEvent(blockContext(), "", notification.ValidatorPayload{
		BlockValidated: &notification.BlockValidatedInfo{},
	}, []notification.ImpactedAddress{
		notification.ImpactedAccount(notification.RoleValidator, chain.AccountRef{ID: "acct7", Index: 7}),
	})
	require.NoError(t, err)

	t.Run("routes via the validator preference table", func(t *testing.T) {
		watcher := user.User{
			Token: "tok-1",
			Accounts: map[string]user.Account{
				"7": {Index: 7, Address: "acct7", Validator: &user.ValidatorPreferences{BlockValidated: enabled()}},
			},
		}
		decision, err := New(&composerMock{}).Route(t.Context(), watcher, event)
		require.NoError(t, err)
		assert.NotNil(t, decision)
	})

	t.Run("account preferences do not leak into validator events", func(t *testing.T) {
		watcher := user.User{
			Token: "tok-1",
			Accounts: map[string]user.Account{
				"7": {Index: 7, Address: "acct7", Account: &user.AccountPreferences{AccountTransfer: enabled()}},
			},
		}
		decision, err := New(&composerMock{}).Route(t.Context(), watcher, event)
		require.NoError(t, err)
		assert.Nil(t, decision)
	})
}

func TestRouteContractFamily(t *testing.T) {
	contractEvent := func(t *testing.T, method string) notification.Event {
		t.Helper()
		addr := chain.ContractAddress{Index: 100}
		event, err := notification.NewContractEvent(blockContext(), "tx-1", notification.ContractPayload{
			UpdateIssued: &notification.ContractUpdateInfo{Address: addr, Method: method},
		}, []notification.ImpactedAddress{notification.ImpactedContract(addr)})
		require.NoError(t, err)
		return event
	}

	watcher := user.User{
		Token: "tok-1",
		Contracts: map[string]user.Contract{
			"100": {Prefs: &user.ContractPreferences{
				ContractUpdateIssued: map[string]*user.Preference{"buy": enabled()},
			}},
		},
	}

	t.Run("routes an explicitly listed method", func(t *testing.T) {
		decision, err := New(&composerMock{}).Route(t.Context(), watcher, contractEvent(t, "buy"))
		require.NoError(t, err)
		assert.NotNil(t, decision)
	})

	t.Run("an unlisted method is not routed", func(t *testing.T) {
		decision, err := New(&composerMock{}).Route(t.Context(), watcher, contractEvent(t, "sell"))
		require.NoError(t, err)
		assert.Nil(t, decision)
	})
}

func TestRouteOtherFamily(t *testing.T) {
	t.Run("routes chain-wide topics through the other preference table", func(t *testing.T) {
		event, err := notification.NewOtherEvent(blockContext(), "tx-1", notification.OtherPayload{
			ProtocolUpdate: &chain.ProtocolUpdate{Message: "P8"},
		}, nil)
		require.NoError(t, err)

		watcher := user.User{
			Token: "tok-1",
			Other: &user.OtherPreferences{ProtocolUpdate: enabled()},
		}
		decision, err := New(&composerMock{}).Route(t.Context(), watcher, event)
		require.NoError(t, err)
		assert.NotNil(t, decision)
	})

	t.Run("lowered stake uses the unstaked amount for thresholds", func(t *testing.T) {
		event, err := notification.NewOtherEvent(blockContext(), "tx-1", notification.OtherPayload{
			LoweredStake: &notification.LoweredStake{UnstakedAmount: 500},
		}, nil)
		require.NoError(t, err)

		watcher := user.User{
			Token: "tok-1",
			Other: &user.OtherPreferences{LoweredStake: &user.Preference{
				Chat: &user.ChannelPreference{Enabled: true, Limit: limit(400)},
			}},
		}
		decision, err := New(&composerMock{}).Route(t.Context(), watcher, event)
		require.NoError(t, err)
		require.NotNil(t, decision)
		assert.True(t, decision.Channels[user.ChannelChat])
	})

	t.Run("no other preferences means no routing", func(t *testing.T) {
		event, err := notification.NewOtherEvent(blockContext(), "tx-1", notification.OtherPayload{
			ProtocolUpdate: &chain.ProtocolUpdate{Message: "P8"},
		}, nil)
		require.NoError(t, err)

		decision, err := New(&composerMock{}).Route(t.Context(), user.User{Token: "tok-1"}, event)
		require.NoError(t, err)
		assert.Nil(t, decision)
	})
}

func TestLabelEnrichment(t *testing.T) {
	watcher := user.User{
		Token: "tok-1",
		Accounts: map[string]user.Account{
			"2": {Index: 2, Address: "acct2", Label: "savings", Account: &user.AccountPreferences{
				AccountTransfer: enabled(),
			}},
		},
	}

	t.Run("the user's own label wins over the global table", func(t *testing.T) {
		var composed notification.Event
		composer := &composerMock{
			composeFunc: func(_ context.Context, _ user.User, event notification.Event) (Message, error) {
				composed = event
				return Message{}, nil
			},
		}
		svc := New(composer, WithLabelSource(&labelSourceMock{labels: map[string]string{
			"acct1": "exchange hot wallet",
			"acct2": "ignored",
		}}))

		_, err := svc.Route(t.Context(), watcher, transferEvent(t, 100))
		require.NoError(t, err)

		require.Len(t, composed.Impacted, 2)
		assert.Equal(t, "savings", composed.Impacted[0].Label)
		assert.Equal(t, "exchange hot wallet", composed.Impacted[1].Label)
	})

	t.Run("unlabeled addresses fall back to the printable address", func(t *testing.T) {
		var composed notification.Event
		composer := &composerMock{
			composeFunc: func(_ context.Context, _ user.User, event notification.Event) (Message, error) {
				composed = event
				return Message{}, nil
			},
		}

		_, err := New(composer).Route(t.Context(), watcher, transferEvent(t, 100))
		require.NoError(t, err)
		assert.Equal(t, "acct1", composed.Impacted[1].Label)
	})

	t.Run("the original event is not mutated", func(t *testing.T) {
		event := transferEvent(t, 100)
		_, err := New(&composerMock{}).Route(t.Context(), watcher, event)
		require.NoError(t, err)
		assert.Empty(t, event.Impacted[0].Label)
	})
}
