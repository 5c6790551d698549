package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/extractor"
	"github.com/evanpardo/ccdwatch/internal/resolver"
)

// accountInfoResponse mirrors the gateway's account info payload.
type accountInfoResponse struct {
	AccountAddress string `json:"accountAddress"`
	AccountIndex   uint64 `json:"accountIndex"`
	AccountAmount  uint64 `json:"accountAmount"`
	AccountBaker   *struct {
		BakerID         uint64 `json:"bakerId"`
		StakedAmount    uint64 `json:"stakedAmount"`
		RestakeEarnings bool   `json:"restakeEarnings"`
	} `json:"accountBaker"`
	AccountDelegation *struct {
		StakedAmount     uint64 `json:"stakedAmount"`
		RestakeEarnings  bool   `json:"restakeEarnings"`
		DelegationTarget struct {
			DelegateType string  `json:"delegateType"`
			BakerID      *uint64 `json:"bakerId"`
		} `json:"delegationTarget"`
	} `json:"accountDelegation"`
}

func (r accountInfoResponse) toAccountInfo() chain.AccountInfo {
	info := chain.AccountInfo{
		Address: chain.AccountAddress(r.AccountAddress),
		Index:   chain.AccountIndex(r.AccountIndex),
		Amount:  chain.MicroCCD(r.AccountAmount),
	}

	switch {
	case r.AccountBaker != nil:
		info.Stake = &chain.StakeInfo{Baker: &chain.BakerStakeInfo{
			BakerID:         chain.AccountIndex(r.AccountBaker.BakerID),
			StakedAmount:    chain.MicroCCD(r.AccountBaker.StakedAmount),
			RestakeEarnings: r.AccountBaker.RestakeEarnings,
		}}
	case r.AccountDelegation != nil:
		delegator := &chain.DelegatorStakeInfo{
			StakedAmount:    chain.MicroCCD(r.AccountDelegation.StakedAmount),
			RestakeEarnings: r.AccountDelegation.RestakeEarnings,
		}
		if id := r.AccountDelegation.DelegationTarget.BakerID; id != nil {
			target := chain.AccountIndex(*id)
			delegator.Target = &target
		}
		info.Stake = &chain.StakeInfo{Delegator: delegator}
	}

	return info
}

// AccountInfoByAddress fetches account state at the given block hash.
func (c *Client) AccountInfoByAddress(ctx context.Context, address chain.AccountAddress, blockHash string) (chain.AccountInfo, error) {
	raw, err := c.fetch(ctx, "getAccountInfo", string(address), blockHash)
	if err != nil {
		return chain.AccountInfo{}, fmt.Errorf("fetching account %s: %w", address, err)
	}

	var res accountInfoResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return chain.AccountInfo{}, fmt.Errorf("decoding account %s: %w", address, err)
	}

	return res.toAccountInfo(), nil
}

// AccountInfoByIndex fetches account state by account index at the given
// block hash.
func (c *Client) AccountInfoByIndex(ctx context.Context, index chain.AccountIndex, blockHash string) (chain.AccountInfo, error) {
	raw, err := c.fetch(ctx, "getAccountInfoByIndex", uint64(index), blockHash)
	if err != nil {
		return chain.AccountInfo{}, fmt.Errorf("fetching account index %d: %w", index, err)
	}

	var res accountInfoResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return chain.AccountInfo{}, fmt.Errorf("decoding account index %d: %w", index, err)
	}

	return res.toAccountInfo(), nil
}

// poolInfoResponse mirrors the gateway's pool status payload.
type poolInfoResponse struct {
	BakerID          uint64 `json:"bakerId"`
	BakerAddress     string `json:"bakerAddress"`
	BakerEquity      uint64 `json:"bakerEquityCapital"`
	DelegatedCapital uint64 `json:"delegatedCapital"`
	DelegatorCount   int    `json:"delegatorCount"`
	PoolInfo         struct {
		OpenStatus      string `json:"openStatus"`
		CommissionRates struct {
			BakingCommission       float64 `json:"bakingCommission"`
			TransactionCommission  float64 `json:"transactionCommission"`
			FinalizationCommission float64 `json:"finalizationCommission"`
		} `json:"commissionRates"`
	} `json:"poolInfo"`
}

// PoolInfo fetches the pool state of a validator at the given block hash.
func (c *Client) PoolInfo(ctx context.Context, baker chain.AccountIndex, blockHash string) (chain.PoolInfo, error) {
	raw, err := c.fetch(ctx, "getPoolStatus", uint64(baker), blockHash)
	if err != nil {
		return chain.PoolInfo{}, fmt.Errorf("fetching pool %d: %w", baker, err)
	}

	var res poolInfoResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return chain.PoolInfo{}, fmt.Errorf("decoding pool %d: %w", baker, err)
	}

	return chain.PoolInfo{
		BakerID:        chain.AccountIndex(res.BakerID),
		BakerAddress:   chain.AccountAddress(res.BakerAddress),
		BakerStake:     chain.MicroCCD(res.BakerEquity),
		DelegatedStake: chain.MicroCCD(res.DelegatedCapital),
		DelegatorCount: res.DelegatorCount,
		OpenStatus:     res.PoolInfo.OpenStatus,
		CommissionRates: chain.CommissionRates{
			Baking:             res.PoolInfo.CommissionRates.BakingCommission,
			TransactionFees:    res.PoolInfo.CommissionRates.TransactionCommission,
			FinalizationReward: res.PoolInfo.CommissionRates.FinalizationCommission,
		},
	}, nil
}

// PoolDelegators fetches the delegators of a pool at the given block hash.
func (c *Client) PoolDelegators(ctx context.Context, baker chain.AccountIndex, blockHash string) ([]chain.PoolDelegator, error) {
	raw, err := c.fetch(ctx, "getPoolDelegators", uint64(baker), blockHash)
	if err != nil {
		return nil, fmt.Errorf("fetching delegators of pool %d: %w", baker, err)
	}

	var res []struct {
		Account string `json:"account"`
		Stake   uint64 `json:"stake"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decoding delegators of pool %d: %w", baker, err)
	}

	delegators := make([]chain.PoolDelegator, len(res))
	for i, d := range res {
		delegators[i] = chain.PoolDelegator{
			Account: chain.AccountAddress(d.Account),
			Stake:   chain.MicroCCD(d.Stake),
		}
	}

	return delegators, nil
}

// EarliestWinTime fetches the earliest projected time the validator may
// produce its next block, as unix milliseconds on the wire.
func (c *Client) EarliestWinTime(ctx context.Context, baker chain.AccountIndex) (time.Time, error) {
	raw, err := c.fetch(ctx, "getEarliestWinTime", uint64(baker))
	if err != nil {
		return time.Time{}, fmt.Errorf("fetching earliest win time of validator %d: %w", baker, err)
	}

	var millis int64
	if err := json.Unmarshal(raw, &millis); err != nil {
		return time.Time{}, fmt.Errorf("decoding earliest win time of validator %d: %w", baker, err)
	}

	return time.UnixMilli(millis).UTC(), nil
}

// BlockHashAtHeight fetches the hash of the finalized block at the given
// height.
func (c *Client) BlockHashAtHeight(ctx context.Context, height uint64) (string, error) {
	raw, err := c.fetch(ctx, "getBlocksAtHeight", height)
	if err != nil {
		return "", fmt.Errorf("fetching block hash at height %d: %w", height, err)
	}

	var hashes []string
	if err := json.Unmarshal(raw, &hashes); err != nil {
		return "", fmt.Errorf("decoding block hashes at height %d: %w", height, err)
	}
	if len(hashes) == 0 {
		return "", fmt.Errorf("no finalized block at height %d", height)
	}

	return hashes[0], nil
}

// Compile-time assertions for the node query surfaces.
var (
	_ resolver.NodeClient  = (*Client)(nil)
	_ extractor.NodeClient = (*Client)(nil)
)
