package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/evanpardo/ccdwatch/internal/dispatcher"
)

// auditKey is the hash holding delivery audit records, keyed by
// "blockHash-userToken". Format: "audit:{network}".
func (c *client) auditKey() string {
	return fmt.Sprintf("audit:%s", c.network)
}

// SaveAudit upserts the delivery record under its block hash and user
// token. Replays overwrite rather than accumulate.
func (c *client) SaveAudit(ctx context.Context, audit dispatcher.Audit) error {
	raw, err := json.Marshal(audit)
	if err != nil {
		return fmt.Errorf("encoding audit %s: %w", audit.Key(), err)
	}

	return c.conn.HSet(ctx, c.auditKey(), audit.Key(), raw).Err()
}

// Compile-time assertion for the audit trail surface.
var _ dispatcher.AuditStorage = (*client)(nil)
