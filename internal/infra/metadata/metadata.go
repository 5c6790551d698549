// Package metadata resolves token display names from off-chain CIS-2
// metadata via the wallet proxy. Resolution is two-step: the proxy answers
// the metadata URL for a token, and the metadata document itself carries
// the name.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdhttp "net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/extractor"
	"github.com/evanpardo/ccdwatch/internal/pkg/transport/http"
)

// ErrMetadataNotFound is returned when the proxy has no metadata for the
// token or the document carries no name.
var ErrMetadataNotFound = errors.New("token metadata not found")

// Client fetches token metadata through one wallet proxy endpoint.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// Compile-time assertion for the extractor metadata surface.
var _ extractor.MetadataFetcher = (*Client)(nil)

// NewClient builds a metadata client for the given wallet proxy base URL.
func NewClient(baseURL string, opts ...http.Option) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: http.NewClient(opts...),
	}
}

// tokenMetadataResponse is the proxy's CIS2TokenMetadata payload.
type tokenMetadataResponse struct {
	Metadata []struct {
		MetadataURL string `json:"metadataURL"`
	} `json:"metadata"`
}

// metadataDocument is the slice of the CIS-2 metadata JSON the client needs.
type metadataDocument struct {
	Name string `json:"name"`
}

// TokenName resolves the display name of one token. It asks the proxy for
// the token's metadata URL and then reads the name from the document behind
// it.
func (c *Client) TokenName(ctx context.Context, contract chain.ContractAddress, tokenID string) (string, error) {
	url := fmt.Sprintf("%s/v0/CIS2TokenMetadata/%d/%d?tokenId=%s", c.baseURL, contract.Index, contract.Subindex, tokenID)

	var proxyRes tokenMetadataResponse
	if err := c.getJSON(ctx, url, &proxyRes); err != nil {
		return "", fmt.Errorf("fetching metadata url of token %s on %s: %w", tokenID, contract, err)
	}
	if len(proxyRes.Metadata) == 0 || proxyRes.Metadata[0].MetadataURL == "" {
		return "", ErrMetadataNotFound
	}

	var doc metadataDocument
	if err := c.getJSON(ctx, proxyRes.Metadata[0].MetadataURL, &doc); err != nil {
		return "", fmt.Errorf("fetching metadata document of token %s on %s: %w", tokenID, contract, err)
	}
	if doc.Name == "" {
		return "", ErrMetadataNotFound
	}

	return doc.Name, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, stdhttp.MethodGet, url, nil)
	if err != nil {
		return err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != stdhttp.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	return json.NewDecoder(res.Body).Decode(out)
}
