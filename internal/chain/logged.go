package chain

// CIS-2 log event tags.
const (
	TagTokenTransfer = 255
	TagTokenMint     = 254
	TagTokenBurn     = 253
)

// LoggedEvent is a decoded CIS-2 contract log entry. From and To are raw
// address strings, either an account address or a "<index,subindex>"
// contract literal, and are empty when the tag does not carry them.
type LoggedEvent struct {
	TxHash   string          `json:"tx_hash"`
	Contract ContractAddress `json:"contract"`
	Tag      int             `json:"tag"`
	TokenID  string          `json:"token_id"`
	Amount   MicroCCD        `json:"amount"`
	From     string          `json:"from,omitempty"`
	To       string          `json:"to,omitempty"`
}

// TokenAddress identifies the token as "<contract>-<token id>".
func (e LoggedEvent) TokenAddress() string {
	return e.Contract.String() + "-" + e.TokenID
}
