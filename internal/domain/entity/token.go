package entity

import (
	"github.com/shopspring/decimal"
)

// TokenMetadata describes an ERC20-like token contract
type TokenMetadata struct {
	Address  string `json:"address"`
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals *uint8 `json:"decimals,omitempty"`
}

// FormatAmount scales a raw integer amount by the token decimals and appends the symbol
func (m *TokenMetadata) FormatAmount(raw decimal.Decimal) string {
	amount := raw
	if m != nil && m.Decimals != nil && *m.Decimals > 0 {
		amount = raw.Shift(-int32(*m.Decimals))
	}
	if m != nil && m.Symbol != "" {
		return amount.String() + " " + m.Symbol
	}
	return amount.String()
}

// TransferLogView is a transfer-shaped log prepared for display
type TransferLogView struct {
	ID          string         `json:"id"`
	Entry       LogEntry       `json:"log"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Quantity    string         `json:"quantity"`
	Token       *TokenMetadata `json:"token,omitempty"`
	FromBalance *string        `json:"fromBalance,omitempty"`
	ToBalance   *string        `json:"toBalance,omitempty"`
}

// TokenDetails is the state of a token lookup
type TokenDetails struct {
	LookupID   string           `json:"lookupId"`
	Address    string           `json:"address"`
	Transfers  []TransferRecord `json:"transfers"`
	Owners     OwnerSet         `json:"owners"`
	Complete   bool             `json:"complete"`
	LastCursor *string          `json:"lastCursor,omitempty"`
	Summary    string           `json:"summary,omitempty"`
	Loading    bool             `json:"loading"`
	Error      string           `json:"error,omitempty"`
}

// TransferLogPage is the result of scanning recent transfer logs of a token
type TransferLogPage struct {
	Address   string            `json:"address"`
	Token     *TokenMetadata    `json:"token,omitempty"`
	Transfers []TransferLogView `json:"transfers"`
	Next      BlockCursor       `json:"next"`
	Probes    int               `json:"probes"`
	Done      bool              `json:"done"`
}
