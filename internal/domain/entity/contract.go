package entity

// TokenStandard is the token interface a contract appears to implement
type TokenStandard string

const (
	TokenStandardUnknown TokenStandard = "UNKNOWN"
	TokenStandardERC20   TokenStandard = "ERC20"
	TokenStandardERC721  TokenStandard = "ERC721"
	TokenStandardERC1155 TokenStandard = "ERC1155"
)

// ClassificationRule describes the selectors that identify a token standard.
// Selectors are lowercase hex without 0x prefix.
type ClassificationRule struct {
	Standard        TokenStandard
	Source          string
	RequiredMethods []string
	OptionalMethods []string
	ExcludeMethods  []string
	MinConfidence   float64
	Weight          float64
}

// ContractProfile is the result of classifying a contract from the calls made to it
type ContractProfile struct {
	Address         string          `json:"address"`
	Standard        TokenStandard   `json:"standard"`
	SecondaryTypes  []TokenStandard `json:"secondaryTypes,omitempty"`
	ConfidenceScore float64         `json:"confidence"`
	MethodCounts    map[string]int  `json:"methods"`
	SourceCounts    map[string]int  `json:"sources,omitempty"`
	TotalCalls      int             `json:"totalCalls"`
	UniqueSenders   int             `json:"uniqueSenders"`
}
