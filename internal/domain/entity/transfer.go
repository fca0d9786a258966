package entity

// TransferCategory classifies an asset transfer
type TransferCategory string

const (
	TransferCategoryExternal TransferCategory = "external"
	TransferCategoryInternal TransferCategory = "internal"
	TransferCategoryToken    TransferCategory = "token"
	TransferCategoryERC20    TransferCategory = "erc20"
	TransferCategoryERC721   TransferCategory = "erc721"
	TransferCategoryERC1155  TransferCategory = "erc1155"
)

// IsNFT reports whether transfers of this category carry token IDs of non-fungible assets
func (c TransferCategory) IsNFT() bool {
	return c == TransferCategoryERC721 || c == TransferCategoryERC1155
}

// RawContract holds the undecoded contract-level fields of a transfer
type RawContract struct {
	ValueHex    *string `json:"value"`
	AddressHex  *string `json:"address"`
	DecimalsHex *string `json:"decimal"`
}

// TransferRecord represents a single asset transfer returned by the indexing API
type TransferRecord struct {
	BlockNumber     string           `json:"blockNum"`
	TransactionHash string           `json:"hash"`
	From            string           `json:"from"`
	To              *string          `json:"to"`
	Value           *float64         `json:"value"`
	TokenID         *string          `json:"tokenId"`
	Asset           *string          `json:"asset"`
	Category        TransferCategory `json:"category"`
	RawContract     RawContract      `json:"rawContract"`
}

// TransferPage is one page of a cursor-driven transfer query.
// A nil NextCursor marks the final page.
type TransferPage struct {
	Records    []TransferRecord
	NextCursor *string
}

// TransferFetchResult is the aggregated outcome of a pagination run
type TransferFetchResult struct {
	Records    []TransferRecord `json:"transfers"`
	Pages      int              `json:"pages"`
	Complete   bool             `json:"complete"`
	LastCursor *string          `json:"lastCursor,omitempty"`
}

// Warning returns an error matching ErrIncompleteFetch when pagination stopped at the page limit
func (r *TransferFetchResult) Warning() error {
	if r == nil || r.Complete {
		return nil
	}
	cursor := ""
	if r.LastCursor != nil {
		cursor = *r.LastCursor
	}
	return &IncompleteFetchError{Pages: r.Pages, LastCursor: cursor}
}

// NFTTokenIDs returns the distinct token IDs of NFT transfers in first-seen order
func NFTTokenIDs(records []TransferRecord) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, r := range records {
		if !r.Category.IsNFT() || r.TokenID == nil || *r.TokenID == "" {
			continue
		}
		if seen[*r.TokenID] {
			continue
		}
		seen[*r.TokenID] = true
		ids = append(ids, *r.TokenID)
	}
	return ids
}
