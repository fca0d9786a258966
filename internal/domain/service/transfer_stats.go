package service

import (
	"fmt"
	"strings"

	"chain-explorer/internal/domain/entity"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CountByCategory counts transfers per category in order of first appearance
func CountByCategory(records []entity.TransferRecord) *orderedmap.OrderedMap[entity.TransferCategory, int] {
	counts := orderedmap.New[entity.TransferCategory, int]()
	for _, r := range records {
		n, _ := counts.Get(r.Category)
		counts.Set(r.Category, n+1)
	}
	return counts
}

// SummarizeTransfers renders "N nfts, M transfers: cat: k, ..."
func SummarizeTransfers(records []entity.TransferRecord, nftCount int) string {
	counts := CountByCategory(records)

	parts := make([]string, 0, counts.Len())
	for pair := counts.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, fmt.Sprintf("%s: %d", pair.Key, pair.Value))
	}

	return fmt.Sprintf("%d nfts, %d transfers: %s", nftCount, len(records), strings.Join(parts, ", "))
}
