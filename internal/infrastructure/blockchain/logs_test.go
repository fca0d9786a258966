package blockchain

import (
	"context"
	"encoding/json"
	"testing"

	"chain-explorer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

func rpcLog(block string, index string, tx string, topics []string, data string, removed bool) map[string]interface{} {
	return map[string]interface{}{
		"address":          collection,
		"topics":           topics,
		"data":             data,
		"blockNumber":      block,
		"transactionHash":  tx,
		"transactionIndex": "0x0",
		"blockHash":        "0x" + word("b10c"),
		"logIndex":         index,
		"removed":          removed,
	}
}

func TestLogQueryFetcher_FetchLogs(t *testing.T) {
	from := "0x" + addressWord(sender)
	to := "0x" + addressWord(recipient)
	tx := "0x" + word("abc")

	client, mock := newMockClient(t, map[string]rpcHandler{
		"eth_getLogs": func(params []json.RawMessage) (interface{}, error) {
			return []map[string]interface{}{
				rpcLog("0x64", "0x1", tx, []string{transferTopic.Hex(), from, to}, "0x"+word("5"), false),
				rpcLog("0x64", "0x2", tx, []string{transferTopic.Hex(), from}, "0x"+word("5"), true),
			}, nil
		},
	})

	fetcher := NewLogQueryFetcher(client)
	address := collection
	entries, err := fetcher.FetchLogs(context.Background(), entity.LogQuery{
		FromBlock: 100,
		ToBlock:   100,
		Address:   &address,
		Topics:    [][]common.Hash{{transferTopic}},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, uint64(100), entries[0].BlockNumber)
	assert.Equal(t, uint(1), entries[0].LogIndex)
	assert.Equal(t, common.HexToHash(tx).Hex(), entries[0].TransactionHash)
	assert.Len(t, entries[0].Topics, 3)
	assert.Len(t, entries[0].Data, 32)
	assert.False(t, entries[0].Removed)
	assert.True(t, entries[1].Removed)

	calls := mock.methodCalls("eth_getLogs")
	require.Len(t, calls, 1)
	var filter struct {
		FromBlock string   `json:"fromBlock"`
		ToBlock   string   `json:"toBlock"`
		Address   []string `json:"address"`
	}
	require.NoError(t, json.Unmarshal(calls[0].Params[0], &filter))
	assert.Equal(t, "0x64", filter.FromBlock)
	assert.Equal(t, "0x64", filter.ToBlock)
}
