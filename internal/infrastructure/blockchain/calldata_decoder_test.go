package blockchain

import (
	"math/big"
	"strings"
	"testing"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	recipient = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	sender    = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func word(hexValue string) string {
	return strings.Repeat("0", 64-len(hexValue)) + hexValue
}

func addressWord(address string) string {
	return word(strings.ToLower(strings.TrimPrefix(address, "0x")))
}

func newTestDecoder() *CalldataDecoderService {
	registry := NewSelectorRegistry(DefaultAbiCollections(), logger.NewNopLogger())
	return NewCalldataDecoderService(registry, logger.NewNopLogger()).(*CalldataDecoderService)
}

func TestCalldataDecoder_Transfer(t *testing.T) {
	decoder := newTestDecoder()

	data := "0xa9059cbb" + addressWord(recipient) + word("de0b6b3a7640000")
	call, err := decoder.DecodeHex(data)
	require.NoError(t, err)

	require.True(t, call.Known())
	assert.Equal(t, "0xa9059cbb", call.SelectorHex)
	assert.Equal(t, "transfer(address,uint256)", *call.Signature)
	assert.Equal(t, SourceERC20, call.Source)

	require.Len(t, call.Arguments, 2)
	assert.Equal(t, "_to", call.Arguments[0].Name)
	assert.Equal(t, entity.ValueKindAddress, call.Arguments[0].Value.Kind)
	assert.Equal(t, common.HexToAddress(recipient), call.Arguments[0].Value.Address)

	assert.Equal(t, "_value", call.Arguments[1].Name)
	assert.Equal(t, entity.ValueKindUint, call.Arguments[1].Value.Kind)
	assert.Equal(t, 256, call.Arguments[1].Value.Width)
	assert.Equal(t, 0, call.Arguments[1].Value.Uint.Cmp(big.NewInt(1e18)))
}

func TestCalldataDecoder_UnknownSelector(t *testing.T) {
	decoder := newTestDecoder()

	call, err := decoder.Decode([]byte{0xde, 0xad, 0xbe, 0xef, 0x01})
	require.NoError(t, err)
	assert.False(t, call.Known())
	assert.Equal(t, "0xdeadbeef", call.SelectorHex)
	assert.Nil(t, call.Arguments)
}

func TestCalldataDecoder_Malformed(t *testing.T) {
	decoder := newTestDecoder()

	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: "0x"},
		{name: "short", data: "0xa9059c"},
		{name: "not hex", data: "0xzz"},
		{name: "truncated arguments", data: "0xa9059cbb" + addressWord(recipient)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decoder.DecodeHex(tt.data)
			assert.ErrorIs(t, err, entity.ErrMalformedCalldata)
		})
	}
}

func TestCalldataDecoder_NoInputs(t *testing.T) {
	decoder := newTestDecoder()

	call, err := decoder.DecodeHex("0x18160ddd")
	require.NoError(t, err)
	require.True(t, call.Known())
	assert.Equal(t, "totalSupply()", *call.Signature)
	assert.Empty(t, call.Arguments)
}

func TestCalldataDecoder_BoolAndBytes(t *testing.T) {
	decoder := newTestDecoder()

	t.Run("setApprovalForAll", func(t *testing.T) {
		call, err := decoder.DecodeHex("0xa22cb465" + addressWord(recipient) + word("1"))
		require.NoError(t, err)
		require.Len(t, call.Arguments, 2)
		assert.Equal(t, SourceERC1155, call.Source)
		assert.Equal(t, entity.ValueKindBool, call.Arguments[1].Value.Kind)
		assert.True(t, call.Arguments[1].Value.Bool)
	})

	t.Run("safeTransferFrom with data", func(t *testing.T) {
		data := "0xb88d4fde" +
			addressWord(sender) +
			addressWord(recipient) +
			word("2a") +
			word("80") +
			word("2") +
			"beef" + strings.Repeat("0", 60)

		call, err := decoder.DecodeHex(data)
		require.NoError(t, err)
		require.Len(t, call.Arguments, 4)
		assert.Equal(t, []string{"from", "to", "tokenId", "data"}, []string{
			call.Arguments[0].Name, call.Arguments[1].Name, call.Arguments[2].Name, call.Arguments[3].Name,
		})
		assert.Equal(t, "42", call.Arguments[2].Value.Text())
		assert.Equal(t, "0xbeef", call.Arguments[3].Value.Text())
		assert.Equal(t, "bytes", call.Arguments[3].Value.TypeName())
	})

	t.Run("supportsInterface", func(t *testing.T) {
		call, err := decoder.DecodeHex("0x01ffc9a7" + "80ac58cd" + strings.Repeat("0", 56))
		require.NoError(t, err)
		require.Len(t, call.Arguments, 1)
		assert.Equal(t, "bytes4", call.Arguments[0].Value.TypeName())
		assert.Equal(t, "0x80ac58cd", call.Arguments[0].Value.Text())
	})
}

func TestCalldataDecoder_UnsupportedType(t *testing.T) {
	decoder := newTestDecoder()

	_, err := decoder.DecodeHex("0x2eb2c2d6" + addressWord(sender) + addressWord(recipient))
	assert.ErrorIs(t, err, entity.ErrUnsupportedAbiType)
}
