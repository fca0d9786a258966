package blockchain

import (
	"testing"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodedCalls(t *testing.T, from string, calldata ...string) []entity.TransactionCall {
	t.Helper()
	decoder := newTestDecoder()
	calls := make([]entity.TransactionCall, 0, len(calldata))
	for _, data := range calldata {
		call, err := decoder.DecodeHex(data)
		require.NoError(t, err)
		calls = append(calls, entity.TransactionCall{From: from, To: recipient, Call: call})
	}
	return calls
}

func TestContractClassifier_ERC20(t *testing.T) {
	classifier := NewContractClassifierService(logger.NewNopLogger())

	transfer := "0xa9059cbb" + addressWord(recipient) + word("64")
	approve := "0x095ea7b3" + addressWord(sender) + word("64")
	calls := append(decodedCalls(t, sender, transfer, approve), decodedCalls(t, recipient, transfer)...)

	profile := classifier.ClassifyContract(recipient, calls)
	assert.Equal(t, entity.TokenStandardERC20, profile.Standard)
	assert.Equal(t, 3, profile.TotalCalls)
	assert.Equal(t, 2, profile.UniqueSenders)
	assert.Equal(t, 2, profile.MethodCounts["a9059cbb"])
	assert.Greater(t, profile.ConfidenceScore, 0.5)
}

func TestContractClassifier_ERC721(t *testing.T) {
	classifier := NewContractClassifierService(logger.NewNopLogger())

	safeTransfer := "0x42842e0e" + addressWord(sender) + addressWord(recipient) + word("1")
	profile := classifier.ClassifyContract(recipient, decodedCalls(t, sender, safeTransfer))

	assert.Equal(t, entity.TokenStandardERC721, profile.Standard)
	assert.NotContains(t, profile.SecondaryTypes, entity.TokenStandardERC20)
}

func TestContractClassifier_Unknown(t *testing.T) {
	classifier := NewContractClassifierService(logger.NewNopLogger())

	profile := classifier.ClassifyContract(recipient, nil)
	assert.Equal(t, entity.TokenStandardUnknown, profile.Standard)
	assert.Zero(t, profile.TotalCalls)

	profile = classifier.ClassifyContract(recipient, decodedCalls(t, sender, "0xdeadbeef"))
	assert.Equal(t, entity.TokenStandardUnknown, profile.Standard)
	assert.Equal(t, 1, profile.MethodCounts["deadbeef"])
}

func TestContractClassifier_FromSelector(t *testing.T) {
	classifier := NewContractClassifierService(logger.NewNopLogger())

	assert.Equal(t, entity.TokenStandardERC20, classifier.ClassifyFromSelector("0xa9059cbb"))
	assert.Equal(t, entity.TokenStandardERC721, classifier.ClassifyFromSelector("6352211E"))
	assert.Equal(t, entity.TokenStandardERC1155, classifier.ClassifyFromSelector("0xf242432a"))
	assert.Equal(t, entity.TokenStandardUnknown, classifier.ClassifyFromSelector("0x23b872dd"))

	patterns := classifier.GetContractPatterns()
	assert.Len(t, patterns, 3)
	assert.Equal(t, "f242432a", patterns[entity.TokenStandardERC1155][0])
}
