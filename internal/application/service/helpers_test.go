package service

import (
	"context"
	"strings"
	"sync"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/blockchain"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
)

const (
	tokenContract = "0x72541Ad75E05BC77C7A92304225937a8F6653372"
	alice         = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	bob           = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func word(hexValue string) string {
	return strings.Repeat("0", 64-len(hexValue)) + hexValue
}

func addressWord(address string) string {
	return word(strings.ToLower(strings.TrimPrefix(address, "0x")))
}

func newDecoder() service.CalldataDecoder {
	log := logger.NewNopLogger()
	return blockchain.NewCalldataDecoderService(blockchain.NewSelectorRegistry(blockchain.DefaultAbiCollections(), log), log)
}

type recordingPublisher struct {
	mu    sync.Mutex
	calls []*entity.TransactionCall
	err   error
}

func (p *recordingPublisher) PublishCalls(_ context.Context, calls []*entity.TransactionCall) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, calls...)
	return nil
}

func strPtr(s string) *string { return &s }

func nftTransfer(hash, tokenID string) entity.TransferRecord {
	return entity.TransferRecord{
		TransactionHash: hash,
		From:            alice,
		To:              strPtr(bob),
		TokenID:         strPtr(tokenID),
		Category:        entity.TransferCategoryERC721,
	}
}

func ownerWord(address string) []byte {
	return common.LeftPadBytes(common.HexToAddress(address).Bytes(), 32)
}
