package service

import (
	"chain-explorer/internal/domain/entity"
)

// CalldataDecoder defines the interface for resolving and decoding transaction input data
type CalldataDecoder interface {
	// Decode resolves the selector of raw calldata and decodes its arguments
	Decode(calldata []byte) (*entity.DecodedCall, error)

	// DecodeHex decodes 0x-prefixed hex calldata
	DecodeHex(data string) (*entity.DecodedCall, error)
}
