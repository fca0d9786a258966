package service

import (
	"chain-explorer/internal/domain/entity"
)

// ContractClassifierService defines the interface for inferring token standards
type ContractClassifierService interface {
	// ClassifyContract scores the calls made to one contract against the known token standards
	ClassifyContract(contractAddress string, calls []entity.TransactionCall) *entity.ContractProfile

	// ClassifyFromSelector returns the standard a single selector is specific to, if any
	ClassifyFromSelector(selectorHex string) entity.TokenStandard

	// GetContractPatterns returns the selectors considered for each standard
	GetContractPatterns() map[entity.TokenStandard][]string
}
