package blockchain

import (
	"math"
	"strings"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// ContractClassifierService implements token standard classification
type ContractClassifierService struct {
	logger              *logger.Logger
	classificationRules []entity.ClassificationRule
}

// NewContractClassifierService creates a new contract classifier service
func NewContractClassifierService(logger *logger.Logger) service.ContractClassifierService {
	classifier := &ContractClassifierService{
		logger: logger.WithComponent("contract-classifier"),
	}
	classifier.initializeClassificationRules()
	return classifier
}

// ClassifyContract analyzes the decoded calls sent to a contract
func (c *ContractClassifierService) ClassifyContract(contractAddress string, calls []entity.TransactionCall) *entity.ContractProfile {
	profile := &entity.ContractProfile{
		Address:      contractAddress,
		Standard:     entity.TokenStandardUnknown,
		MethodCounts: make(map[string]int),
		SourceCounts: make(map[string]int),
	}
	if len(calls) == 0 {
		return profile
	}

	senders := make(map[string]bool)
	for _, call := range calls {
		profile.TotalCalls++
		senders[strings.ToLower(call.From)] = true

		if call.Call == nil {
			continue
		}
		profile.MethodCounts[strings.TrimPrefix(call.Call.SelectorHex, "0x")]++
		if call.Call.Known() {
			profile.SourceCounts[call.Call.Source]++
		}
	}
	profile.UniqueSenders = len(senders)

	c.classifyByRules(profile)

	c.logger.Debug("Contract classified",
		zap.String("address", contractAddress),
		zap.String("standard", string(profile.Standard)),
		zap.Float64("confidence", profile.ConfidenceScore),
		zap.Int("total_calls", profile.TotalCalls),
		zap.Int("unique_senders", profile.UniqueSenders))

	return profile
}

// ClassifyFromSelector provides quick classification based on a selector
func (c *ContractClassifierService) ClassifyFromSelector(selectorHex string) entity.TokenStandard {
	switch strings.TrimPrefix(strings.ToLower(selectorHex), "0x") {
	case "a9059cbb", "dd62ed3e", "18160ddd", "313ce567": // transfer, allowance, totalSupply, decimals
		return entity.TokenStandardERC20
	case "42842e0e", "b88d4fde", "6352211e", "c87b56dd", "081812fc": // safeTransferFrom x2, ownerOf, tokenURI, getApproved
		return entity.TokenStandardERC721
	case "f242432a", "2eb2c2d6", "00fdd58e", "4e1273f4", "0e89341c": // safeTransferFrom, safeBatchTransferFrom, balanceOf, balanceOfBatch, uri
		return entity.TokenStandardERC1155
	default:
		return entity.TokenStandardUnknown
	}
}

// GetContractPatterns returns known patterns for token standards
func (c *ContractClassifierService) GetContractPatterns() map[entity.TokenStandard][]string {
	patterns := make(map[entity.TokenStandard][]string)

	for _, rule := range c.classificationRules {
		methods := make([]string, 0, len(rule.RequiredMethods)+len(rule.OptionalMethods))
		methods = append(methods, rule.RequiredMethods...)
		methods = append(methods, rule.OptionalMethods...)
		patterns[rule.Standard] = methods
	}

	return patterns
}

// initializeClassificationRules sets up classification rules
func (c *ContractClassifierService) initializeClassificationRules() {
	c.classificationRules = []entity.ClassificationRule{
		// ERC1155 multi token
		{
			Standard:        entity.TokenStandardERC1155,
			Source:          SourceERC1155,
			RequiredMethods: []string{"f242432a"},                         // safeTransferFrom(address,address,uint256,uint256,bytes)
			OptionalMethods: []string{"2eb2c2d6", "a22cb465", "00fdd58e"}, // safeBatchTransferFrom, setApprovalForAll, balanceOf
			ExcludeMethods:  []string{"a9059cbb"},                         // not transfer
			MinConfidence:   0.6,
			Weight:          1.0,
		},
		// ERC721 non-fungible token
		{
			Standard:        entity.TokenStandardERC721,
			Source:          SourceERC721,
			RequiredMethods: []string{"42842e0e"},                                     // safeTransferFrom(address,address,uint256)
			OptionalMethods: []string{"b88d4fde", "23b872dd", "a22cb465", "095ea7b3"}, // safeTransferFrom with data, transferFrom, setApprovalForAll, approve
			ExcludeMethods:  []string{"a9059cbb", "f242432a"},                         // not transfer, not erc1155 safeTransferFrom
			MinConfidence:   0.6,
			Weight:          0.9,
		},
		// Standard ERC20 token
		{
			Standard:        entity.TokenStandardERC20,
			Source:          SourceERC20,
			RequiredMethods: []string{"a9059cbb"},             // transfer
			OptionalMethods: []string{"23b872dd", "095ea7b3"}, // transferFrom, approve
			ExcludeMethods:  []string{"42842e0e", "f242432a"}, // not safeTransferFrom
			MinConfidence:   0.5,
			Weight:          0.8,
		},
	}
}

// classifyByRules applies classification rules to determine the token standard.
// Rules are evaluated in order so ties resolve to the earlier rule.
func (c *ContractClassifierService) classifyByRules(profile *entity.ContractProfile) {
	primary := entity.TokenStandardUnknown
	maxScore := 0.0
	var secondary []entity.TokenStandard

	for _, rule := range c.classificationRules {
		score := c.calculateRuleScore(profile, rule)
		if score < rule.MinConfidence {
			continue
		}
		weighted := score * rule.Weight
		if weighted > maxScore {
			if primary != entity.TokenStandardUnknown {
				secondary = append(secondary, primary)
			}
			primary = rule.Standard
			maxScore = weighted
		} else if weighted > 0.5 {
			secondary = append(secondary, rule.Standard)
		}
	}

	profile.Standard = primary
	profile.SecondaryTypes = secondary
	profile.ConfidenceScore = maxScore
}

// calculateRuleScore calculates how well a profile matches a rule
func (c *ContractClassifierService) calculateRuleScore(profile *entity.ContractProfile, rule entity.ClassificationRule) float64 {
	score := 0.0

	// Required methods carry 60%
	if len(rule.RequiredMethods) > 0 {
		score += c.fractionPresent(profile.MethodCounts, rule.RequiredMethods) * 0.6
	}

	// Optional methods carry 20%
	if len(rule.OptionalMethods) > 0 {
		score += c.fractionPresent(profile.MethodCounts, rule.OptionalMethods) * 0.2
	}

	// Excluded methods carry 10%
	if !c.hasAnyMethod(profile.MethodCounts, rule.ExcludeMethods) {
		score += 0.1
	}

	// Share of calls resolved through the rule's own ABI carries 10%
	if profile.TotalCalls > 0 {
		score += float64(profile.SourceCounts[rule.Source]) / float64(profile.TotalCalls) * 0.1
	}

	return math.Min(score, 1.0)
}

func (c *ContractClassifierService) fractionPresent(methodCounts map[string]int, methods []string) float64 {
	found := 0
	for _, method := range methods {
		if methodCounts[method] > 0 {
			found++
		}
	}
	return float64(found) / float64(len(methods))
}

// hasAnyMethod checks if any of the specified methods were called
func (c *ContractClassifierService) hasAnyMethod(methodCounts map[string]int, methods []string) bool {
	for _, method := range methods {
		if methodCounts[method] > 0 {
			return true
		}
	}
	return false
}
