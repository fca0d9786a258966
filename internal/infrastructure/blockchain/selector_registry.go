package blockchain

import (
	"sort"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SelectorEntry is a registered function
type SelectorEntry struct {
	Selector  entity.Selector
	Signature string
	Fragment  entity.AbiFunctionFragment
	Source    string

	arguments   abi.Arguments
	unsupported error
}

// Decodable reports whether every declared input has a supported type
func (e *SelectorEntry) Decodable() bool {
	return e.unsupported == nil
}

// SelectorCollision records a registration that replaced an earlier one
type SelectorCollision struct {
	Selector          entity.Selector
	ReplacedSource    string
	ReplacedSignature string
	WinnerSource      string
	WinnerSignature   string
}

// SelectorRegistry maps 4-byte selectors to functions. It is never modified
// after construction and can be shared by concurrent decoders.
type SelectorRegistry struct {
	entries    map[entity.Selector]*SelectorEntry
	collisions []SelectorCollision
}

// ComputeSelector returns the first 4 bytes of the Keccak-256 hash of a canonical signature
func ComputeSelector(signature string) entity.Selector {
	var sel entity.Selector
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

// NewSelectorRegistry registers every fragment of every collection in the given order.
// A later fragment replaces an earlier one with the same selector.
func NewSelectorRegistry(collections []entity.AbiCollection, logger *logger.Logger) *SelectorRegistry {
	log := logger.WithComponent("selector-registry")
	r := &SelectorRegistry{
		entries: make(map[entity.Selector]*SelectorEntry),
	}

	for _, collection := range collections {
		for _, fragment := range collection.Fragments {
			entry := newSelectorEntry(collection.Source, fragment)

			if prev, ok := r.entries[entry.Selector]; ok {
				collision := SelectorCollision{
					Selector:          entry.Selector,
					ReplacedSource:    prev.Source,
					ReplacedSignature: prev.Signature,
					WinnerSource:      entry.Source,
					WinnerSignature:   entry.Signature,
				}
				r.collisions = append(r.collisions, collision)
				log.Debug("Selector registered by more than one ABI",
					zap.String("selector", entry.Selector.Hex()),
					zap.String("replaced", prev.Source+":"+prev.Signature),
					zap.String("winner", entry.Source+":"+entry.Signature))
				if prev.Signature != entry.Signature {
					log.Warn("Selector collision between distinct signatures",
						zap.String("selector", entry.Selector.Hex()),
						zap.String("replaced", prev.Signature),
						zap.String("winner", entry.Signature))
				}
			}

			r.entries[entry.Selector] = entry
		}
	}

	log.Info("Selector registry built",
		zap.Int("collections", len(collections)),
		zap.Int("selectors", len(r.entries)),
		zap.Int("collisions", len(r.collisions)))

	return r
}

func newSelectorEntry(source string, fragment entity.AbiFunctionFragment) *SelectorEntry {
	signature := fragment.Signature()
	entry := &SelectorEntry{
		Selector:  ComputeSelector(signature),
		Signature: signature,
		Fragment:  fragment,
		Source:    source,
	}

	args := make(abi.Arguments, 0, len(fragment.Inputs))
	for _, input := range fragment.Inputs {
		typ, err := abi.NewType(input.Type, "", nil)
		if err != nil {
			entry.unsupported = errors.Wrapf(entity.ErrUnsupportedAbiType, "%s: input %q has type %q: %v", signature, input.Name, input.Type, err)
			return entry
		}
		if !supportedType(typ) {
			entry.unsupported = errors.Wrapf(entity.ErrUnsupportedAbiType, "%s: input %q has type %q", signature, input.Name, input.Type)
			return entry
		}
		args = append(args, abi.Argument{Name: input.Name, Type: typ})
	}
	entry.arguments = args
	return entry
}

func supportedType(t abi.Type) bool {
	switch t.T {
	case abi.AddressTy, abi.UintTy, abi.BoolTy, abi.StringTy, abi.BytesTy, abi.FixedBytesTy:
		return true
	default:
		return false
	}
}

// Lookup returns the function registered for a selector
func (r *SelectorRegistry) Lookup(sel entity.Selector) (*SelectorEntry, bool) {
	entry, ok := r.entries[sel]
	return entry, ok
}

// Len returns the number of registered selectors
func (r *SelectorRegistry) Len() int {
	return len(r.entries)
}

// Collisions returns every replacement made while building, in build order
func (r *SelectorRegistry) Collisions() []SelectorCollision {
	out := make([]SelectorCollision, len(r.collisions))
	copy(out, r.collisions)
	return out
}

// Entries returns all registered functions sorted by selector
func (r *SelectorRegistry) Entries() []SelectorEntry {
	out := make([]SelectorEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Selector.Hex() < out[j].Selector.Hex()
	})
	return out
}
