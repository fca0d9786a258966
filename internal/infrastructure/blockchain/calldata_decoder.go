package blockchain

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const selectorLength = 4

// CalldataDecoderService implements the calldata decoder on top of a selector registry
type CalldataDecoderService struct {
	registry *SelectorRegistry
	logger   *logger.Logger
}

// NewCalldataDecoderService creates a new calldata decoder service
func NewCalldataDecoderService(registry *SelectorRegistry, logger *logger.Logger) service.CalldataDecoder {
	return &CalldataDecoderService{
		registry: registry,
		logger:   logger.WithComponent("calldata-decoder"),
	}
}

// DecodeHex decodes 0x-prefixed (or bare) hex calldata
func (s *CalldataDecoderService) DecodeHex(data string) (*entity.DecodedCall, error) {
	if !strings.HasPrefix(data, "0x") && !strings.HasPrefix(data, "0X") {
		data = "0x" + data
	}
	raw, err := hexutil.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(entity.ErrMalformedCalldata, "invalid hex: %v", err)
	}
	return s.Decode(raw)
}

// Decode resolves the selector and decodes the arguments of the matched function.
// An unknown selector yields a call without signature and arguments.
func (s *CalldataDecoderService) Decode(calldata []byte) (*entity.DecodedCall, error) {
	if len(calldata) < selectorLength {
		return nil, errors.Wrapf(entity.ErrMalformedCalldata, "calldata has %d bytes, need at least %d", len(calldata), selectorLength)
	}

	var sel entity.Selector
	copy(sel[:], calldata[:selectorLength])

	call := &entity.DecodedCall{SelectorHex: sel.Hex()}

	entry, ok := s.registry.Lookup(sel)
	if !ok {
		s.logger.Debug("Unknown method selector", zap.String("selector", call.SelectorHex))
		return call, nil
	}

	if entry.unsupported != nil {
		return nil, entry.unsupported
	}

	args, err := decodeArguments(entry.arguments, calldata[selectorLength:])
	if err != nil {
		return nil, errors.Wrap(err, entry.Signature)
	}

	signature := entry.Signature
	call.Signature = &signature
	call.Source = entry.Source
	call.Arguments = args

	return call, nil
}

func decodeArguments(arguments abi.Arguments, payload []byte) ([]entity.DecodedArgument, error) {
	if len(arguments) == 0 {
		return []entity.DecodedArgument{}, nil
	}

	values, err := arguments.UnpackValues(payload)
	if err != nil {
		return nil, errors.Wrapf(entity.ErrMalformedCalldata, "unpack arguments: %v", err)
	}
	if len(values) != len(arguments) {
		return nil, errors.Wrapf(entity.ErrMalformedCalldata, "decoded %d values for %d inputs", len(values), len(arguments))
	}

	decoded := make([]entity.DecodedArgument, len(arguments))
	for i, arg := range arguments {
		v, err := toValue(arg.Type, values[i])
		if err != nil {
			return nil, err
		}
		decoded[i] = entity.DecodedArgument{Name: arg.Name, Value: v}
	}
	return decoded, nil
}

func toValue(t abi.Type, v interface{}) (entity.Value, error) {
	switch t.T {
	case abi.AddressTy:
		if a, ok := v.(common.Address); ok {
			return entity.AddressValue(a), nil
		}
	case abi.UintTy:
		switch n := v.(type) {
		case uint8:
			return entity.UintValue(new(big.Int).SetUint64(uint64(n)), t.Size), nil
		case uint16:
			return entity.UintValue(new(big.Int).SetUint64(uint64(n)), t.Size), nil
		case uint32:
			return entity.UintValue(new(big.Int).SetUint64(uint64(n)), t.Size), nil
		case uint64:
			return entity.UintValue(new(big.Int).SetUint64(n), t.Size), nil
		case *big.Int:
			return entity.UintValue(n, t.Size), nil
		}
	case abi.BoolTy:
		if b, ok := v.(bool); ok {
			return entity.BoolValue(b), nil
		}
	case abi.StringTy:
		if str, ok := v.(string); ok {
			return entity.StringValue(str), nil
		}
	case abi.BytesTy:
		if b, ok := v.([]byte); ok {
			return entity.BytesValue(b, 0), nil
		}
	case abi.FixedBytesTy:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return entity.BytesValue(b, t.Size), nil
		}
	default:
		return entity.Value{}, errors.Wrapf(entity.ErrUnsupportedAbiType, "type %s", t.String())
	}
	return entity.Value{}, fmt.Errorf("unexpected go type %T for abi type %s", v, t.String())
}
