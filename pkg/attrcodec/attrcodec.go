// Package attrcodec converts between DynamoDB attribute values and plain Go
// values (string, float64, bool, nil, map, slice), handling arbitrary
// nesting. It also encodes pagination cursors as opaque base64 tokens.
package attrcodec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Decode converts a single DynamoDB attribute value to a plain Go value.
// Numeric attributes become float64; binary attributes become []byte;
// attribute types with no plain representation decode to nil.
func Decode(av types.AttributeValue) any {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		n, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return v.Value
		}
		return n
	case *types.AttributeValueMemberBOOL:
		return v.Value
	case *types.AttributeValueMemberNULL:
		return nil
	case *types.AttributeValueMemberB:
		return v.Value
	case *types.AttributeValueMemberM:
		return DecodeItem(v.Value)
	case *types.AttributeValueMemberL:
		out := make([]any, 0, len(v.Value))
		for _, el := range v.Value {
			out = append(out, Decode(el))
		}
		return out
	case *types.AttributeValueMemberSS:
		out := make([]any, 0, len(v.Value))
		for _, s := range v.Value {
			out = append(out, s)
		}
		return out
	case *types.AttributeValueMemberNS:
		out := make([]any, 0, len(v.Value))
		for _, s := range v.Value {
			out = append(out, Decode(&types.AttributeValueMemberN{Value: s}))
		}
		return out
	default:
		return nil
	}
}

// DecodeItem converts a full item to a plain map.
func DecodeItem(item map[string]types.AttributeValue) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = Decode(v)
	}
	return out
}

// Encode converts a plain Go value back to a DynamoDB attribute value.
// It accepts the value shapes Decode produces plus the integer types and
// json.Number for convenience.
func Encode(v any) (types.AttributeValue, error) {
	switch val := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: val}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: val}, nil
	case float64:
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(val, 'f', -1, 64)}, nil
	case int:
		return &types.AttributeValueMemberN{Value: strconv.Itoa(val)}, nil
	case int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(val, 10)}, nil
	case json.Number:
		return &types.AttributeValueMemberN{Value: val.String()}, nil
	case []byte:
		return &types.AttributeValueMemberB{Value: val}, nil
	case map[string]any:
		m, err := EncodeItem(val)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		list := make([]types.AttributeValue, 0, len(val))
		for _, el := range val {
			enc, err := Encode(el)
			if err != nil {
				return nil, err
			}
			list = append(list, enc)
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// EncodeItem converts a plain map back to a DynamoDB item.
func EncodeItem(m map[string]any) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(m))
	for k, v := range m {
		enc, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = enc
	}
	return out, nil
}

// EncodeToken serializes a query's last evaluated key as an opaque
// continuation token.
func EncodeToken(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(DecodeItem(key))
	if err != nil {
		return "", fmt.Errorf("failed to marshal continuation key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeToken reverses EncodeToken, producing an exclusive start key.
func DecodeToken(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed continuation token: %w", err)
	}
	var plain map[string]any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("malformed continuation token: %w", err)
	}
	key, err := EncodeItem(plain)
	if err != nil {
		return nil, fmt.Errorf("malformed continuation token: %w", err)
	}
	return key, nil
}
