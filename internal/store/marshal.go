package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/recordwire/internal/ir"
)

// marshalArgs converts event args to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so identical events store identical bytes.
func marshalArgs(args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	data, err := ir.MarshalCanonical(args)
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs parses stored args. Numbers become int64; floats are
// rejected because marshalArgs never writes them.
func unmarshalArgs(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}

	out, err := convertNumbers(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return out.(map[string]any), nil
}

func convertNumbers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats are forbidden: %s", val)
		}
		return n, nil
	case []any:
		for i, elem := range val {
			c, err := convertNumbers(elem)
			if err != nil {
				return nil, err
			}
			val[i] = c
		}
		return val, nil
	case map[string]any:
		if val == nil {
			return map[string]any{}, nil
		}
		for k, elem := range val {
			c, err := convertNumbers(elem)
			if err != nil {
				return nil, err
			}
			val[k] = c
		}
		return val, nil
	default:
		return val, nil
	}
}
