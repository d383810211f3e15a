package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeList parses a list response that is either a bare JSON array or an object carrying
// the array under one of keys. Anything else is ErrUnexpectedShape.
func DecodeList[T any](raw json.RawMessage, keys ...string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrUnexpectedShape)
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		return items, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		for _, key := range keys {
			inner, ok := envelope[key]
			if !ok {
				continue
			}
			inner = bytes.TrimSpace(inner)
			if len(inner) == 0 || inner[0] != '[' {
				return nil, fmt.Errorf("%w: %q is not a list", ErrUnexpectedShape, key)
			}
			var items []T
			if err := json.Unmarshal(inner, &items); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
			}
			return items, nil
		}
		return nil, fmt.Errorf("%w: object without %v", ErrUnexpectedShape, keys)
	}
	return nil, fmt.Errorf("%w: %.32s", ErrUnexpectedShape, trimmed)
}
