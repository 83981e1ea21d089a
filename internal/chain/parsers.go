package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
)

// =============================================================================
// Stack Item Parsers
// =============================================================================

// ParseInteger parses an integer from a StackItem.
func ParseInteger(item StackItem) (*big.Int, error) {
	if item.Type == "Integer" {
		var value string
		if err := json.Unmarshal(item.Value, &value); err != nil {
			return nil, err
		}
		n, ok := new(big.Int).SetString(value, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer value %q", value)
		}
		return n, nil
	}
	return nil, fmt.Errorf("unexpected type: %s", item.Type)
}

// ParseBoolean parses a boolean from a StackItem.
func ParseBoolean(item StackItem) (bool, error) {
	if item.Type == "Boolean" {
		var value bool
		if err := json.Unmarshal(item.Value, &value); err != nil {
			return false, err
		}
		return value, nil
	}
	return false, fmt.Errorf("unexpected type: %s", item.Type)
}

// ParseString parses a UTF-8 string from a ByteString or Buffer StackItem.
func ParseString(item StackItem) (string, error) {
	if item.Type == "ByteString" || item.Type == "Buffer" {
		var value string
		if err := json.Unmarshal(item.Value, &value); err != nil {
			return "", err
		}
		decoded, err := hex.DecodeString(value)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}
	if item.Type == "Null" {
		return "", nil
	}
	return "", fmt.Errorf("unexpected type for string: %s", item.Type)
}

// firstStackInteger extracts the single integer a view-function returns.
func firstStackInteger(result *InvokeResult, method string) (*big.Int, error) {
	if result.State != "HALT" {
		return nil, fmt.Errorf("%s failed: %s", method, result.Exception)
	}
	if len(result.Stack) == 0 {
		return nil, fmt.Errorf("%s returned empty stack", method)
	}
	value, err := ParseInteger(result.Stack[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return value, nil
}
