package store

import (
	"encoding/json"
	"fmt"
)

// encodeMap converts a document into its JSON object form.
func encodeMap(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	return m, nil
}

// decodeMap fills dst from a JSON object form.
func decodeMap(m map[string]any, dst any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return decodeRaw(raw, dst)
}

func decodeRaw(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}

// overlay copies fields onto base and returns base.
func overlay(base, fields map[string]any) map[string]any {
	if base == nil {
		base = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		base[k] = v
	}
	return base
}

// normalizeFields passes fields through JSON so every backend stores the same
// representation (structs become objects, times become RFC 3339 strings).
func normalizeFields(fields map[string]any) (map[string]any, error) {
	return encodeMap(fields)
}
