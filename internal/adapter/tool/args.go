package tool

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"better-todo/internal/domain/entity"
)

// args is the loosely typed object a model sends. Values are expected to be
// strings but numbers and booleans are accepted and stringified.
type args map[string]any

func decodeArgs(raw string) (args, error) {
	a := args{}
	if strings.TrimSpace(raw) == "" {
		return a, nil
	}
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return a, nil
}

// optional returns the trimmed value of key and whether it was present.
func (a args) optional(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return strings.TrimSpace(fmt.Sprint(t)), true
	}
}

func (a args) str(key string) string {
	v, _ := a.optional(key)
	return v
}

func (a args) required(key string) (string, error) {
	v, ok := a.optional(key)
	if !ok || v == "" {
		return "", fmt.Errorf("missing %s: %w", key, entity.ErrValidation)
	}
	return v, nil
}

func (a args) optionalPtr(key string) *string {
	v, ok := a.optional(key)
	if !ok {
		return nil
	}
	return &v
}

func (a args) optionalBool(key string) (*bool, error) {
	v, ok := a.optional(key)
	if !ok || v == "" {
		return nil, nil
	}
	b, err := parseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &b, nil
}

func (a args) optionalDate(key string) (*string, error) {
	v, ok := a.optional(key)
	if !ok || v == "" {
		return nil, nil
	}
	if err := validateDate(v); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &v, nil
}

func (a args) requiredDate(key string) (string, error) {
	v, err := a.required(key)
	if err != nil {
		return "", err
	}
	if err := validateDate(v); err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("expected \"true\" or \"false\", got %q: %w", s, entity.ErrValidation)
}

// parseIDList splits a comma-joined id list, dropping blanks.
func parseIDList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateDate(s string) error {
	if _, err := time.Parse(entity.DateLayout, s); err != nil {
		return fmt.Errorf("expected YYYY-MM-DD, got %q: %w", s, entity.ErrValidation)
	}
	return nil
}
