package postgres

import (
	"encoding/json"
	"fmt"
)

// jsonb wraps a Go value for a JSONB column. It marshals on write and
// unmarshals on scan; NULL leaves the target untouched.
type jsonb struct {
	target interface{}
}

func (j jsonb) value() ([]byte, error) {
	data, err := json.Marshal(j.target)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jsonb: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner.
func (j jsonb) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, j.target)
	case string:
		return json.Unmarshal([]byte(v), j.target)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
}
