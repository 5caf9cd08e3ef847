package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
)

var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// jsonColumn encodes v for a JSONB column; nil maps become SQL NULL.
// The value is passed as text since lib/pq sends []byte as bytea.
func jsonColumn(v any) (any, error) {
	switch m := v.(type) {
	case map[string]string:
		if m == nil {
			return nil, nil
		}
	case map[string]any:
		if m == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// decodeJSON fills dst from a nullable JSONB value.
func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
