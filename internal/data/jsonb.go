package data

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func jsonbValue(v interface{}, column string) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s to json: %w", column, err)
	}
	return string(b), nil
}

func scanJSONB(src interface{}, dest interface{}, column string) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scanning %s: unsupported type %T", column, src)
	}

	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("unmarshaling %s column: %w", column, err)
	}
	return nil
}
