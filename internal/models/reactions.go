package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Reaction kinds a post accepts.
var ReactionKinds = map[string]bool{
	"heart":    true,
	"thumbsUp": true,
	"smile":    true,
}

// Reactions counts reactions per kind, stored as jsonb.
type Reactions map[string]int

// Value 实现 driver.Valuer 接口
func (r Reactions) Value() (driver.Value, error) {
	if r == nil {
		return "{}", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (r *Reactions) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*r = Reactions{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("cannot scan into Reactions")
	}
	out := Reactions{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*r = out
	return nil
}
