package codec

import "encoding/json"

// JSON is the standard-library JSON codec.
//
// It is the most portable option: no dependencies, stable output, decodable
// by any tooling that can read JSON. Prefer it when snapshots must be
// inspected or consumed outside this library.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }
