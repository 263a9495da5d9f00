// Package codec centralizes value encoding for persisted snapshots and
// metadata payloads.
//
// Codec selection is a compatibility boundary: snapshot headers record the
// codec name, and files are decoded with the codec named in their header, so
// changing the default never breaks existing files.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Snapshot files store the codec name in their header and resolve it through
// this function on load.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec used when none is configured.
//
// Newly written snapshots use this codec; existing files are self-describing
// and unaffected by changes to the default.
var Default Codec = GoJSON{}
