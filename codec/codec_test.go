package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	tests := []struct {
		name   string
		wantOK bool
	}{
		{"json", true},
		{"go-json", true},
		{"gob", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ByName(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.name, c.Name())
			}
		})
	}
}

func TestCodecsAgree(t *testing.T) {
	type payload struct {
		IDs     []string    `json:"ids"`
		Vectors [][]float32 `json:"vectors"`
	}

	in := payload{
		IDs:     []string{"a", "b"},
		Vectors: [][]float32{{1, 0, 0}, {0, 0.6, 0.8}},
	}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out payload
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}

	// The two codecs must stay wire-compatible: either can decode the
	// other's output.
	data, err := GoJSON{}.Marshal(in)
	require.NoError(t, err)
	var out payload
	require.NoError(t, JSON{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
