package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	t.Run("known codecs", func(t *testing.T) {
		for _, name := range []string{"json", "go-json"} {
			c, ok := ByName(name)
			require.True(t, ok, name)
			assert.Equal(t, name, c.Name())
		}
	})

	t.Run("unknown codec", func(t *testing.T) {
		_, ok := ByName("msgpack")
		assert.False(t, ok)
	})
}

func TestCodec_Roundtrip(t *testing.T) {
	type header struct {
		Version uint32   `json:"version"`
		DOF     int      `json:"dof"`
		Names   []string `json:"names"`
	}

	in := header{Version: 3, DOF: 128, Names: []string{"scaling", "basis"}}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out header
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}
