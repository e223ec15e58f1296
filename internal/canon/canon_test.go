package canon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalise_Scenarios(t *testing.T) {
	t.Run("key ordering", func(t *testing.T) {
		got, err := Canonicalise(map[string]any{"b": int64(2), "a": int64(1)})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1,"b":2}`, string(got))
	})

	t.Run("utf8 byte ordering of keys", func(t *testing.T) {
		got, err := Canonicalise(map[string]any{"z": int64(1), "ä": int64(2)})
		require.NoError(t, err)
		assert.Equal(t, "{\"z\":1,\"\xc3\xa4\":2}", string(got))
	})

	t.Run("non-ascii strings are raw utf8", func(t *testing.T) {
		got, err := Canonicalise(map[string]any{"a": "café"})
		require.NoError(t, err)
		assert.Equal(t, "{\"a\":\"caf\xc3\xa9\"}", string(got))
	})

	t.Run("mixed array types", func(t *testing.T) {
		got, err := Canonicalise(map[string]any{
			"a": []any{int64(1), "two", 3.0, true, nil},
		})
		require.NoError(t, err)
		assert.Equal(t, `{"a":[1,"two",3.0,true,null]}`, string(got))
	})

	t.Run("empty containers", func(t *testing.T) {
		got, err := Canonicalise(map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(got))

		got, err = Canonicalise([]any{})
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(got))
	})

	t.Run("array order is preserved", func(t *testing.T) {
		a, err := Canonicalise([]any{int64(2), int64(1)})
		require.NoError(t, err)
		b, err := Canonicalise([]any{int64(1), int64(2)})
		require.NoError(t, err)
		assert.NotEqual(t, string(a), string(b))
	})

	t.Run("nested maps sort at every level", func(t *testing.T) {
		got, err := Canonicalise(map[string]any{
			"level1": map[string]any{
				"level2": map[string]any{
					"d": int64(4), "c": int64(3), "b": int64(2), "a": int64(1),
				},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, `{"level1":{"level2":{"a":1,"b":2,"c":3,"d":4}}}`, string(got))
	})

	t.Run("float gets explicit fractional part", func(t *testing.T) {
		got, err := Canonicalise(map[string]any{"b": 1.5})
		require.NoError(t, err)
		assert.Equal(t, `{"b":1.5}`, string(got))

		got, err = Canonicalise(map[string]any{"b": 3.0})
		require.NoError(t, err)
		assert.Equal(t, `{"b":3.0}`, string(got))
	})

	t.Run("types distinguish int from string, and true from false", func(t *testing.T) {
		a, err := Canonicalise(map[string]any{"a": int64(1)})
		require.NoError(t, err)
		b, err := Canonicalise(map[string]any{"a": "1"})
		require.NoError(t, err)
		assert.NotEqual(t, string(a), string(b))

		c, err := Canonicalise(map[string]any{"a": true})
		require.NoError(t, err)
		d, err := Canonicalise(map[string]any{"a": false})
		require.NoError(t, err)
		assert.NotEqual(t, string(c), string(d))
	})
}

func TestCanonicalise_Determinism(t *testing.T) {
	obj1 := map[string]any{"a": int64(1), "b": int64(2)}
	obj2 := map[string]any{"b": int64(2), "a": int64(1)}

	got1, err := Canonicalise(obj1)
	require.NoError(t, err)
	got2, err := Canonicalise(obj2)
	require.NoError(t, err)
	assert.Equal(t, string(got1), string(got2))
}

func TestCanonicalise_BadValue(t *testing.T) {
	t.Run("non-finite floats are rejected", func(t *testing.T) {
		_, err := Canonicalise(map[string]any{"a": math.NaN()})
		assert.Error(t, err)

		_, err = Canonicalise(map[string]any{"a": math.Inf(1)})
		assert.Error(t, err)
	})

	t.Run("unsupported dynamic type is rejected", func(t *testing.T) {
		_, err := Canonicalise(map[string]any{"a": make(chan int)})
		assert.Error(t, err)
	})
}
