package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(4.2)
	var _ Value = Bool(true)
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestObjectSortedKeysUTF16Order(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 byte order but after it in UTF-16
	// code unit order (the emoji encodes as a 0xD83D surrogate).
	obj := Object{
		"\U0001F600": Int(1),
		"\uFF61":     Int(2),
	}

	assert.Equal(t, []string{"\U0001F600", "\uFF61"}, obj.SortedKeys())
}

func TestUnmarshalDistinguishesIntAndFloat(t *testing.T) {
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":1.5,"c":2.0,"d":1e3,"e":null}`), &obj))

	assert.Equal(t, Int(1), obj["a"])
	assert.Equal(t, Float(1.5), obj["b"])
	assert.Equal(t, Float(2), obj["c"])
	assert.Equal(t, Float(1000), obj["d"])
	assert.Equal(t, Null{}, obj["e"])
}

func TestUnmarshalLargeIntegerKeepsPrecision(t *testing.T) {
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(`{"n":9007199254740993}`), &obj))

	assert.Equal(t, Int(9007199254740993), obj["n"])
}

func TestUnmarshalNested(t *testing.T) {
	var v Object
	require.NoError(t, json.Unmarshal([]byte(` {"items":[{"sku":"A-1","qty":2}],"ok":true} `), &v))

	want := Object{
		"items": Array{Object{"sku": String("A-1"), "qty": Int(2)}},
		"ok":    Bool(true),
	}
	assert.Equal(t, want, v)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var obj Object
	assert.Error(t, json.Unmarshal([]byte(`{"a":`), &obj))
	assert.Error(t, json.Unmarshal([]byte(`{"a":[1,}`), &obj))
	assert.Error(t, obj.UnmarshalJSON(nil))
}

func TestFloatMarshalKeepsDecimalPoint(t *testing.T) {
	data, err := json.Marshal(Object{"price": Float(20)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":20.0}`, string(data))
	assert.Contains(t, string(data), "20.0")
}

func TestFromAny(t *testing.T) {
	got, err := FromAny(map[string]any{
		"name":   "widget",
		"count":  3,
		"weight": 1.25,
		"tags":   []any{"a", "b"},
		"nested": map[any]any{"x": uint8(7)},
		"none":   nil,
	})
	require.NoError(t, err)

	want := Object{
		"name":   String("widget"),
		"count":  Int(3),
		"weight": Float(1.25),
		"tags":   Array{String("a"), String("b")},
		"nested": Object{"x": Int(7)},
		"none":   Null{},
	}
	assert.Equal(t, want, got)
}

func TestFromAnyRejectsUnsupported(t *testing.T) {
	_, err := FromAny(struct{}{})
	assert.Error(t, err)

	_, err = FromAny(uint64(math.MaxUint64))
	assert.Error(t, err)

	_, err = FromAny(map[any]any{1: "x"})
	assert.Error(t, err)
}

func TestObjectFromMapNilIsEmpty(t *testing.T) {
	obj, err := ObjectFromMap(nil)
	require.NoError(t, err)
	assert.NotNil(t, obj)
	assert.Empty(t, obj)
}
