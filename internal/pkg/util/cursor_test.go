package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	encoded := EncodeCursor([]interface{}{"2026-03-01T12:00:00Z", float64(42)})
	require.NotEmpty(t, encoded)

	values, err := DecodeCursor(encoded)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "2026-03-01T12:00:00Z", values[0])
	assert.Equal(t, float64(42), values[1])
}

func TestEncodeCursorEmpty(t *testing.T) {
	assert.Empty(t, EncodeCursor(nil))
	assert.Empty(t, EncodeCursor([]interface{}{}))
}

func TestDecodeCursorEmpty(t *testing.T) {
	values, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestDecodeCursorInvalid(t *testing.T) {
	_, err := DecodeCursor("not-base64!!!")
	assert.Error(t, err)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "hello", TruncateRunes("hello", 10))
	assert.Equal(t, "hel...", TruncateRunes("hello", 3))
	// 中文按字符数截断，不得截断在字节中间
	assert.Equal(t, "你好...", TruncateRunes("你好世界", 2))
	assert.Equal(t, "你好世界", TruncateRunes("你好世界", 4))
}
