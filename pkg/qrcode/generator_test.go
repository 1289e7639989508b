package qrcode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/pkg/qrcode"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestGenerate(t *testing.T) {
	png, err := qrcode.Generate("https://pay.stackdek.test/inv_123", 256)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader))
}

func TestGenerate_DefaultSize(t *testing.T) {
	png, err := qrcode.Generate("https://pay.stackdek.test/inv_123", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestGenerate_EmptyContent(t *testing.T) {
	_, err := qrcode.Generate("   ", 128)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}

func TestGenerateBase64Image(t *testing.T) {
	uri, err := qrcode.GenerateBase64Image("https://pay.stackdek.test/inv_123", 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
