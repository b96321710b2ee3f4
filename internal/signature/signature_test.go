package signature

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTyped(t *testing.T) {
	assert.NoError(t, Validate("Dr. Jane Doe"))
	assert.NoError(t, Validate("Ana"))
	assert.ErrorIs(t, Validate("  "), ErrEmpty)
	assert.ErrorIs(t, Validate("JD"), ErrTooShort)
}

func TestRenderProducesDecodablePNG(t *testing.T) {
	uri, err := Render([]Stroke{{{X: 10, Y: 10}, {X: 120, Y: 60}, {X: 200, Y: 20}}}, 0, 0)
	require.NoError(t, err)
	require.True(t, IsDataURI(uri))
	assert.NoError(t, Validate(uri))

	img, err := Decode(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIME)
	assert.Equal(t, ".png", img.Extension())
}

func TestRenderRequiresStroke(t *testing.T) {
	_, err := Render(nil, 100, 100)
	assert.ErrorIs(t, err, ErrNoStrokes)
	_, err = Render([]Stroke{{}}, 100, 100)
	assert.ErrorIs(t, err, ErrNoStrokes)
}

func TestDecodeRejectsNonImages(t *testing.T) {
	text := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello world"))
	_, err := Decode(text)
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = Decode("data:image/png,notbase64")
	assert.ErrorIs(t, err, ErrBadDataURI)

	assert.Error(t, Validate("data:image/png;base64,!!!"))
}
