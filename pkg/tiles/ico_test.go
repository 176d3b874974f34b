package tiles_test

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/TilesyncProject/tilesync-core/pkg/tiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsICOData(t *testing.T) {
	t.Parallel()

	assert.True(t, tiles.IsICOData([]byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00}))
	assert.False(t, tiles.IsICOData([]byte{0x89, 'P', 'N', 'G'}))
	assert.False(t, tiles.IsICOData([]byte{0x00, 0x00}))
}

func TestIconContainerRoundTrip(t *testing.T) {
	t.Parallel()

	src := solidImage(48, 48, color.NRGBA{120, 30, 60, 255})

	var buf bytes.Buffer
	require.NoError(t, tiles.EncodeShortcutIcon(&buf, src))
	require.True(t, tiles.IsICOData(buf.Bytes()))

	img, err := tiles.DecodeIconImage(buf.Bytes(), "game.ico")
	require.NoError(t, err)
	assert.Equal(t, 48, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	r, g, b, a := img.At(10, 10).RGBA()
	assert.Equal(t, uint32(120), r>>8)
	assert.Equal(t, uint32(30), g>>8)
	assert.Equal(t, uint32(60), b>>8)
	assert.Equal(t, uint32(255), a>>8)
}

func TestEncodeShortcutIconRejectsOversize(t *testing.T) {
	t.Parallel()

	big := solidImage(300, 300, color.NRGBA{0, 0, 0, 255})
	var buf bytes.Buffer
	assert.Error(t, tiles.EncodeShortcutIcon(&buf, big))
}
