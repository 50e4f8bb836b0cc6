package images

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
)

func encodePNG(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bytes.NewReader(buf.Bytes())
}

func TestCrop_ScalesDownToFit(t *testing.T) {
	cover, err := Crop(encodePNG(t, 1600, 1600), Rect{X: 100, Y: 0, Width: 1200, Height: 1600})
	require.NoError(t, err)

	assert.Equal(t, 600, cover.Width)
	assert.Equal(t, 800, cover.Height)
	assert.Equal(t, "png", cover.Format)
	assert.Equal(t, HashBytes(cover.Data), cover.Hash)
	assert.NotEmpty(t, cover.BlurHash)

	decoded, err := jpeg.Decode(bytes.NewReader(cover.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 800), decoded.Bounds())
}

func TestCrop_NeverUpscales(t *testing.T) {
	cover, err := Crop(encodePNG(t, 300, 300), Rect{X: 50, Y: 50, Width: 120, Height: 160})
	require.NoError(t, err)
	assert.Equal(t, 120, cover.Width)
	assert.Equal(t, 160, cover.Height)
}

func TestCrop_InvalidRectangles(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
	}{
		{"empty", Rect{X: 0, Y: 0, Width: 0, Height: 10}},
		{"negative origin", Rect{X: -1, Y: 0, Width: 10, Height: 10}},
		{"exceeds width", Rect{X: 95, Y: 0, Width: 10, Height: 10}},
		{"exceeds height", Rect{X: 0, Y: 50, Width: 10, Height: 51}},
		{"offset overflows", Rect{X: math.MaxInt, Y: 0, Width: 1, Height: 1}},
		{"size overflows", Rect{X: 1, Y: 1, Width: math.MaxInt, Height: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Crop(encodePNG(t, 100, 100), tt.rect)
			require.Error(t, err)
			assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
		})
	}
}

func TestCrop_UndecodableInput(t *testing.T) {
	_, err := Crop(bytes.NewReader([]byte("not an image")), Rect{Width: 1, Height: 1})
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestCrop_RejectsHugeDeclaredDimensions(t *testing.T) {
	data, err := io.ReadAll(encodePNG(t, 1, 1))
	require.NoError(t, err)

	// Rewrite the IHDR chunk to claim 100000x100000 pixels.
	binary.BigEndian.PutUint32(data[16:20], 100_000)
	binary.BigEndian.PutUint32(data[20:24], 100_000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	_, err = Crop(bytes.NewReader(data), Rect{Width: 1, Height: 1})
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "too large")
}

func TestFitWithin(t *testing.T) {
	w, h := fitWithin(1200, 900, 600, 800)
	assert.Equal(t, 600, w)
	assert.Equal(t, 450, h)

	w, h = fitWithin(400, 2000, 600, 800)
	assert.Equal(t, 160, w)
	assert.Equal(t, 800, h)
}

func TestThumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 320))
	thumb := thumbnail(img, blurHashSize)
	assert.Equal(t, 64, thumb.Bounds().Dx())
	assert.Equal(t, 32, thumb.Bounds().Dy())
}
