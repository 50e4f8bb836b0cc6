package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
)

// Cover bounds. Crops larger than this are scaled down; smaller ones are
// kept at their size.
const (
	MaxCoverWidth  = 600
	MaxCoverHeight = 800
	jpegQuality    = 85

	// maxSourcePixels bounds the decoded source so a small file cannot
	// declare dimensions that need gigabytes of memory.
	maxSourcePixels = 50_000_000
)

// Rect is a crop rectangle in source image pixels, relative to the
// image's top-left corner.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Cover is a cropped, scaled and JPEG-encoded cover image.
type Cover struct {
	Data     []byte
	Width    int
	Height   int
	Hash     string // hex SHA-256 of Data
	BlurHash string
	Format   string // decoded source format
}

// Crop decodes r, crops it to rect and scales the result to fit within
// MaxCoverWidth x MaxCoverHeight. Undecodable input and empty or
// out-of-bounds rectangles are validation errors.
func Crop(r io.Reader, rect Rect) (*Cover, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domainerrors.Validation("unsupported or corrupt image").WithCause(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxSourcePixels/cfg.Height {
		return nil, domainerrors.Validationf("image dimensions %dx%d are too large", cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domainerrors.Validation("unsupported or corrupt image").WithCause(err)
	}

	b := src.Bounds()
	if rect.Width <= 0 || rect.Height <= 0 {
		return nil, domainerrors.Validation("crop rectangle is empty")
	}
	if rect.X < 0 || rect.Y < 0 || rect.X > b.Dx()-rect.Width || rect.Y > b.Dy()-rect.Height {
		return nil, domainerrors.Validationf("crop rectangle exceeds image bounds %dx%d", b.Dx(), b.Dy())
	}

	srcRect := image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height).Add(b.Min)
	w, h := fitWithin(rect.Width, rect.Height, MaxCoverWidth, MaxCoverHeight)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcRect, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	blur, err := ComputeBlurHash(dst)
	if err != nil {
		return nil, err
	}

	return &Cover{
		Data:     buf.Bytes(),
		Width:    w,
		Height:   h,
		Hash:     HashBytes(buf.Bytes()),
		BlurHash: blur,
		Format:   format,
	}, nil
}

// fitWithin scales (w, h) down to fit (maxW, maxH), keeping aspect ratio.
// It never scales up.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	if scale >= 1 {
		return w, h
	}
	return max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale)))
}
