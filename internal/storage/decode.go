package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"

	qoi "github.com/dp88/go-qoi"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	qoiMagic      = "qoif"
	qoiHeaderSize = 14

	// MaxImagePixels bounds images decoded from memory
	MaxImagePixels = 64 << 20
)

func init() {
	image.RegisterFormat("qoi", qoiMagic, qoi.Decode, decodeQOIConfig)
}

// decodeQOIConfig reads the 14-byte QOI header: magic, width, height,
// channels, colorspace.
func decodeQOIConfig(r io.Reader) (image.Config, error) {
	var header [qoiHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return image.Config{}, err
	}
	if string(header[:4]) != qoiMagic {
		return image.Config{}, errors.New("qoi: invalid magic")
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(binary.BigEndian.Uint32(header[4:8])),
		Height:     int(binary.BigEndian.Uint32(header[8:12])),
	}, nil
}

// DecodeImage decodes any registered raster format (PNG, JPEG, GIF, WebP,
// BMP, TIFF, QOI). Failures are reported as image decode errors.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", apperrors.NewImageDecodeError("failed to decode image", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, format, apperrors.NewImageDecodeError("image has no pixels", nil)
	}
	return img, format, nil
}

// DecodeConfig reads only the dimensions and format of an encoded image.
func DecodeConfig(r io.Reader) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, "", apperrors.NewImageDecodeError("failed to read image header", err)
	}
	return cfg, format, nil
}

// DecodeBytes decodes an image held in memory. The header is read first so
// that images above MaxImagePixels are refused before pixels are allocated.
func DecodeBytes(data []byte) (image.Image, string, error) {
	cfg, _, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", apperrors.NewImageDecodeError("image has no pixels", nil)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, "", apperrors.NewImageDecodeError("image is too large", nil).
			WithDetails(fmt.Sprintf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxImagePixels))
	}
	return DecodeImage(bytes.NewReader(data))
}
