// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media inspects, measures and thumbnails uploaded raster images.

# Upload Checks

[Inspect] applies the upload rules in a fixed order:
  1. Size: more than [constants.MaxUploadBytes] is PAYLOAD_TOO_LARGE.
  2. Type: the content type is sniffed from the bytes, never taken from the
     filename or the multipart header. Only JPEG, PNG and WebP pass;
     anything else is UNSUPPORTED_MEDIA_TYPE.
  3. Canvas: the header is read first and more than
     [constants.MaxImagePixels] is PAYLOAD_TOO_LARGE, before any pixel
     buffer is allocated.
  4. Integrity: the whole raster is decoded. Truncated or garbage payloads
     that carry a valid signature are CORRUPT_IMAGE.
*/
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
)

// Accepted content types.
const (
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
	TypeWebP = "image/webp"
)

// Thumbnail bounds. Images are fitted inside the box keeping aspect ratio.
const (
	ThumbnailWidth   = 400
	ThumbnailHeight  = 400
	thumbnailQuality = 85
)

var extensions = map[string]string{
	TypeJPEG: "jpg",
	TypePNG:  "png",
	TypeWebP: "webp",
}

// Info describes an image that passed every upload check.
type Info struct {
	ContentType string
	Extension   string
	Width       int
	Height      int
	Image       image.Image
}

// Inspect validates an upload and decodes it.
func Inspect(data []byte) (*Info, error) {
	if int64(len(data)) > constants.MaxUploadBytes {
		return nil, apperr.PayloadTooLarge(constants.MaxUploadBytes)
	}

	contentType, err := Sniff(data)
	if err != nil {
		return nil, err
	}

	if _, _, err := checkCanvas(data); err != nil {
		return nil, err
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.CorruptImage(err)
	}

	bounds := decoded.Bounds()
	return &Info{
		ContentType: contentType,
		Extension:   extensions[contentType],
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Image:       decoded,
	}, nil
}

// Sniff detects the content type from the leading bytes and rejects anything
// outside the allow-list.
func Sniff(data []byte) (string, error) {
	detected := mimetype.Detect(data)
	for contentType := range extensions {
		if detected.Is(contentType) {
			return contentType, nil
		}
	}
	return "", apperr.UnsupportedMediaType(detected.String())
}

// Extension returns the file extension for an accepted content type.
func Extension(contentType string) string {
	return extensions[contentType]
}

// Dimensions reads the pixel size from an encoded image stream.
func Dimensions(reader io.Reader) (width, height int, err error) {
	config, _, err := image.DecodeConfig(reader)
	if err != nil {
		return 0, 0, apperr.CorruptImage(err)
	}
	return config.Width, config.Height, nil
}

// checkCanvas reads only the header and enforces the pixel budget.
func checkCanvas(data []byte) (width, height int, err error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, apperr.CorruptImage(err)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return 0, 0, apperr.CorruptImage(fmt.Errorf("media: empty canvas %dx%d", config.Width, config.Height))
	}
	if int64(config.Width)*int64(config.Height) > constants.MaxImagePixels {
		return 0, 0, apperr.ImageTooLarge(constants.MaxImagePixels)
	}
	return config.Width, config.Height, nil
}

// Thumbnail fits img inside the thumbnail box and encodes it as JPEG.
func Thumbnail(img image.Image) ([]byte, error) {
	fitted := imaging.Fit(img, ThumbnailWidth, ThumbnailHeight, imaging.Lanczos)
	return encodeJPEG(fitted)
}

// ThumbnailFrom decodes an encoded image and renders its thumbnail. The
// canvas is checked against the pixel budget before decoding.
func ThumbnailFrom(reader io.Reader) ([]byte, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("media: read image: %w", err)
	}
	if _, _, err := checkCanvas(data); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.CorruptImage(err)
	}
	return Thumbnail(img)
}

// Placeholder renders a width×height JPEG with a vertical two-colour
// gradient. Used for demo content.
func Placeholder(width, height int, top, bottom color.NRGBA) ([]byte, error) {
	canvas := imaging.New(width, height, top)
	for y := 0; y < height; y++ {
		ratio := float64(y) / float64(max(height-1, 1))
		row := color.NRGBA{
			R: blend(top.R, bottom.R, ratio),
			G: blend(top.G, bottom.G, ratio),
			B: blend(top.B, bottom.B, ratio),
			A: 255,
		}
		for x := 0; x < width; x++ {
			canvas.SetNRGBA(x, y, row)
		}
	}
	return encodeJPEG(canvas)
}

func blend(from, to uint8, ratio float64) uint8 {
	return uint8(float64(from) + (float64(to)-float64(from))*ratio)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buffer bytes.Buffer
	if err := imaging.Encode(&buffer, img, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, fmt.Errorf("media: encode jpeg: %w", err)
	}
	return buffer.Bytes(), nil
}
