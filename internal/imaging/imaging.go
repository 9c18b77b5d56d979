// Package imaging validates and normalizes uploaded item photos. Every
// accepted upload is decoded, bounded, and re-encoded as JPEG, so the
// stored files are never client-controlled bytes.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/Losthero1640/rewear/internal/apperror"
)

const (
	// MaxDimension bounds the longer edge of stored photos.
	MaxDimension = 1280

	// MaxUploadBytes caps a single photo upload before decoding.
	MaxUploadBytes = 8 << 20

	jpegQuality = 80
)

// allowedMIME lists the accepted input types, keyed by the sniffed
// content type rather than the client-supplied header.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Normalize reads one uploaded photo, rejects anything that is not a real
// JPEG or PNG, downscales oversized images, and returns JPEG bytes ready
// to store. Format and size problems come back as apperror.ErrValidation.
func Normalize(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("imaging: reading upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, apperror.ValidationFailed("images", "image exceeds the upload size limit")
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, apperror.ValidationFailed("images", "only JPEG and PNG images are accepted")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.ValidationFailed("images", "image could not be decoded")
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale resizes so neither dimension exceeds maxDim, preserving aspect
// ratio. Images already within bounds pass through untouched.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
