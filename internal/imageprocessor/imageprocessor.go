package imageprocessor

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
)

// DefaultMIMEType is assumed when the payload cannot be identified as an image.
const DefaultMIMEType = "image/jpeg"

const jpegQuality = 90

// Image is an upload ready to be embedded in a vision request.
type Image struct {
	Data     []byte
	MIMEType string
	Resized  bool
}

// Prepare sniffs the payload type and, when the picture is larger than
// maxDimension on its longest side, downscales it and re-encodes it as JPEG.
// Payloads that cannot be decoded are passed through untouched; content is
// never rejected here. A maxDimension of 0 disables resizing.
func Prepare(data []byte, maxDimension uint) Image {
	out := Image{Data: data, MIMEType: DetectMIMEType(data)}
	if maxDimension == 0 {
		return out
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return out
	}

	bounds := img.Bounds()
	width, height := uint(bounds.Dx()), uint(bounds.Dy())
	if width <= maxDimension && height <= maxDimension {
		return out
	}

	// Zero keeps the aspect ratio for that side.
	var resized image.Image
	if width >= height {
		resized = resize.Resize(maxDimension, 0, img, resize.Lanczos3)
	} else {
		resized = resize.Resize(0, maxDimension, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return out
	}
	return Image{Data: buf.Bytes(), MIMEType: "image/jpeg", Resized: true}
}

// DetectMIMEType returns the image MIME type of data, or DefaultMIMEType when
// the bytes are not recognised as an image.
func DetectMIMEType(data []byte) string {
	detected := mimetype.Detect(data).String()
	if !strings.HasPrefix(detected, "image/") {
		return DefaultMIMEType
	}
	return detected
}
