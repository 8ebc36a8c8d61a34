package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	// Register the WebP decoder. Encoding goes through go-webp below,
	// x/image only ships the decode side.
	_ "golang.org/x/image/webp"
)

// Quality for lossy WebP output.
const webpQuality = 85

// ErrUnsupportedFormat is returned when the source bytes cannot be decoded
// as an image, or the detected format has no matching encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Resize scales the source image to the requested box and re-encodes it in
// the source format.
//
// With keepRatio the image is fit inside width x height preserving aspect
// ratio and is never upscaled beyond its native resolution. If the encoded
// result comes out larger than the input (already small or already heavily
// compressed sources), the original bytes are returned unchanged.
//
// Without keepRatio the image is scaled and center-cropped to exactly fill
// the box.
func Resize(data []byte, width, height int, keepRatio bool) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var dst image.Image
	if keepRatio {
		dst = imaging.Fit(src, width, height, imaging.Lanczos)
	} else {
		dst = imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)
	}

	out, err := encode(dst, format)
	if err != nil {
		return nil, err
	}

	if keepRatio && len(out) > len(data) {
		return data, nil
	}
	return out, nil
}

// Dimensions reads the pixel size from the encoded header without decoding
// the full image.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return cfg.Width, cfg.Height, nil
}

// encode writes img in the named format. Format names follow the decoder
// registry ("jpeg", "png", "gif", "webp", "bmp", "tiff").
func encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer

	if format == "webp" {
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, webpQuality)
		if err != nil {
			return nil, fmt.Errorf("error creating WebP encoder options: %w", err)
		}
		if err := webp.Encode(&buf, img, options); err != nil {
			return nil, fmt.Errorf("error encoding WebP image: %w", err)
		}
		return buf.Bytes(), nil
	}

	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err := imaging.Encode(&buf, img, f); err != nil {
		return nil, fmt.Errorf("error encoding %s image: %w", format, err)
	}
	return buf.Bytes(), nil
}
