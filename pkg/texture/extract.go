// Package texture derives single-channel grayscale images from packed
// texture files.
//
// A packed texture stores unrelated maps in its colour channels (occlusion in
// red, roughness in green, and so on). Extraction keeps one channel and
// replicates it into a grayscale image so tools that expect a standalone map
// can open it directly. Output is a pure function of the input bytes and the
// channel.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/modelibr/assetdav/pkg/catalog"
)

var (
	// ErrUnsupportedChannel is returned for any channel other than R, G, B or A.
	ErrUnsupportedChannel = errors.New("unsupported source channel")

	// ErrUnsupportedFormat is returned when the input is not a decodable image.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// grayPalette is the 256-level palette used for GIF output.
var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

// Extract decodes data, keeps channel and re-encodes the result as a
// grayscale image. The output format matches the input where an encoder is
// available (png, jpeg, gif, bmp, tiff), otherwise PNG. The returned MIME
// type describes the output.
func Extract(data []byte, channel catalog.SourceChannel) ([]byte, string, error) {
	if !channel.IsSingle() {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedChannel, channel)
	}

	mt := mimetype.Detect(data)
	if !isImage(mt) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	gray := extractGray(src, channel)

	var buf bytes.Buffer
	mime, err := encode(&buf, gray, format)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %s output: %w", format, err)
	}
	return buf.Bytes(), mime, nil
}

// OutputMIME reports the MIME type Extract produces for an input of the
// given MIME type, without decoding anything.
func OutputMIME(inputMIME string) string {
	switch inputMIME {
	case "image/jpeg", "image/gif", "image/bmp", "image/tiff":
		return inputMIME
	default:
		return "image/png"
	}
}

func isImage(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("image/png") || m.Is("image/jpeg") || m.Is("image/gif") ||
			m.Is("image/bmp") || m.Is("image/tiff") || m.Is("image/webp") {
			return true
		}
	}
	return false
}

// extractGray reads straight (non-premultiplied) channel values, the form in
// which packed textures store them.
func extractGray(src image.Image, channel catalog.SourceChannel) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			var v uint8
			switch channel {
			case catalog.ChannelR:
				v = c.R
			case catalog.ChannelG:
				v = c.G
			case catalog.ChannelB:
				v = c.B
			case catalog.ChannelA:
				v = c.A
			}
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: v})
		}
	}
	return out
}

func encode(w io.Writer, img *image.Gray, format string) (string, error) {
	switch format {
	case "jpeg":
		return "image/jpeg", jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case "gif":
		pal := image.NewPaletted(img.Bounds(), grayPalette)
		for i, v := range img.Pix {
			pal.Pix[i] = v
		}
		return "image/gif", gif.Encode(w, pal, &gif.Options{NumColors: 256})
	case "bmp":
		return "image/bmp", bmp.Encode(w, img)
	case "tiff":
		return "image/tiff", tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return "image/png", png.Encode(w, img)
	}
}
