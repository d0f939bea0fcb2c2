package enhance

import(
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/abworrall/wowshot/pkg/ecolor"
)

// The raster formats we'll decode, by sniffed MIME type
var supportedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

// SniffFormat returns the MIME type of the bytes, or ErrUnsupportedFormat
func SniffFormat(data []byte) (string, error) {
	mtype := mimetype.Detect(data)
	for _, t := range supportedMimeTypes {
		if mtype.Is(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("sniffed '%s': %w", mtype.String(), ErrUnsupportedFormat)
}

// DecodeImage decodes the bytes, and rotates/flips them upright according
// to any EXIF orientation tag.
func DecodeImage(data []byte) (image.Image, error) {
	mt, err := SniffFormat(data)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", mt, err, ErrDecode)
	}

	if mt == "image/jpeg" || mt == "image/tiff" {
		img = applyOrientation(img, readOrientation(data))
	}
	return img, nil
}

// Load is DecodeImage, into a working buffer.
func Load(data []byte) (ecolor.RGBGrid, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return ecolor.RGBGrid{}, err
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return ecolor.RGBGrid{}, fmt.Errorf("empty image %v: %w", b, ErrDecode)
	}
	return ecolor.NewRGBGridFromImage(img), nil
}

// readOrientation returns the EXIF orientation, 1 (upright) if there isn't one.
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		log.Printf("exif orientation tag unreadable: %v", err)
		return 1
	}
	return o
}

func applyOrientation(img image.Image, o int) image.Image {
	switch o {
	case 2: return imaging.FlipH(img)
	case 3: return imaging.Rotate180(img)
	case 4: return imaging.FlipV(img)
	case 5: return imaging.Transpose(img)
	case 6: return imaging.Rotate270(img)
	case 7: return imaging.Transverse(img)
	case 8: return imaging.Rotate90(img)
	}
	return img
}
