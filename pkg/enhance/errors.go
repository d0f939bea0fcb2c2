package enhance

import "errors"

var(
	// ErrDecode means the bytes claim to be an image we support, but don't decode.
	ErrDecode            = errors.New("image decode failed")

	// ErrUnsupportedFormat means the bytes aren't a raster format we read at all.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrEncode is fatal; even the floor quality failed to encode.
	ErrEncode            = errors.New("image encode failed")

	ErrUnknownPreset     = errors.New("unknown preset")
)

// IsInputError reports whether err is the user's photo's fault, rather than ours.
func IsInputError(err error) bool {
	return errors.Is(err, ErrDecode) || errors.Is(err, ErrUnsupportedFormat)
}
