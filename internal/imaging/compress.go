package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // register decoders
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strings"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"sebasite/internal/services"
)

// DataURIPrefix prefixes every inline image produced by Compress.
const DataURIPrefix = "data:image/jpeg;base64,"

const (
	DefaultMaxDimension = 1920
	DefaultQuality      = 0.7
)

// Options bounds and encodes images.
type Options struct {
	// MaxDimension caps the longer axis in pixels.
	MaxDimension int
	// Quality is the JPEG quality in (0,1].
	Quality float64
	// MaxBytes rejects larger inputs; zero disables the check.
	MaxBytes int64
}

// DefaultOptions returns the site defaults.
func DefaultOptions() Options {
	return Options{MaxDimension: DefaultMaxDimension, Quality: DefaultQuality}
}

func (o Options) normalized() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	return o
}

// JPEGQuality converts a (0,1] quality to the 1..100 encoder scale.
func (o Options) JPEGQuality() int {
	q := int(math.Round(o.normalized().Quality * 100))
	return max(1, min(100, q))
}

// Image is one compressed inline image.
type Image struct {
	Name    string `json:"name"`
	DataURI string `json:"data_uri"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	// SourceWidth and SourceHeight are the decoded input dimensions.
	SourceWidth  int    `json:"source_width"`
	SourceHeight int    `json:"source_height"`
	Format       string `json:"format"`
}

// DecodeError reports a file the pipeline could not turn into an image.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%v: %v", services.ErrDecode, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", services.ErrDecode, e.Name, e.Err)
}

// Unwrap exposes both the decode marker and the underlying cause.
func (e *DecodeError) Unwrap() []error { return []error{services.ErrDecode, e.Err} }

var errTooLarge = errors.New("file exceeds upload limit")

// Compress decodes r, bounds it to opts.MaxDimension and re-encodes it as JPEG.
func Compress(name string, r io.Reader, opts Options) (Image, error) {
	opts = opts.normalized()
	if opts.MaxBytes > 0 {
		r = io.LimitReader(r, opts.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Image{}, &DecodeError{Name: name, Err: fmt.Errorf("read: %w", err)}
	}
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return Image{}, &DecodeError{Name: name, Err: fmt.Errorf("%w (%d bytes)", errTooLarge, opts.MaxBytes)}
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, &DecodeError{Name: name, Err: err}
	}
	bounds := src.Bounds()
	width, height := TargetSize(bounds.Dx(), bounds.Dy(), opts.MaxDimension)

	encoded, err := encodeJPEG(resize(src, width, height), opts.JPEGQuality())
	if err != nil {
		return Image{}, &DecodeError{Name: name, Err: fmt.Errorf("encode: %w", err)}
	}
	return Image{
		Name:         name,
		DataURI:      DataURIPrefix + base64.StdEncoding.EncodeToString(encoded),
		Width:        width,
		Height:       height,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
		Format:       format,
	}, nil
}

// TargetSize scales (w, h) so the longer axis equals bound when it exceeds
// it. The shorter axis is rounded to the nearest pixel and never below one.
// Images within the bound are returned unchanged.
func TargetSize(w, h, bound int) (int, int) {
	if bound <= 0 || (w <= bound && h <= bound) {
		return w, h
	}
	if w >= h {
		return bound, max(1, int(math.Round(float64(h)*float64(bound)/float64(w))))
	}
	return max(1, int(math.Round(float64(w)*float64(bound)/float64(h)))), bound
}

func resize(src image.Image, width, height int) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	// JPEG has no alpha; flatten transparency onto white.
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if bounds.Dx() == width && bounds.Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseDataURI decodes an inline image back to its bytes and media type.
func ParseDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, "", &DecodeError{Err: errors.New("not a data URI")}
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", &DecodeError{Err: errors.New("data URI has no payload")}
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", &DecodeError{Err: errors.New("data URI is not base64 encoded")}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", &DecodeError{Err: fmt.Errorf("decode base64: %w", err)}
	}
	return data, mediaType, nil
}
