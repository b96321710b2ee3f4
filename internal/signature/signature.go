// Package signature validates and renders electronic signatures. A signature
// is either a typed name or a captured drawing encoded as an image data URI.
package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/color"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
)

const MinTypedLength = 3

const dataURIPrefix = "data:"

var (
	ErrEmpty      = errors.New("signature is empty")
	ErrTooShort   = errors.New("typed signature must be at least 3 characters")
	ErrNoStrokes  = errors.New("drawn signature needs at least one stroke")
	ErrBadDataURI = errors.New("signature image is not a valid data URI")
	ErrNotAnImage = errors.New("signature data URI is not a PNG or JPEG image")
)

var allowedImageMIME = []string{"image/png", "image/jpeg"}

// Point is a canvas coordinate in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pen movement.
type Stroke []Point

// Image is a decoded data-URI signature.
type Image struct {
	MIME string
	Data []byte
}

// IsDataURI reports whether s looks like a data URI rather than a typed name.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), dataURIPrefix)
}

// Validate accepts a typed name of at least MinTypedLength characters or a
// base64 PNG/JPEG data URI.
func Validate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmpty
	}
	if IsDataURI(s) {
		_, err := Decode(s)
		return err
	}
	if utf8.RuneCountInString(s) < MinTypedLength {
		return ErrTooShort
	}
	return nil
}

// Decode parses an image data URI and sniffs the payload type.
func Decode(s string) (*Image, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, dataURIPrefix) {
		return nil, ErrBadDataURI
	}
	header, payload, ok := strings.Cut(s[len(dataURIPrefix):], ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, ErrBadDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, ErrBadDataURI
	}

	mime := http.DetectContentType(data)
	for _, allowed := range allowedImageMIME {
		if mime == allowed {
			return &Image{MIME: mime, Data: data}, nil
		}
	}
	return nil, ErrNotAnImage
}

// Extension returns the file extension matching the image type.
func (i *Image) Extension() string {
	if i.MIME == "image/jpeg" {
		return ".jpg"
	}
	return ".png"
}

// Render rasterises strokes onto a white canvas and returns a PNG data URI.
func Render(strokes []Stroke, width, height int) (string, error) {
	if !hasInk(strokes) {
		return "", ErrNoStrokes
	}
	if width <= 0 || height <= 0 {
		width, height = 400, 150
	}

	img := imaging.New(width, height, color.White)
	ink := color.NRGBA{A: 255}
	for _, stroke := range strokes {
		if len(stroke) == 1 {
			img.Set(int(stroke[0].X), int(stroke[0].Y), ink)
			continue
		}
		for i := 1; i < len(stroke); i++ {
			line(img.Set, stroke[i-1], stroke[i], ink)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func hasInk(strokes []Stroke) bool {
	for _, s := range strokes {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

// line draws with Bresenham's algorithm.
func line(set func(x, y int, c color.Color), a, b Point, c color.Color) {
	x0, y0 := int(a.X), int(a.Y)
	x1, y1 := int(b.X), int(b.Y)
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
