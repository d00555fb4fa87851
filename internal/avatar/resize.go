// Package avatar shrinks profile pictures into data URIs small enough for
// local storage.
package avatar

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

// Defaults used by the profile form.
const (
	MaxWidth  = 200
	MaxHeight = 200
	Quality   = 70
)

// Resize decodes an image and scales it to fit maxW x maxH, keeping its
// aspect ratio. Landscape images are bound by width, others by height.
// Smaller images are not enlarged. The result is a JPEG data URI.
func Resize(r io.Reader, maxW, maxH int) (string, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode avatar: %w", err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), maxW, maxH)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return "", fmt.Errorf("encode avatar: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func fit(w, h, maxW, maxH int) (int, int) {
	if w > h {
		if w > maxW {
			h = h * maxW / w
			w = maxW
		}
	} else if h > maxH {
		w = w * maxH / h
		h = maxH
	}
	return max(w, 1), max(h, 1)
}
