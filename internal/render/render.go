// File: internal/render/render.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package render turns captured frames into images: grayscale conversion,
// BMP snapshots and sixel previews for terminals.
package render

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-sixel"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/momentics/frameq/api"
)

// Gray copies the frame payload into a new grayscale image. Width and
// height come from the frame metadata.
func Gray(f api.Frame) (*image.Gray, error) {
	w, h := f.Info.Width, f.Info.Height
	if w <= 0 || h <= 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "render: frame has no geometry").
			WithContext("index", f.Index)
	}
	src := f.Payload()
	img := image.NewGray(image.Rect(0, 0, w, h))
	switch f.Info.Format {
	case api.PixelMono8, api.PixelBayer8, api.PixelUnknown:
		if len(src) < w*h {
			return nil, short(f, w*h)
		}
		copy(img.Pix, src[:w*h])
	case api.PixelMono16:
		if len(src) < 2*w*h {
			return nil, short(f, 2*w*h)
		}
		for i := range img.Pix {
			img.Pix[i] = byte(binary.LittleEndian.Uint16(src[2*i:]) >> 8)
		}
	case api.PixelRGB24:
		if len(src) < 3*w*h {
			return nil, short(f, 3*w*h)
		}
		for i := range img.Pix {
			p := src[3*i:]
			img.Pix[i] = color.GrayModel.Convert(color.RGBA{p[0], p[1], p[2], 0xff}).(color.Gray).Y
		}
	default:
		return nil, api.NewError(api.ErrCodeNotSupported, "render: unsupported pixel format").
			WithContext("format", f.Info.Format.String())
	}
	return img, nil
}

func short(f api.Frame, need int) error {
	return api.NewError(api.ErrCodeInvalidArgument, "render: payload shorter than geometry").
		WithContext("index", f.Index).WithContext("have", len(f.Payload())).WithContext("need", need)
}

// SaveBMP writes img to path. The file appears complete or not at all.
func SaveBMP(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.bmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := bmp.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("render: encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Snapshot saves f as dir/frame-<seq>.bmp and returns the path.
func Snapshot(dir string, f api.Frame) (string, error) {
	img, err := Gray(f)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%08d.bmp", f.Seq))
	return path, SaveBMP(path, img)
}

// Scale shrinks img to at most maxWidth pixels wide, keeping the aspect ratio.
func Scale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewGray(image.Rect(0, 0, maxWidth, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Sixel writes img to w as a sixel graphic no wider than maxWidth.
func Sixel(w io.Writer, img image.Image, maxWidth int) error {
	scaled := Scale(img, maxWidth)
	enc := sixel.NewEncoder(w)
	enc.Dither = false
	enc.Width = scaled.Bounds().Dx()
	enc.Height = scaled.Bounds().Dy()
	return enc.Encode(scaled)
}
