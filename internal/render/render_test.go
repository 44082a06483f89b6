package render

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/momentics/frameq/api"
)

func mono8(w, h int) api.Frame {
	data := make([]byte, w*h)
	for i := range data {
		data[i] = byte(i)
	}
	return api.Frame{
		Index: 2,
		Seq:   41,
		Data:  data,
		Info:  api.FrameInfo{Width: w, Height: h, Format: api.PixelMono8, ImageSize: w * h},
	}
}

func TestGray(t *testing.T) {
	f := mono8(4, 3)
	img, err := Gray(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 || img.GrayAt(1, 2).Y != 9 {
		t.Errorf("unexpected image %v", img.Bounds())
	}
	f.Data[9] = 200
	if img.GrayAt(1, 2).Y != 9 {
		t.Error("image aliases frame memory")
	}
}

func TestGray_Formats(t *testing.T) {
	f := api.Frame{
		Data: []byte{0x34, 0x12, 0xff, 0xff},
		Info: api.FrameInfo{Width: 2, Height: 1, Format: api.PixelMono16},
	}
	img, err := Gray(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Pix[0] != 0x12 || img.Pix[1] != 0xff {
		t.Errorf("mono16 pix = %v", img.Pix)
	}

	f = api.Frame{
		Data: []byte{255, 255, 255, 0, 0, 0},
		Info: api.FrameInfo{Width: 2, Height: 1, Format: api.PixelRGB24},
	}
	if img, err = Gray(f); err != nil || img.Pix[0] != 255 || img.Pix[1] != 0 {
		t.Errorf("rgb24: %v %v", err, img)
	}
}

func TestGray_Errors(t *testing.T) {
	if _, err := Gray(api.Frame{Data: make([]byte, 4)}); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("no geometry: %v", err)
	}
	f := mono8(4, 4)
	f.Data = f.Data[:10]
	f.Info.ImageSize = 0
	if _, err := Gray(f); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("short payload: %v", err)
	}
	f = mono8(2, 2)
	f.Info.Format = api.PixelFormat(99)
	if _, err := Gray(f); !errors.Is(err, api.ErrNotSupported) {
		t.Errorf("bad format: %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()
	path, err := Snapshot(dir, mono8(8, 6))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "frame-00000041.bmp" {
		t.Errorf("path = %s", path)
	}
	fd, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fd.Close()
	img, err := bmp.Decode(fd)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Fatalf("decoded bounds %v", img.Bounds())
	}
	if g := color.GrayModel.Convert(img.At(3, 2)).(color.Gray).Y; g != 19 {
		t.Errorf("pixel (3,2) = %d, want 19", g)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left: %v", entries)
	}
}

func TestScaleAndSixel(t *testing.T) {
	img, err := Gray(mono8(659, 493))
	if err != nil {
		t.Fatal(err)
	}
	scaled := Scale(img, 200)
	if b := scaled.Bounds(); b.Dx() != 200 || b.Dy() != 493*200/659 {
		t.Errorf("scaled bounds %v", b)
	}
	if Scale(img, 0) != img || Scale(img, 1000) != img {
		t.Error("Scale changed an image that already fits")
	}

	var out bytes.Buffer
	if err := Sixel(&out, img, 64); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.HasPrefix(s, "\x1bP") || !strings.HasSuffix(s, "\x1b\\") {
		t.Errorf("not a sixel sequence: %q...", s[:min(len(s), 16)])
	}
}
