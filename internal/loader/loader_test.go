package loader

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFindPrefersExtensionOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"shot.png", "shot.tif"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path, err := Find(dir, "shot")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if filepath.Ext(path) != ".tif" {
		t.Errorf("got %s, want the tif variant first", path)
	}
}

func TestFindMissing(t *testing.T) {
	_, err := Find(t.TempDir(), "nothing/here")
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("got %v, want ErrInputNotFound", err)
	}
}

func TestDecodePNG(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	img.SetNRGBA(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 0xFF})

	path := filepath.Join(dir, "tiny.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	pixels, w, h, err := Decode(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w != 3 || h != 2 || len(pixels) != 6 {
		t.Fatalf("dims: %dx%d, %d pixels", w, h, len(pixels))
	}
	if p := pixels[0]; p.Red != 10 || p.Green != 20 || p.Blue != 30 || p.Alpha != 40 {
		t.Errorf("pixel 0: got %+v", p)
	}
	if p := pixels[5]; p.Red != 200 || p.Alpha != 0xFF {
		t.Errorf("pixel 5: got %+v", p)
	}
}

func TestDecodeTGAUncompressed(t *testing.T) {
	// A 2x1 top-to-bottom 24-bit TGA: one red pixel, one green.
	data := []byte{
		0, 0, 2, // no id, no color map, uncompressed true-color
		0, 0, 0, 0, 0, // color map spec
		0, 0, 0, 0, // origin
		2, 0, 1, 0, // 2x1
		24, 0x20, // 24bpp, top-to-bottom
		0, 0, 255, // blue,green,red = red pixel
		0, 255, 0, // green pixel
	}
	img, err := decodeTGA(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, _, a := img.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 0 || a>>8 != 255 {
		t.Errorf("pixel 0: got r=%d g=%d a=%d", r>>8, g>>8, a>>8)
	}
	_, g, _, _ = img.At(1, 0).RGBA()
	if g>>8 != 255 {
		t.Errorf("pixel 1: got g=%d", g>>8)
	}
}

func TestDecodeTGARLE(t *testing.T) {
	// A 4x1 RLE TGA: a run of three blue pixels then one raw white.
	data := []byte{
		0, 0, 10,
		0, 0, 0, 0, 0,
		0, 0, 0, 0,
		4, 0, 1, 0,
		24, 0x20,
		0x82, 255, 0, 0, // run of 3 blue
		0x00, 255, 255, 255, // 1 raw white
	}
	img, err := decodeTGA(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	_, _, b, _ := img.At(2, 0).RGBA()
	if b>>8 != 255 {
		t.Errorf("run pixel: got b=%d", b>>8)
	}
	r, g, b2, _ := img.At(3, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b2>>8 != 255 {
		t.Errorf("raw pixel: got r=%d g=%d b=%d", r>>8, g>>8, b2>>8)
	}
}

func TestDecodeTGARejectsPalettes(t *testing.T) {
	data := make([]byte, 18)
	data[1] = 1 // color-mapped
	data[2] = 2
	if _, err := decodeTGA(data); err == nil {
		t.Fatal("color-mapped tga must be rejected")
	}
}
