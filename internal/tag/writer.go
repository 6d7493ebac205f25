package tag

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// ErrTagWriteFailed means the destination could not be written.
var ErrTagWriteFailed = errors.New("failed to write tag")

// FourCC identifies a bitmap tag file.
var FourCC = [4]byte{'b', 'i', 't', 'm'}

// Version is the serialized layout version.
const Version = 1

// The file header is the fourcc, the layout version, the xxHash64 of
// the body, and the body length. Everything, floats included, is
// big-endian; runtime pointer slots serialize as zero.
const fileHeaderSize = 4 + 4 + 8 + 4

// Marshal serializes a tag to its on-disk form.
func Marshal(t *Tag) []byte {
	body := marshalBody(t)

	out := bytes.NewBuffer(make([]byte, 0, fileHeaderSize+len(body)))
	out.Write(FourCC[:])
	be := binary.BigEndian
	var scratch [8]byte
	be.PutUint32(scratch[:4], Version)
	out.Write(scratch[:4])
	be.PutUint64(scratch[:], xxhash.Sum64(body))
	out.Write(scratch[:])
	be.PutUint32(scratch[:4], uint32(len(body)))
	out.Write(scratch[:4])
	out.Write(body)
	return out.Bytes()
}

func marshalBody(t *Tag) []byte {
	buf := &bytes.Buffer{}
	w := func(v any) {
		// bytes.Buffer never errors; binary.Write only fails on
		// unsupported types, which would be a programming error here.
		if err := binary.Write(buf, binary.BigEndian, v); err != nil {
			panic(err)
		}
	}

	w(uint16(t.Type))
	w(uint16(t.Format))
	w(uint16(t.Usage))
	w(t.Flags)
	w(t.DetailFade)
	w(t.Sharpen)
	w(t.BumpHeight)
	w(t.SpriteBudgetSize)
	w(t.SpriteBudgetCount)
	w(t.ColorPlateWidth)
	w(t.ColorPlateHeight)
	w(uint32(len(t.CompressedColorPlate)))
	buf.Write(t.CompressedColorPlate)
	w(uint32(len(t.PixelData)))
	w(t.BlurFilterSize)
	w(t.AlphaBias)
	w(t.MipmapCount)
	w(uint16(t.SpriteUsage))
	w(t.SpriteSpacing)
	w(uint16(len(t.Sequences)))
	w(uint16(len(t.Bitmaps)))

	for _, seq := range t.Sequences {
		w(seq.FirstBitmapIndex)
		w(seq.BitmapCount)
		w(uint16(len(seq.Sprites)))
		for _, sp := range seq.Sprites {
			w(sp.BitmapIndex)
			w(sp.Left)
			w(sp.Right)
			w(sp.Top)
			w(sp.Bottom)
			w(sp.RegistrationX)
			w(sp.RegistrationY)
		}
	}

	for _, b := range t.Bitmaps {
		w(b.Width)
		w(b.Height)
		w(b.Depth)
		w(uint16(b.Type))
		w(uint16(b.Format))
		w(b.Flags)
		w(b.RegistrationX)
		w(b.RegistrationY)
		w(b.MipmapCount)
		w(b.SequenceIndex)
		w(b.PixelOffset)
		w(b.PixelSize)
		w(uint32(0)) // runtime pixel pointer, resolved at load
	}

	buf.Write(t.PixelData)
	return buf.Bytes()
}

// WriteFile serializes the tag to path, creating parent directories.
// It returns the body checksum stored in the file header.
func WriteFile(path string, t *Tag) (uint64, error) {
	data := Marshal(t)
	checksum := binary.BigEndian.Uint64(data[8:16])

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTagWriteFailed, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTagWriteFailed, err)
	}
	return checksum, nil
}
