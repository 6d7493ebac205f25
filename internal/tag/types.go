// Package tag defines the bitmap tag data model and its big-endian
// on-disk serialization.
package tag

import "fmt"

// BitmapType determines how the scanned color plate is interpreted and
// how the engine samples the resulting bitmaps.
type BitmapType uint16

const (
	Type2DTextures BitmapType = iota
	Type3DTextures
	TypeCubeMaps
	TypeSprites
	TypeInterfaceBitmaps
)

var typeNames = map[BitmapType]string{
	Type2DTextures:       "2d_textures",
	Type3DTextures:       "3d_textures",
	TypeCubeMaps:         "cube_maps",
	TypeSprites:          "sprites",
	TypeInterfaceBitmaps: "interface_bitmaps",
}

func (t BitmapType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("type(%d)", uint16(t))
}

// ParseBitmapType parses a type name as accepted on the command line.
func ParseBitmapType(s string) (BitmapType, error) {
	for t, name := range typeNames {
		if s == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid bitmap type %q", s)
}

// BitmapUsage selects usage-specific processing (bump preparation for
// height maps, mipmap fading for detail maps, and so on).
type BitmapUsage uint16

const (
	UsageAlphaBlend BitmapUsage = iota
	UsageDefault
	UsageHeightMap
	UsageDetailMap
	UsageLightMap
	UsageVectorMap
)

var usageNames = map[BitmapUsage]string{
	UsageAlphaBlend: "alpha_blend",
	UsageDefault:    "default",
	UsageHeightMap:  "height_map",
	UsageDetailMap:  "detail_map",
	UsageLightMap:   "light_map",
	UsageVectorMap:  "vector_map",
}

func (u BitmapUsage) String() string {
	if s, ok := usageNames[u]; ok {
		return s
	}
	return fmt.Sprintf("usage(%d)", uint16(u))
}

// ParseBitmapUsage parses a usage name as accepted on the command line.
func ParseBitmapUsage(s string) (BitmapUsage, error) {
	for u, name := range usageNames {
		if s == name {
			return u, nil
		}
	}
	return 0, fmt.Errorf("invalid bitmap usage %q", s)
}

// Format is the requested encoding category. A category is refined to a
// concrete DataFormat per bitmap by alpha analysis; FormatAuto lets the
// encoder pick the category too.
type Format uint16

const (
	FormatDXT1 Format = iota
	FormatDXT3
	FormatDXT5
	Format16Bit
	Format32Bit
	FormatMonochrome

	// FormatAuto is stored in the tag header as is; a later build that
	// adopts it from the tag selects formats automatically again.
	FormatAuto Format = 0xFFFF
)

var formatNames = map[Format]string{
	FormatDXT1:       "dxt1",
	FormatDXT3:       "dxt3",
	FormatDXT5:       "dxt5",
	Format16Bit:      "16-bit",
	Format32Bit:      "32-bit",
	FormatMonochrome: "monochrome",
	FormatAuto:       "auto",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("format(%d)", uint16(f))
}

// ParseFormat parses a format name as accepted on the command line.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if s == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("invalid bitmap format %q", s)
}

// DataFormat is the concrete pixel format of one encoded bitmap.
type DataFormat uint16

const (
	DataFormatA8 DataFormat = iota
	DataFormatY8
	DataFormatAY8
	DataFormatA8Y8
	DataFormatR5G6B5
	DataFormatA1R5G5B5
	DataFormatA4R4G4B4
	DataFormatX8R8G8B8
	DataFormatA8R8G8B8
	DataFormatDXT1
	DataFormatDXT3
	DataFormatDXT5
	DataFormatP8Bump
)

var dataFormatNames = map[DataFormat]string{
	DataFormatA8:       "a8",
	DataFormatY8:       "y8",
	DataFormatAY8:      "ay8",
	DataFormatA8Y8:     "a8y8",
	DataFormatR5G6B5:   "r5g6b5",
	DataFormatA1R5G5B5: "a1r5g5b5",
	DataFormatA4R4G4B4: "a4r4g4b4",
	DataFormatX8R8G8B8: "x8r8g8b8",
	DataFormatA8R8G8B8: "a8r8g8b8",
	DataFormatDXT1:     "dxt1",
	DataFormatDXT3:     "dxt3",
	DataFormatDXT5:     "dxt5",
	DataFormatP8Bump:   "p8-bump",
}

func (f DataFormat) String() string {
	if s, ok := dataFormatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("data_format(%d)", uint16(f))
}

// BitsPerPixel returns the storage density of a data format. DXT formats
// report their amortized per-pixel cost over a full 4x4 block.
func (f DataFormat) BitsPerPixel() int {
	switch f {
	case DataFormatA8, DataFormatY8, DataFormatAY8, DataFormatP8Bump:
		return 8
	case DataFormatA8Y8, DataFormatR5G6B5, DataFormatA1R5G5B5, DataFormatA4R4G4B4:
		return 16
	case DataFormatX8R8G8B8, DataFormatA8R8G8B8:
		return 32
	case DataFormatDXT1:
		return 4
	case DataFormatDXT3, DataFormatDXT5:
		return 8
	}
	return 0
}

// IsDXT reports whether the format is block-compressed.
func (f DataFormat) IsDXT() bool {
	return f == DataFormatDXT1 || f == DataFormatDXT3 || f == DataFormatDXT5
}

// Category returns the encoding category a concrete format belongs to.
func (f DataFormat) Category() Format {
	switch f {
	case DataFormatDXT1:
		return FormatDXT1
	case DataFormatDXT3:
		return FormatDXT3
	case DataFormatDXT5:
		return FormatDXT5
	case DataFormatR5G6B5, DataFormatA1R5G5B5, DataFormatA4R4G4B4:
		return Format16Bit
	case DataFormatX8R8G8B8, DataFormatA8R8G8B8:
		return Format32Bit
	default:
		return FormatMonochrome
	}
}

// SpriteUsage selects the blend identity used to fill sheet gutters.
type SpriteUsage uint16

const (
	SpriteUsageBlendAddSubtractMax SpriteUsage = iota
	SpriteUsageMultiplyMin
	SpriteUsageDoubleMultiply
)

var spriteUsageNames = map[SpriteUsage]string{
	SpriteUsageBlendAddSubtractMax: "blend_add_subtract_max",
	SpriteUsageMultiplyMin:         "multiply_min",
	SpriteUsageDoubleMultiply:      "double_multiply",
}

func (u SpriteUsage) String() string {
	if s, ok := spriteUsageNames[u]; ok {
		return s
	}
	return fmt.Sprintf("sprite_usage(%d)", uint16(u))
}

// ParseSpriteUsage parses a sprite usage name.
func ParseSpriteUsage(s string) (SpriteUsage, error) {
	for u, name := range spriteUsageNames {
		if s == name {
			return u, nil
		}
	}
	return 0, fmt.Errorf("invalid sprite usage %q", s)
}

// DataType is the stored shape of one encoded bitmap.
type DataType uint16

const (
	DataType2D DataType = iota
	DataType3D
	DataTypeCubeMap
	DataTypeWhite
)

func (t DataType) String() string {
	switch t {
	case DataType2D:
		return "2d"
	case DataType3D:
		return "3d"
	case DataTypeCubeMap:
		return "cube_map"
	case DataTypeWhite:
		return "white"
	}
	return fmt.Sprintf("data_type(%d)", uint16(t))
}

// Faces returns how many faces a bitmap of this shape stores per mip level.
func (t DataType) Faces() int {
	if t == DataTypeCubeMap {
		return 6
	}
	return 1
}

// Header flag bits.
const (
	FlagEnableDiffusionDithering    uint16 = 1 << 0
	FlagDisableHeightMapCompression uint16 = 1 << 1
	FlagUniformSpriteSequences      uint16 = 1 << 2
	FlagFilthySpriteBugFix          uint16 = 1 << 3
)

// BitmapData flag bits.
const (
	DataFlagCompressed uint16 = 1 << 0
	DataFlagExternal   uint16 = 1 << 1
	DataFlagSwizzled   uint16 = 1 << 2
)

// SpriteBudgetSize maps a sheet edge length to its stored enumeration.
// Anything outside the known set maps to the 32x32 entry.
func SpriteBudgetSize(budget int) uint16 {
	switch budget {
	case 32:
		return 0
	case 64:
		return 1
	case 128:
		return 2
	case 256:
		return 3
	case 512:
		return 4
	case 1024:
		return 5
	default:
		return 0
	}
}

// SpriteBudgetLength inverts SpriteBudgetSize when reading a stored tag.
func SpriteBudgetLength(size uint16) int {
	return 32 << size
}

// SpriteRecord is one placed sprite within a sequence, normalized to the
// dimensions of its containing sheet.
type SpriteRecord struct {
	BitmapIndex   uint16
	Left          float32
	Right         float32
	Top           float32
	Bottom        float32
	RegistrationX float32
	RegistrationY float32
}

// Sequence is an ordered group of bitmaps or sprites.
type Sequence struct {
	FirstBitmapIndex uint16
	BitmapCount      uint16
	Sprites          []SpriteRecord
}

// BitmapData describes one encoded bitmap within the packed pixel blob.
type BitmapData struct {
	Width         uint16
	Height        uint16
	Depth         uint16
	Type          DataType
	Format        DataFormat
	Flags         uint16
	RegistrationX int16
	RegistrationY int16
	MipmapCount   uint16
	SequenceIndex uint16
	PixelOffset   uint32
	PixelSize     uint32
}

// Tag is the complete bitmap tag: header fields, sequences, per-bitmap
// records and the packed pixel blob.
type Tag struct {
	Type              BitmapType
	Format            Format
	Usage             BitmapUsage
	Flags             uint16
	DetailFade        float32
	Sharpen           float32
	BumpHeight        float32
	SpriteBudgetSize  uint16
	SpriteBudgetCount uint16
	ColorPlateWidth   uint16
	ColorPlateHeight  uint16

	// CompressedColorPlate is a 4-byte big-endian decompressed length
	// followed by a zlib deflate stream, or empty when the plate could
	// not be preserved.
	CompressedColorPlate []byte

	BlurFilterSize float32
	AlphaBias      float32
	MipmapCount    uint16
	SpriteUsage    SpriteUsage
	SpriteSpacing  uint16

	Sequences []Sequence
	Bitmaps   []BitmapData
	PixelData []byte
}
