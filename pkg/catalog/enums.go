package catalog

import (
	"fmt"
	"strings"
)

// TextureType is the semantic role of a texture inside a texture set.
// Numeric values are stable and persisted.
type TextureType int

const (
	TextureAlbedo       TextureType = 1
	TextureNormal       TextureType = 2
	TextureHeight       TextureType = 3
	TextureAO           TextureType = 4
	TextureRoughness    TextureType = 5
	TextureMetallic     TextureType = 6
	TextureDiffuse      TextureType = 7
	TextureSpecular     TextureType = 8
	TextureEmissive     TextureType = 9
	TextureBump         TextureType = 10
	TextureAlpha        TextureType = 11
	TextureDisplacement TextureType = 12

	// TextureSplitChannel marks a packed source file whose channels are
	// exposed individually by other textures. It never appears as a name.
	TextureSplitChannel TextureType = 13
)

var textureTypeNames = map[TextureType]string{
	TextureAlbedo:       "Albedo",
	TextureNormal:       "Normal",
	TextureHeight:       "Height",
	TextureAO:           "AO",
	TextureRoughness:    "Roughness",
	TextureMetallic:     "Metallic",
	TextureDiffuse:      "Diffuse",
	TextureSpecular:     "Specular",
	TextureEmissive:     "Emissive",
	TextureBump:         "Bump",
	TextureAlpha:        "Alpha",
	TextureDisplacement: "Displacement",
	TextureSplitChannel: "SplitChannel",
}

func (t TextureType) String() string {
	if name, ok := textureTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TextureType(%d)", int(t))
}

// Valid reports whether t is a known texture type.
func (t TextureType) Valid() bool {
	_, ok := textureTypeNames[t]
	return ok
}

// ParseTextureType maps an enum name back to its value, ignoring case.
func ParseTextureType(name string) (TextureType, bool) {
	for t, n := range textureTypeNames {
		if strings.EqualFold(n, name) {
			return t, true
		}
	}
	return 0, false
}

// SourceChannel selects which channel of a texture file holds the data.
type SourceChannel int

const (
	ChannelRGB          SourceChannel = 0
	ChannelR            SourceChannel = 1
	ChannelG            SourceChannel = 2
	ChannelB            SourceChannel = 3
	ChannelA            SourceChannel = 4
	ChannelSplitChannel SourceChannel = 5
)

func (c SourceChannel) String() string {
	switch c {
	case ChannelRGB:
		return "RGB"
	case ChannelR:
		return "R"
	case ChannelG:
		return "G"
	case ChannelB:
		return "B"
	case ChannelA:
		return "A"
	case ChannelSplitChannel:
		return "SplitChannel"
	default:
		return fmt.Sprintf("SourceChannel(%d)", int(c))
	}
}

// IsSingle reports whether the channel is exactly one of R, G, B or A.
func (c SourceChannel) IsSingle() bool {
	return c >= ChannelR && c <= ChannelA
}
