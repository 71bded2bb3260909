package vfs

import "fmt"

// CollectionKind selects the enumeration and lookup behaviour of a
// Collection. Each kind uses only the Collection fields listed next to it.
type CollectionKind int

const (
	// KindRoot lists the namespaces.
	KindRoot CollectionKind = iota

	// KindPlaceholder is a name-only folder returned in listings whose
	// children are loaded by the resolver on a later request.
	KindPlaceholder

	// KindProjects lists projects (projects).
	KindProjects

	// KindPacks lists packs (packs).
	KindPacks

	// KindGroup is one project or pack (group).
	KindGroup

	// KindModels lists a group's models (group).
	KindModels

	// KindModel lists versions plus the newest alias (model).
	KindModel

	// KindVersion lists a version's files (model, version).
	KindVersion

	// KindTextureSets lists a group's texture sets (group).
	KindTextureSets

	// KindTextureSet holds the TextureTypes and Files views (textureSet).
	KindTextureSet

	// KindTextureTypes lists textures by type (textureSet).
	KindTextureTypes

	// KindTextureFiles lists the distinct files of a set (textureSet).
	KindTextureFiles

	// KindSprites lists a group's sprites (group, upload).
	KindSprites

	// KindSounds lists a group's sounds (group, upload).
	KindSounds

	// KindSpriteCategories lists sprite category names (categories).
	KindSpriteCategories

	// KindSoundCategories lists sound category names (categories).
	KindSoundCategories

	// KindSpriteCategory lists one category's sprites (sprites).
	KindSpriteCategory

	// KindSoundCategory lists one category's sounds (sounds).
	KindSoundCategory

	// KindSelection holds the current selection file, if any (selected).
	KindSelection
)

var kindNames = map[CollectionKind]string{
	KindRoot:             "Root",
	KindPlaceholder:      "Placeholder",
	KindProjects:         "Projects",
	KindPacks:            "Packs",
	KindGroup:            "Group",
	KindModels:           "Models",
	KindModel:            "Model",
	KindVersion:          "Version",
	KindTextureSets:      "TextureSets",
	KindTextureSet:       "TextureSet",
	KindTextureTypes:     "TextureTypes",
	KindTextureFiles:     "TextureFiles",
	KindSprites:          "Sprites",
	KindSounds:           "Sounds",
	KindSpriteCategories: "SpriteCategories",
	KindSoundCategories:  "SoundCategories",
	KindSpriteCategory:   "SpriteCategory",
	KindSoundCategory:    "SoundCategory",
	KindSelection:        "Selection",
}

func (k CollectionKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CollectionKind(%d)", int(k))
}

// Folder names used in paths. Lookups compare them case-insensitively.
const (
	NameProjects     = "Projects"
	NameSounds       = "Sounds"
	NameSprites      = "Sprites"
	NamePacks        = "Packs"
	NameSelection    = "Selection"
	NameModels       = "Models"
	NameTextureSets  = "TextureSets"
	NameTextureTypes = "TextureTypes"
	NameFiles        = "Files"
	NameNewest       = "newest"
	NameUnassigned   = "Unassigned"
)
