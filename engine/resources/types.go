package resources

import (
	"image"
	"time"
)

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Not a resource the engine knows how to load. */
	ResourceTypeNone ResourceType = iota
	/** @brief GLSL source of one shader stage. */
	ResourceTypeShader
	/** @brief Image decoded to RGBA pixels. */
	ResourceTypeImage
	/** @brief TOML configuration. */
	ResourceTypeConfig
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeConfig:
		return "config"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource, relative to the asset root. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The size of the resource data in bytes, as read from disk. */
	DataSize uint64
	/** @brief The resource data: *ShaderSource or *ImageData. */
	Data interface{}
}

/** @brief Source text of one shader stage. */
type ShaderSource struct {
	/** @brief Stage name taken from the file extension: vertex, fragment or geometry. */
	Stage string
	Source string
}

/**
 * @brief A structure to hold image resource data. Pixels are RGBA8,
 * rows top to bottom as stored in the file.
 */
type ImageData struct {
	Image  *image.RGBA
	Format string
}

/** @brief Parameters used when loading an image. */
type ImageParams struct {
	/** @brief Largest accepted width or height, 0 for no limit. */
	MaxSize int
}

// AssetInfo is what the asset index remembers about a file on disk.
type AssetInfo struct {
	Name     string
	Path     string
	Type     ResourceType
	Modified time.Time
}

// ChangeOp tells what happened to a watched asset.
type ChangeOp int

const (
	AssetCreated ChangeOp = iota
	AssetModified
	AssetRemoved
)

func (op ChangeOp) String() string {
	switch op {
	case AssetCreated:
		return "created"
	case AssetModified:
		return "modified"
	case AssetRemoved:
		return "removed"
	}
	return "unknown"
}

// AssetChange is delivered on the asset manager's change channel.
type AssetChange struct {
	Asset AssetInfo
	Op    ChangeOp
}
