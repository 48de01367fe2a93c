package assets

import "github.com/spaghettifunk/anima-gl/engine/resources"

type Loader interface {
	Load(path string, params interface{}) (*resources.Resource, error)
	Unload(*resources.Resource) error
}

// registeredLoader pairs a loader with the directory, relative to the asset
// root, its resources are looked up in.
type registeredLoader struct {
	TypePath string
	Loader
}
