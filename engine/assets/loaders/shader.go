package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/anima-gl/engine/resources"
)

type ShaderLoader struct{}

// StageOf maps a shader file extension to its stage name.
func StageOf(path string) (string, error) {
	switch filepath.Ext(path) {
	case ".vert", ".vs":
		return "vertex", nil
	case ".frag", ".fs":
		return "fragment", nil
	case ".geom", ".gs":
		return "geometry", nil
	}
	return "", fmt.Errorf("shader loader: no stage for extension of %q", path)
}

func (sl *ShaderLoader) Load(path string, params interface{}) (*resources.Resource, error) {
	stage, err := StageOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &resources.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		Type:     resources.ResourceTypeShader,
		DataSize: uint64(len(data)),
		Data:     &resources.ShaderSource{Stage: stage, Source: string(data)},
	}, nil
}

func (sl *ShaderLoader) Unload(r *resources.Resource) error {
	r.Data = nil
	return nil
}
