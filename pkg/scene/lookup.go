package scene

import (
	"fmt"
	"sort"
)

// SceneInfo describes a built-in scene
type SceneInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

type builtin struct {
	info  SceneInfo
	build func(seed int64) *Scene
}

var builtins = map[string]builtin{
	"default": {
		info:  SceneInfo{ID: "default", DisplayName: "Default", Description: "Diffuse sphere between two metal spheres"},
		build: func(int64) *Scene { return NewDefaultScene() },
	},
	"glass": {
		info:  SceneInfo{ID: "glass", DisplayName: "Glass", Description: "Glass, diffuse and gold spheres with depth of field"},
		build: func(int64) *Scene { return NewGlassScene() },
	},
	"random": {
		info:  SceneInfo{ID: "random", DisplayName: "Random Spheres", Description: "Hundreds of small random spheres around three large ones"},
		build: NewRandomSpheresScene,
	},
}

// Lookup builds the named built-in scene. seed only affects generated scenes.
func Lookup(name string, seed int64) (*Scene, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %v)", name, Names())
	}
	return b.build(seed), nil
}

// Names returns the built-in scene IDs in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListScenes returns metadata for every built-in scene, sorted by ID
func ListScenes() []SceneInfo {
	var scenes []SceneInfo
	for _, name := range Names() {
		scenes = append(scenes, builtins[name].info)
	}
	return scenes
}
