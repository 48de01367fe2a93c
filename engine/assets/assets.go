package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-gl/engine/assets/loaders"
	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/resources"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrNoLoader      = errors.New("no loader registered")
	ErrClosed        = errors.New("asset manager closed")
)

// changeBacklog is how many changes are kept for a slow consumer before
// new ones are dropped.
const changeBacklog = 64

// AssetManager indexes the files under an asset root, loads them through
// per-type loaders and reports changes made on disk while it runs.
type AssetManager struct {
	root    string
	assets  map[string]resources.AssetInfo
	loaders map[resources.ResourceType]registeredLoader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	changes  chan resources.AssetChange
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]resources.AssetInfo),
		loaders:  make(map[resources.ResourceType]registeredLoader),
		fsnotify: fsWatch,
		changes:  make(chan resources.AssetChange, changeBacklog),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Initialize indexes every file below assetsDir and starts watching it.
func (am *AssetManager) Initialize(assetsDir string) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root

	// Register loaders
	am.registerLoader(resources.ResourceTypeShader, "shaders", &loaders.ShaderLoader{})
	am.registerLoader(resources.ResourceTypeImage, "textures", &loaders.ImageLoader{})

	if err := am.addRecursive(root); err != nil {
		return err
	}
	go am.start()

	core.LogInfo("asset manager watching %s (%d assets)", root, am.Len())
	return nil
}

func (am *AssetManager) Root() string { return am.root }

// Changes delivers created, modified and removed assets. It is closed by
// Shutdown.
func (am *AssetManager) Changes() <-chan resources.AssetChange {
	return am.changes
}

// addRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.closed() {
		return ErrClosed
	}
	return am.watchRecursive(name)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType resources.ResourceType, typePath string, loader Loader) {
	am.loaders[assetType] = registeredLoader{TypePath: typePath, Loader: loader}
}

// Lookup returns the index entry of name, a slash separated path relative
// to the asset root.
func (am *AssetManager) Lookup(name string) (resources.AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[name]
	return info, ok
}

// List returns the indexed assets of type t sorted by name.
func (am *AssetManager) List(t resources.ResourceType) []resources.AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	var out []resources.AssetInfo
	for _, info := range am.assets {
		if info.Type == t {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (am *AssetManager) Len() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// LoadAsset loads name with the loader of resourceType. name is either a
// path relative to the asset root or relative to the loader's type
// directory ("flat.vert" finds "shaders/flat.vert").
func (am *AssetManager) LoadAsset(name string, resourceType resources.ResourceType, params interface{}) (*resources.Resource, error) {
	loader, ok := am.loaders[resourceType]
	if !ok {
		return nil, fmt.Errorf("%w for asset type %s", ErrNoLoader, resourceType)
	}

	name = filepath.ToSlash(filepath.Clean(name))
	asset, exists := am.Lookup(name)
	if !exists {
		asset, exists = am.Lookup(loader.TypePath + "/" + name)
	}
	if !exists || asset.Type != resourceType {
		return nil, fmt.Errorf("%w: %s %s", ErrAssetNotFound, resourceType, name)
	}

	r, err := loader.Load(asset.Path, params)
	if err != nil {
		return nil, err
	}
	r.Name = asset.Name
	return r, nil
}

func (am *AssetManager) UnloadAsset(asset *resources.Resource) error {
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return fmt.Errorf("%w for asset type %s", ErrNoLoader, asset.Type)
	}
	return loader.Unload(asset)
}

// Shutdown stops watching and closes the change channel.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	if am.root != "" {
		<-am.stopped
		return nil
	}
	close(am.changes)
	return am.fsnotify.Close()
}

func (am *AssetManager) closed() bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.isClosed
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			close(am.changes)
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s.IsDir() {
		if e.Has(fsnotify.Create) {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("asset watcher: %s", err)
			}
		}
		return
	}
	if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
		if info, created, ok := am.handleFileEvent(e.Name); ok {
			op := resources.AssetModified
			if created {
				op = resources.AssetCreated
			}
			am.notify(resources.AssetChange{Asset: info, Op: op})
		}
	}
	// A removed directory can no longer be stat'ed, so every removal is
	// also tried against the watch list.
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		if info, ok := am.removeAsset(e.Name); ok {
			am.notify(resources.AssetChange{Asset: info, Op: resources.AssetRemoved})
		}
		_ = am.fsnotify.Remove(e.Name)
	}
}

func (am *AssetManager) notify(change resources.AssetChange) {
	core.LogDebug("asset %s %s", change.Asset.Name, change.Op)
	select {
	case am.changes <- change:
	default:
		core.LogWarn("asset change backlog full, dropping %s %s", change.Asset.Name, change.Op)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file. Reports whether path was
// new to the index and whether it is an asset at all.
func (am *AssetManager) handleFileEvent(path string) (resources.AssetInfo, bool, bool) {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return resources.AssetInfo{}, false, false
	}
	name, err := am.nameOf(path)
	if err != nil {
		return resources.AssetInfo{}, false, false
	}
	info := resources.AssetInfo{
		Name:     name,
		Path:     path,
		Type:     assetType,
		Modified: time.Now(),
	}
	if fi, err := os.Stat(path); err == nil {
		info.Modified = fi.ModTime()
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	_, known := am.assets[name]
	am.assets[name] = info
	return info, !known, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (resources.AssetInfo, bool) {
	name, err := am.nameOf(path)
	if err != nil {
		return resources.AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info, ok := am.assets[name]
	delete(am.assets, name)
	return info, ok
}

func (am *AssetManager) nameOf(path string) (string, error) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func determineAssetType(path string) resources.ResourceType {
	switch filepath.Ext(path) {
	case ".vert", ".frag", ".geom", ".vs", ".fs", ".gs":
		return resources.ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return resources.ResourceTypeImage
	case ".toml":
		return resources.ResourceTypeConfig
	default:
		return resources.ResourceTypeNone
	}
}
