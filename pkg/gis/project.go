package gis

import (
	"errors"
	"sync"
)

// ErrLayerNotFound indicates the referenced layer id is not registered.
var ErrLayerNotFound = errors.New("layer not found")

// Project is the in-memory host state: registered layers plus project
// metadata. All methods are safe for concurrent use, though the protocol
// serves one command at a time.
type Project struct {
	mu       sync.RWMutex
	fileName string
	title    string
	crs      string
	layers   map[string]*Layer
	order    []string
}

// NewProject creates an empty project with the given metadata.
func NewProject(fileName, title, crs string) *Project {
	return &Project{
		fileName: fileName,
		title:    title,
		crs:      crs,
		layers:   make(map[string]*Layer),
	}
}

// FileName returns the project file path, empty for unsaved projects.
func (p *Project) FileName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fileName
}

// Title returns the project title.
func (p *Project) Title() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.title
}

// CRS returns the project coordinate reference system authority id.
func (p *Project) CRS() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.crs
}

// LayerCount returns the number of registered layers.
func (p *Project) LayerCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.layers)
}

// AddLayer registers a layer, assigning it a fresh id when it has none, and
// returns the registered layer.
func (p *Project) AddLayer(l *Layer) *Layer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l.ID == "" {
		l.ID = NewLayerID()
	}
	if l.CRS == "" {
		l.CRS = p.crs
	}
	if _, exists := p.layers[l.ID]; !exists {
		p.order = append(p.order, l.ID)
	}
	p.layers[l.ID] = l
	return l
}

// Layer looks up a layer by id.
func (p *Project) Layer(id string) (*Layer, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	l, ok := p.layers[id]
	return l, ok
}

// Layers returns the registered layers in insertion order.
func (p *Project) Layers() []*Layer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Layer, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.layers[id])
	}
	return out
}

// RemoveLayer removes a layer by id and returns its name.
func (p *Project) RemoveLayer(id string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.layers[id]
	if !ok {
		return "", ErrLayerNotFound
	}
	delete(p.layers, id)
	for i, oid := range p.order {
		if oid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return l.Name, nil
}

// SetLayerVisibility toggles a layer's visibility flag and returns its name.
func (p *Project) SetLayerVisibility(id string, visible bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.layers[id]
	if !ok {
		return "", ErrLayerNotFound
	}
	l.Visible = visible
	return l.Name, nil
}

// Canvas models the map view: a current extent that zoom operations set.
type Canvas struct {
	mu     sync.Mutex
	extent Extent
}

// NewCanvas returns a canvas showing the given initial extent.
func NewCanvas(initial Extent) *Canvas {
	return &Canvas{extent: initial}
}

// Extent returns the current view extent.
func (c *Canvas) Extent() Extent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.extent
}

// SetExtent moves the view to the given extent.
func (c *Canvas) SetExtent(e Extent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extent = e
}
