// Package assets loads and owns CPU-side models and textures. Everything the renderer draws is
// resolved through a Store by interned model ID; a missing entry is a programming error and panics.
package assets

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/logger"
	"github.com/Carmen-Shannon/dreamscape/engine/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the model and texture repository shared by spawners and the renderer.
type Store interface {
	// Registry returns the name to ModelID interning table.
	Registry() *model.Registry

	// RegisterModel interns the model's name, assigns its ID and stores it.
	// Re-registering a name replaces the model but keeps the ID.
	//
	// Parameters:
	//   - m: the model
	//
	// Returns:
	//   - model.ModelID: the interned identifier
	RegisterModel(m model.Model) model.ModelID

	// LoadModel reads a glTF file and registers it. When collisionPath is non-empty, every
	// primitive of that file is merged into the model's collision mesh. Embedded images are
	// registered as "<name>/diffuse" and "<name>/normal".
	//
	// Parameters:
	//   - name: the model name
	//   - path: the visual model file
	//   - collisionPath: the collision model file, or "" for none
	//
	// Returns:
	//   - model.ModelID: the interned identifier
	//   - error: error if either file cannot be loaded
	LoadModel(name, path, collisionPath string) (model.ModelID, error)

	// Model returns the model with the given ID. Panics if absent.
	Model(id model.ModelID) model.Model

	// ModelByName returns the model with the given name. Panics if absent.
	ModelByName(name string) model.Model

	// RegisterTexture stores decoded texture data under a name.
	RegisterTexture(name string, tex common.TextureStagingData)

	// LoadTextures decodes image files concurrently and registers them under their map keys.
	// The first failure cancels the remaining loads.
	//
	// Parameters:
	//   - ctx: cancellation for the batch
	//   - paths: texture name to file path
	//
	// Returns:
	//   - error: the first load error
	LoadTextures(ctx context.Context, paths map[string]string) error

	// Texture returns the named texture. Panics if absent.
	Texture(name string) common.TextureStagingData

	// HasTexture reports whether a texture is registered.
	HasTexture(name string) bool

	// Models returns all registered models ordered by ID.
	Models() []model.Model
}

type store struct {
	mu       sync.RWMutex
	registry *model.Registry
	models   map[model.ModelID]model.Model
	textures map[string]common.TextureStagingData
	loadPar  int
}

var _ Store = &store{}

// NewStore creates an empty Store.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Store: the new store
func NewStore(options ...StoreBuilderOption) Store {
	s := &store{
		registry: model.NewRegistry(),
		models:   make(map[model.ModelID]model.Model),
		textures: make(map[string]common.TextureStagingData),
		loadPar:  4,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *store) Registry() *model.Registry {
	return s.registry
}

func (s *store) RegisterModel(m model.Model) model.ModelID {
	id := s.registry.Intern(m.Name())
	m.SetID(id)

	s.mu.Lock()
	s.models[id] = m
	s.mu.Unlock()

	logger.Log.Debug("registered model",
		zap.String("name", m.Name()),
		zap.Uint32("id", uint32(id)),
		zap.Int("indices", m.IndexCount()),
	)
	return id
}

func (s *store) LoadModel(name, path, collisionPath string) (model.ModelID, error) {
	mesh, err := LoadGLTF(path)
	if err != nil {
		return model.NoModel, err
	}

	opts := []model.ModelBuilderOption{
		model.WithName(name),
		model.WithMesh(mesh.Vertices, mesh.Indices),
	}

	if collisionPath != "" {
		collider, err := LoadGLTF(collisionPath)
		if err != nil {
			return model.NoModel, fmt.Errorf("collision model for %q: %w", name, err)
		}
		opts = append(opts, model.WithCollisionMesh(collider.CollisionMesh()))
	}

	diffuse, normal := "", ""
	if mesh.DiffuseImage != nil {
		tex, err := DecodeTexture(mesh.DiffuseImage)
		if err != nil {
			return model.NoModel, fmt.Errorf("diffuse texture of %q: %w", name, err)
		}
		diffuse = name + "/diffuse"
		s.RegisterTexture(diffuse, tex)
	}
	if mesh.NormalImage != nil {
		tex, err := DecodeTexture(mesh.NormalImage)
		if err != nil {
			return model.NoModel, fmt.Errorf("normal texture of %q: %w", name, err)
		}
		normal = name + "/normal"
		s.RegisterTexture(normal, tex)
	}
	opts = append(opts, model.WithTextures(diffuse, normal))

	return s.RegisterModel(model.NewModel(opts...)), nil
}

func (s *store) Model(id model.ModelID) model.Model {
	s.mu.RLock()
	m, ok := s.models[id]
	s.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("assets: model %d (%q) is not loaded", id, s.registry.Name(id)))
	}
	return m
}

func (s *store) ModelByName(name string) model.Model {
	return s.Model(s.registry.MustLookup(name))
}

func (s *store) RegisterTexture(name string, tex common.TextureStagingData) {
	if tex.Layers == 0 {
		tex.Layers = 1
	}
	s.mu.Lock()
	s.textures[name] = tex
	s.mu.Unlock()
}

func (s *store) LoadTextures(ctx context.Context, paths map[string]string) error {
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.loadPar)
	for _, name := range names {
		path := paths[name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tex, err := LoadTexture(path)
			if err != nil {
				return fmt.Errorf("texture %q: %w", name, err)
			}
			s.RegisterTexture(name, tex)
			return nil
		})
	}
	return g.Wait()
}

func (s *store) Texture(name string) common.TextureStagingData {
	s.mu.RLock()
	tex, ok := s.textures[name]
	s.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("assets: texture %q is not loaded", name))
	}
	return tex
}

func (s *store) HasTexture(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.textures[name]
	return ok
}

func (s *store) Models() []model.Model {
	s.mu.RLock()
	out := make([]model.Model, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

