package model

import (
	"github.com/Carmen-Shannon/dreamscape/engine/physics"
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	id             ModelID
	vertices       []GPUVertex
	indices        []uint32
	collisionMesh  *physics.CollisionMesh
	diffuseTexture string
	normalTexture  string
	boundingRadius float32
}

// Model defines the interface for a loaded, CPU-side model.
// A Model holds decoded mesh geometry, an optional lower-resolution collision mesh and the names
// of its diffuse and normal textures. GPU resources for it are created and cached by the renderer.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// ID returns the interned identifier assigned at registration, or NoModel before that.
	ID() ModelID

	// SetID assigns the interned identifier. Called once by the asset store.
	SetID(id ModelID)

	// Vertices returns the render mesh vertices.
	Vertices() []GPUVertex

	// Indices returns the render mesh triangle list.
	Indices() []uint32

	// VertexData returns the vertices serialized for GPU upload.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the indices serialized for GPU upload.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// IndexCount returns the number of indices in the model's mesh.
	IndexCount() int

	// CollisionMesh returns the baked collision geometry, or nil when the model has none.
	CollisionMesh() *physics.CollisionMesh

	// DiffuseTexture returns the name of the diffuse texture in the asset store.
	DiffuseTexture() string

	// NormalTexture returns the name of the normal-map texture in the asset store.
	NormalTexture() string

	// BoundingRadius returns the maximum vertex distance from the origin.
	BoundingRadius() float32
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
// The bounding radius is computed from the vertices.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	m.boundingRadius = ComputeBoundingRadius(m.vertices)
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) ID() ModelID {
	return m.id
}

func (m *model) SetID(id ModelID) {
	m.id = id
}

func (m *model) Vertices() []GPUVertex {
	return m.vertices
}

func (m *model) Indices() []uint32 {
	return m.indices
}

func (m *model) VertexData() []byte {
	buf := make([]byte, 0, len(m.vertices)*GPUVertexSize)
	for i := range m.vertices {
		buf = append(buf, m.vertices[i].Marshal()...)
	}
	return buf
}

func (m *model) IndexData() []byte {
	buf := make([]byte, len(m.indices)*4)
	for i, idx := range m.indices {
		putUint32(buf[i*4:], idx)
	}
	return buf
}

func (m *model) IndexCount() int {
	return len(m.indices)
}

func (m *model) CollisionMesh() *physics.CollisionMesh {
	return m.collisionMesh
}

func (m *model) DiffuseTexture() string {
	return m.diffuseTexture
}

func (m *model) NormalTexture() string {
	return m.normalTexture
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}
