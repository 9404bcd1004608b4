package model

import (
	"github.com/Carmen-Shannon/dreamscape/engine/physics"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMesh is an option builder that sets the render mesh.
//
// Parameters:
//   - vertices: the mesh vertices
//   - indices: the triangle list
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh to a model
func WithMesh(vertices []GPUVertex, indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.vertices = vertices
		m.indices = indices
	}
}

// WithCollisionMesh is an option builder that attaches baked collision geometry.
// Bodies spawned for this model get a trimesh collider built from it.
//
// Parameters:
//   - mesh: the collision mesh in model space
//
// Returns:
//   - ModelBuilderOption: a function that applies the collision mesh to a model
func WithCollisionMesh(mesh *physics.CollisionMesh) ModelBuilderOption {
	return func(m *model) {
		m.collisionMesh = mesh
	}
}

// WithTextures is an option builder that names the diffuse and normal textures.
func WithTextures(diffuse, normal string) ModelBuilderOption {
	return func(m *model) {
		m.diffuseTexture = diffuse
		m.normalTexture = normal
	}
}
