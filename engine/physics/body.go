package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Material constants of the collider policy.
const (
	MeshRestitution = float32(0.2)
	MeshFriction    = float32(0.7)
	BallMass        = float32(0.1)
	BallRestitution = float32(0.1)
	BallFriction    = float32(0.5)
	BoxRestitution  = float32(0.2)
	BoxFriction     = float32(0.7)
)

// PhysicsBody is the entity component linking a transform to exactly one rigid body.
// It owns no simulation state; everything is read through the World.
type PhysicsBody struct {
	Handle   BodyHandle
	Collider ColliderHandle
}

// BodyParams describes the body an entity wants at spawn time.
type BodyParams struct {
	Position mgl32.Vec3
	// Scale is the entity's intended size. It scales trimesh vertices and gives box half-extents.
	Scale mgl32.Vec3
	// RotationAxis and RotationAngle are the initial axis-angle orientation.
	RotationAxis  mgl32.Vec3
	RotationAngle float32
	// Movable selects a dynamic body; otherwise the body is fixed.
	Movable bool
	// CollisionMesh, when set, produces a trimesh collider.
	CollisionMesh *CollisionMesh
	// BallRadius, when positive and no mesh is set, produces a ball collider.
	BallRadius float32
	// GravityScale defaults to 1 when nil.
	GravityScale *float32
}

// ColliderFor applies the collider policy. The first match wins:
// a collision mesh gives a trimesh scaled by Scale, a ball radius gives a light ball,
// and anything else gives a box with half-extents equal to Scale.
//
// Parameters:
//   - p: the body parameters
//
// Returns:
//   - ColliderDesc: the collider description to attach
func ColliderFor(p BodyParams) ColliderDesc {
	switch {
	case p.CollisionMesh != nil:
		return ColliderDesc{
			Shape:       ShapeTriMesh,
			Mesh:        p.CollisionMesh.Scaled(p.Scale),
			Restitution: MeshRestitution,
			Friction:    MeshFriction,
		}
	case p.BallRadius > 0:
		return ColliderDesc{
			Shape:       ShapeBall,
			Radius:      p.BallRadius,
			Mass:        BallMass,
			Restitution: BallRestitution,
			Friction:    BallFriction,
		}
	default:
		return ColliderDesc{
			Shape:       ShapeBox,
			HalfExtents: p.Scale,
			Restitution: BoxRestitution,
			Friction:    BoxFriction,
		}
	}
}

// BodyFor converts BodyParams into a BodyDesc.
func BodyFor(p BodyParams) BodyDesc {
	kind := BodyTypeFixed
	if p.Movable {
		kind = BodyTypeDynamic
	}
	gravityScale := float32(1)
	if p.GravityScale != nil {
		gravityScale = *p.GravityScale
	}
	return BodyDesc{
		Type:          kind,
		Translation:   p.Position,
		RotationAxis:  p.RotationAxis,
		RotationAngle: p.RotationAngle,
		GravityScale:  gravityScale,
	}
}

// NewPhysicsBody creates the rigid body and collider for p in w.
//
// Parameters:
//   - w: the world that will own the body
//   - p: the body parameters
//
// Returns:
//   - PhysicsBody: the component holding the new handles
func NewPhysicsBody(w World, p BodyParams) PhysicsBody {
	bh, ch := w.AddBody(BodyFor(p), ColliderFor(p))
	return PhysicsBody{Handle: bh, Collider: ch}
}

// Translation returns the body's current position.
func (b PhysicsBody) Translation(w World) mgl32.Vec3 {
	return w.BodyTranslation(b.Handle)
}

// Rotation returns the body's rotation as it should be mirrored into a transform.
func (b PhysicsBody) Rotation(w World) mgl32.Quat {
	return w.SyncRotation(b.Handle)
}

// Remove deletes the body and its collider from w.
func (b PhysicsBody) Remove(w World) {
	w.RemoveBody(b.Handle)
}
