package player

// PlayerBuilderOption is a function that configures a Player during construction.
type PlayerBuilderOption func(*Player)

// WithMoveSpeed sets the movement speed in world units per second.
//
// Parameters:
//   - speed: movement speed, ignored when not positive
//
// Returns:
//   - PlayerBuilderOption: a function that applies the movement speed
func WithMoveSpeed(speed float32) PlayerBuilderOption {
	return func(p *Player) {
		if speed > 0 {
			p.moveSpeed = speed
		}
	}
}

// WithLookSpeed sets how fast accumulated mouse movement is turned into rotation.
//
// Parameters:
//   - speed: look damping speed, ignored when not positive
//
// Returns:
//   - PlayerBuilderOption: a function that applies the look speed
func WithLookSpeed(speed float32) PlayerBuilderOption {
	return func(p *Player) {
		if speed > 0 {
			p.lookSpeed = speed
		}
	}
}
