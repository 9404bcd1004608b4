package input

import "github.com/Carmen-Shannon/dreamscape/common"

// Input is the held-key and mouse state seen by update-phase systems.
type Input struct {
	keys        map[int]bool
	justPressed map[int]bool
	buttons     map[int]bool
	dx, dy      float32
}

// NewInput creates an Input with nothing held.
func NewInput() *Input {
	return &Input{
		keys:        make(map[int]bool),
		justPressed: make(map[int]bool),
		buttons:     make(map[int]bool),
	}
}

// Apply resets the per-frame fields and folds one frame of events into the state.
// Held keys and buttons persist across frames until released.
//
// Parameters:
//   - ev: the frame's events
func (in *Input) Apply(ev *Events) {
	clear(in.justPressed)
	in.dx, in.dy = 0, 0

	for _, k := range ev.Keys {
		if k.Pressed && !in.keys[k.Code] {
			in.justPressed[k.Code] = true
		}
		in.keys[k.Code] = k.Pressed
	}
	for _, m := range ev.MouseMoves {
		in.dx += m.DX
		in.dy += m.DY
	}
	for _, b := range ev.MouseButtons {
		in.buttons[b.Button] = b.Pressed
	}
}

// KeyDown reports whether a key is held.
func (in *Input) KeyDown(code int) bool {
	return in.keys[code]
}

// KeyJustPressed reports whether a key went down this frame.
func (in *Input) KeyJustPressed(code int) bool {
	return in.justPressed[code]
}

// ButtonDown reports whether a mouse button is held.
func (in *Input) ButtonDown(button int) bool {
	return in.buttons[button]
}

// MouseDelta returns the mouse movement accumulated this frame.
func (in *Input) MouseDelta() (float32, float32) {
	return in.dx, in.dy
}

// Movement reports the held movement keys.
type Movement struct {
	Forward, Back, Left, Right, Up, Down bool
}

// Movement maps W/S/A/D/E/Q to forward/back/left/right/up/down.
func (in *Input) Movement() Movement {
	return Movement{
		Forward: in.keys[common.KeyW],
		Back:    in.keys[common.KeyS],
		Left:    in.keys[common.KeyA],
		Right:   in.keys[common.KeyD],
		Up:      in.keys[common.KeyE],
		Down:    in.keys[common.KeyQ],
	}
}

// Look reports whether look input (left mouse button) is held.
func (in *Input) Look() bool {
	return in.ButtonDown(common.MouseButtonLeft)
}

// SpaceJustPressed reports whether space went down this frame.
func (in *Input) SpaceJustPressed() bool {
	return in.justPressed[common.KeySpace]
}
