package renderer

import "encoding/binary"

// LineIndices converts a triangle list into the line list that outlines every triangle:
// (a,b), (b,c), (c,a) per triangle. Trailing indices that do not form a triangle are dropped.
//
// Parameters:
//   - indices: triangle-list indices
//
// Returns:
//   - []uint32: line-list indices, twice as many as the complete triangles' indices
func LineIndices(indices []uint32) []uint32 {
	tris := len(indices) / 3
	lines := make([]uint32, 0, tris*6)
	for i := 0; i < tris*3; i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		lines = append(lines, a, b, b, c, c, a)
	}
	return lines
}

func indexBytes(indices []uint32) []byte {
	buf := make([]byte, 0, len(indices)*4)
	for _, i := range indices {
		buf = binary.LittleEndian.AppendUint32(buf, i)
	}
	return buf
}
