package assets

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/dreamscape/engine/model"
	"github.com/Carmen-Shannon/dreamscape/engine/physics"
	"github.com/go-gl/mathgl/mgl32"
)

// Common errors returned by the glTF reader.
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLB         = errors.New("invalid GLB header")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
)

// ImportedMesh is the geometry and embedded images read from one glTF file.
// All triangle primitives are merged into a single indexed mesh.
type ImportedMesh struct {
	Name     string
	Vertices []model.GPUVertex
	Indices  []uint32
	// DiffuseImage and NormalImage hold encoded image bytes of the first material, if any.
	DiffuseImage []byte
	NormalImage  []byte
}

// CollisionMesh converts the merged geometry into physics collision geometry.
func (m *ImportedMesh) CollisionMesh() *physics.CollisionMesh {
	out := &physics.CollisionMesh{
		Vertices: make([]mgl32.Vec3, len(m.Vertices)),
		Indices:  append([]uint32(nil), m.Indices...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = mgl32.Vec3(v.Position)
	}
	return out
}

// LoadGLTF reads a .gltf or .glb file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - *ImportedMesh: the merged mesh
//   - error: error if the file cannot be read or parsed
func LoadGLTF(path string) (*ImportedMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	isGLB := strings.EqualFold(filepath.Ext(path), ".glb")
	mesh, err := ReadGLTF(bytes.NewReader(data), filepath.Dir(path), isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if mesh.Name == "" {
		mesh.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return mesh, nil
}

// ReadGLTF parses a glTF JSON or GLB stream. External buffers and images are resolved against
// baseDir.
//
// Parameters:
//   - r: the glTF or GLB data
//   - baseDir: directory for relative URIs
//   - isGLB: true for the binary container format
//
// Returns:
//   - *ImportedMesh: the merged mesh
//   - error: error if parsing fails
func ReadGLTF(r io.Reader, baseDir string, isGLB bool) (*ImportedMesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f := &gltfFile{baseDir: baseDir}
	if isGLB {
		err = f.parseGLB(data)
	} else {
		err = f.parseJSON(data, nil)
	}
	if err != nil {
		return nil, err
	}
	return f.importMesh()
}

type gltfFile struct {
	doc     gltfDocument
	baseDir string
}

func (f *gltfFile) parseJSON(data, bin []byte) error {
	if err := json.Unmarshal(data, &f.doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(f.doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	for i := range f.doc.Buffers {
		buf := &f.doc.Buffers[i]
		switch {
		case buf.URI == "" && i == 0 && bin != nil:
			buf.data = bin
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		default:
			d, err := f.loadURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.data = d
		}
		if len(buf.data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// parseGLB splits the binary container into its JSON and BIN chunks.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (f *gltfFile) parseGLB(data []byte) error {
	if len(data) < 12 ||
		binary.LittleEndian.Uint32(data[0:]) != gltfGLBMagic ||
		binary.LittleEndian.Uint32(data[4:]) != gltfGLBVersion {
		return errInvalidGLB
	}
	var jsonData, binData []byte
	for off := 12; off+8 <= len(data); {
		length := int(binary.LittleEndian.Uint32(data[off:]))
		kind := binary.LittleEndian.Uint32(data[off+4:])
		start := off + 8
		if start+length > len(data) {
			return fmt.Errorf("GLB chunk at %d overruns the file", off)
		}
		switch kind {
		case gltfGLBChunkJSON:
			jsonData = data[start : start+length]
		case gltfGLBChunkBIN:
			binData = data[start : start+length]
		}
		off = start + length
	}
	if jsonData == nil {
		return errMissingJSONChunk
	}
	return f.parseJSON(jsonData, binData)
}

func (f *gltfFile) loadURI(uri string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(uri, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.Contains(header, "base64") {
			return nil, fmt.Errorf("unsupported data URI")
		}
		return base64.StdEncoding.DecodeString(payload)
	}
	return os.ReadFile(filepath.Join(f.baseDir, uri))
}

func componentSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	}
	return 0
}

// accessor returns the tightly packed element bytes of an accessor.
func (f *gltfFile) accessor(index int) (*gltfAccessor, []byte, error) {
	if index < 0 || index >= len(f.doc.Accessors) {
		return nil, nil, fmt.Errorf("accessor index %d out of range", index)
	}
	acc := &f.doc.Accessors[index]
	if acc.BufferView == nil || *acc.BufferView >= len(f.doc.BufferViews) {
		return nil, nil, fmt.Errorf("accessor %d has no bufferView", index)
	}
	bv := &f.doc.BufferViews[*acc.BufferView]
	buf := f.doc.Buffers[bv.Buffer].data

	elem := componentSize(acc.ComponentType) * gltfAccessorComponents[acc.Type]
	if elem == 0 {
		return nil, nil, fmt.Errorf("accessor %d: unsupported layout %s/%d", index, acc.Type, acc.ComponentType)
	}
	stride := elem
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}
	base := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 && base+(acc.Count-1)*stride+elem > len(buf) {
		return nil, nil, fmt.Errorf("accessor %d exceeds its buffer", index)
	}
	out := make([]byte, acc.Count*elem)
	for i := range acc.Count {
		copy(out[i*elem:(i+1)*elem], buf[base+i*stride:])
	}
	return acc, out, nil
}

// floats reads a FLOAT accessor with n components per element.
func (f *gltfFile) floats(index, n int) ([]float32, int, error) {
	acc, data, err := f.accessor(index)
	if err != nil {
		return nil, 0, err
	}
	if acc.ComponentType != gltfComponentTypeFloat || gltfAccessorComponents[acc.Type] != n {
		return nil, 0, fmt.Errorf("accessor %d is not %d-component FLOAT", index, n)
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, acc.Count, nil
}

func (f *gltfFile) indices(index int) ([]uint32, error) {
	acc, data, err := f.accessor(index)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, acc.Count)
	for i := range out {
		switch acc.ComponentType {
		case gltfComponentTypeUnsignedByte:
			out[i] = uint32(data[i])
		case gltfComponentTypeUnsignedShort:
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		case gltfComponentTypeUnsignedInt:
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		default:
			return nil, fmt.Errorf("accessor %d: unsupported index type %d", index, acc.ComponentType)
		}
	}
	return out, nil
}

func (f *gltfFile) importMesh() (*ImportedMesh, error) {
	out := &ImportedMesh{}
	material := -1
	for mi := range f.doc.Meshes {
		mesh := &f.doc.Meshes[mi]
		if out.Name == "" {
			out.Name = mesh.Name
		}
		for pi := range mesh.Primitives {
			prim := &mesh.Primitives[pi]
			if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
				return nil, fmt.Errorf("mesh %d primitive %d: unsupported primitive mode %d", mi, pi, *prim.Mode)
			}
			if material < 0 && prim.Material != nil {
				material = *prim.Material
			}
			if err := f.appendPrimitive(out, prim); err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
		}
	}
	if material >= 0 && material < len(f.doc.Materials) {
		m := &f.doc.Materials[material]
		var err error
		if m.PbrMetallicRoughness != nil && m.PbrMetallicRoughness.BaseColorTexture != nil {
			if out.DiffuseImage, err = f.image(m.PbrMetallicRoughness.BaseColorTexture.Index); err != nil {
				return nil, fmt.Errorf("material %d diffuse: %w", material, err)
			}
		}
		if m.NormalTexture != nil {
			if out.NormalImage, err = f.image(m.NormalTexture.Index); err != nil {
				return nil, fmt.Errorf("material %d normal: %w", material, err)
			}
		}
	}
	return out, nil
}

func (f *gltfFile) appendPrimitive(out *ImportedMesh, prim *gltfPrimitive) error {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}
	pos, count, err := f.floats(posIdx, 3)
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}
	base := uint32(len(out.Vertices))
	verts := make([]model.GPUVertex, count)
	for i := range verts {
		copy(verts[i].Position[:], pos[i*3:])
		verts[i].Color = [4]float32{1, 1, 1, 1}
	}

	hasNormals, hasTangents := false, false
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		n, c, err := f.floats(idx, 3)
		if err != nil {
			return fmt.Errorf("failed to read normals: %w", err)
		}
		for i := 0; i < c && i < count; i++ {
			copy(verts[i].Normal[:], n[i*3:])
		}
		hasNormals = true
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uv, c, err := f.floats(idx, 2)
		if err != nil {
			return fmt.Errorf("failed to read texcoords: %w", err)
		}
		for i := 0; i < c && i < count; i++ {
			copy(verts[i].TexCoord[:], uv[i*2:])
		}
	}
	if idx, ok := prim.Attributes["TANGENT"]; ok {
		tg, c, err := f.floats(idx, 4)
		if err != nil {
			return fmt.Errorf("failed to read tangents: %w", err)
		}
		for i := 0; i < c && i < count; i++ {
			copy(verts[i].Tangent[:], tg[i*4:])
		}
		hasTangents = true
	}

	var idx []uint32
	if prim.Indices != nil {
		if idx, err = f.indices(*prim.Indices); err != nil {
			return fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		idx = make([]uint32, count)
		for i := range idx {
			idx[i] = uint32(i)
		}
	}
	for _, i := range idx {
		if int(i) >= count {
			return fmt.Errorf("index %d out of range for %d vertices", i, count)
		}
	}

	if !hasNormals {
		GenerateNormals(verts, idx)
	}
	if !hasTangents {
		GenerateTangents(verts, idx)
	}

	out.Vertices = append(out.Vertices, verts...)
	for _, i := range idx {
		out.Indices = append(out.Indices, i+base)
	}
	return nil
}

// image returns the encoded bytes of a texture's source image.
func (f *gltfFile) image(textureIndex int) ([]byte, error) {
	if textureIndex < 0 || textureIndex >= len(f.doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", textureIndex)
	}
	src := f.doc.Textures[textureIndex].Source
	if src == nil || *src < 0 || *src >= len(f.doc.Images) {
		return nil, fmt.Errorf("texture %d has no valid image", textureIndex)
	}
	img := &f.doc.Images[*src]
	if img.BufferView != nil {
		if *img.BufferView >= len(f.doc.BufferViews) {
			return nil, fmt.Errorf("image bufferView %d out of range", *img.BufferView)
		}
		bv := &f.doc.BufferViews[*img.BufferView]
		buf := f.doc.Buffers[bv.Buffer].data
		if bv.ByteOffset+bv.ByteLength > len(buf) {
			return nil, fmt.Errorf("image bufferView exceeds buffer bounds")
		}
		return append([]byte(nil), buf[bv.ByteOffset:bv.ByteOffset+bv.ByteLength]...), nil
	}
	if img.URI == "" {
		return nil, fmt.Errorf("image %d has neither bufferView nor URI", *src)
	}
	return f.loadURI(img.URI)
}
