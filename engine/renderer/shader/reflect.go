package shader

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// reflection is what pipelines need to know about a WGSL module, read once at load time.
type reflection struct {
	vertexEntry   string
	fragmentEntry string
	vertexLayouts []wgpu.VertexBufferLayout
	groups        map[int]wgpu.BindGroupLayoutDescriptor
	names         map[int]map[int]string
}

var (
	structDecl   = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	attribute    = regexp.MustCompile(`@(\w+)(?:\(\s*([^)]*?)\s*\))?`)
	resourceDecl = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
	vertexFn     = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentFn   = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
)

// reflectSource reads entry points, vertex inputs and resource bindings from expanded WGSL.
// Resource visibility covers every stage the module has an entry point for.
func reflectSource(source string) reflection {
	src := stripComments(source)
	r := reflection{
		vertexEntry:   firstMatch(vertexFn, src),
		fragmentEntry: firstMatch(fragmentFn, src),
	}

	structs := parseStructs(src)
	layouts := newLayoutResolver(structs)

	var visibility wgpu.ShaderStage
	if r.vertexEntry != "" {
		visibility |= wgpu.ShaderStageVertex
		r.vertexLayouts = vertexInputs(structs)
	}
	if r.fragmentEntry != "" {
		visibility |= wgpu.ShaderStageFragment
	}
	r.groups, r.names = resources(src, visibility, layouts)
	return r
}

func firstMatch(re *regexp.Regexp, src string) string {
	if m := re.FindStringSubmatch(src); m != nil {
		return m[1]
	}
	return ""
}

type wgslField struct {
	name     string
	typ      string
	location int // -1 when the field has no @location
	builtin  bool
}

type wgslStruct struct {
	name   string
	fields []wgslField
}

func parseStructs(src string) []wgslStruct {
	var out []wgslStruct
	for _, m := range structDecl.FindAllStringSubmatch(src, -1) {
		s := wgslStruct{name: m[1]}
		for _, member := range splitMembers(m[2]) {
			if f, ok := parseField(member); ok {
				s.fields = append(s.fields, f)
			}
		}
		out = append(out, s)
	}
	return out
}

// parseField reads "@location(2) normal: vec3<f32>" style members.
func parseField(member string) (wgslField, bool) {
	f := wgslField{location: -1}
	for _, a := range attribute.FindAllStringSubmatch(member, -1) {
		switch a[1] {
		case "builtin":
			f.builtin = true
		case "location":
			if n, err := strconv.Atoi(a[2]); err == nil {
				f.location = n
			}
		}
	}
	decl := strings.TrimSpace(attribute.ReplaceAllString(member, ""))
	name, typ, ok := strings.Cut(decl, ":")
	if !ok {
		return f, false
	}
	f.name = strings.TrimSpace(name)
	f.typ = strings.Join(strings.Fields(typ), "")
	return f, f.name != "" && f.typ != ""
}

// splitMembers splits a struct body at commas outside angle brackets, so array<T, N> stays whole.
func splitMembers(body string) []string {
	var parts []string
	depth, start := 0, 0
	for i, c := range body {
		switch c {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(body[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// vertexInputs returns one per-vertex buffer layout for every struct that has @location members
// and no @builtin member, in declaration order. Output structs always carry @builtin(position).
func vertexInputs(structs []wgslStruct) []wgpu.VertexBufferLayout {
	var out []wgpu.VertexBufferLayout
	for _, s := range structs {
		if layout, ok := vertexInput(s); ok {
			out = append(out, layout)
		}
	}
	return out
}

func vertexInput(s wgslStruct) (wgpu.VertexBufferLayout, bool) {
	layout := wgpu.VertexBufferLayout{StepMode: wgpu.VertexStepModeVertex}
	for _, f := range s.fields {
		if f.builtin || f.location < 0 {
			return wgpu.VertexBufferLayout{}, false
		}
		format, size, ok := vertexFormat(f.typ)
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         format,
			Offset:         layout.ArrayStride,
			ShaderLocation: uint32(f.location),
		})
		layout.ArrayStride += size
	}
	return layout, len(layout.Attributes) > 0
}

var vertexFormats = map[string][4]wgpu.VertexFormat{
	"f32": {wgpu.VertexFormatFloat32, wgpu.VertexFormatFloat32x2, wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x4},
	"i32": {wgpu.VertexFormatSint32, wgpu.VertexFormatSint32x2, wgpu.VertexFormatSint32x3, wgpu.VertexFormatSint32x4},
	"u32": {wgpu.VertexFormatUint32, wgpu.VertexFormatUint32x2, wgpu.VertexFormatUint32x3, wgpu.VertexFormatUint32x4},
}

// vertexFormat maps a 32-bit scalar or vector type to its attribute format and byte size.
func vertexFormat(typ string) (wgpu.VertexFormat, uint64, bool) {
	scalar, n, ok := vectorType(typ)
	if !ok {
		return 0, 0, false
	}
	formats, ok := vertexFormats[scalar]
	if !ok {
		return 0, 0, false
	}
	return formats[n-1], uint64(4 * n), true
}

// vectorType splits "f32", "vec3<f32>" or "vec3f" into its scalar and component count.
func vectorType(typ string) (string, int, bool) {
	switch typ {
	case "f32", "i32", "u32":
		return typ, 1, true
	}
	rest, ok := strings.CutPrefix(typ, "vec")
	if !ok || len(rest) < 2 || rest[0] < '2' || rest[0] > '4' {
		return "", 0, false
	}
	n := int(rest[0] - '0')
	switch suffix := rest[1:]; suffix {
	case "f", "i", "u":
		return suffix + "32", n, true
	default:
		if inner, ok := angleParam(suffix); ok {
			return inner, n, true
		}
	}
	return "", 0, false
}

// angleParam returns "T" for "<T>".
func angleParam(s string) (string, bool) {
	if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
		return "", false
	}
	return s[1 : len(s)-1], true
}

// typeLayout is a host-shareable size and alignment.
type typeLayout struct {
	size  uint64
	align uint64
}

func (l typeLayout) stride() uint64 {
	return alignUp(l.size, l.align)
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

// layoutResolver computes WGSL memory layouts, resolving struct members on demand.
type layoutResolver struct {
	structs  map[string]wgslStruct
	resolved map[string]typeLayout
	visiting map[string]bool
}

func newLayoutResolver(structs []wgslStruct) *layoutResolver {
	r := &layoutResolver{
		structs:  make(map[string]wgslStruct, len(structs)),
		resolved: make(map[string]typeLayout),
		visiting: make(map[string]bool),
	}
	for _, s := range structs {
		r.structs[s.name] = s
	}
	return r
}

// layout returns the layout of typ. A runtime-sized array reports one element's stride,
// the smallest binding that is still useful.
func (r *layoutResolver) layout(typ string) (typeLayout, bool) {
	if scalar, n, ok := vectorType(typ); ok {
		if scalar == "f16" {
			return typeLayout{}, false
		}
		if n == 1 {
			return typeLayout{4, 4}, true
		}
		align := uint64(8)
		if n > 2 {
			align = 16
		}
		return typeLayout{uint64(4 * n), align}, true
	}
	if cols, rows, ok := matrixType(typ); ok {
		column, _ := r.layout("vec" + strconv.Itoa(rows) + "f")
		return typeLayout{uint64(cols) * column.stride(), column.align}, true
	}
	if elem, count, ok := arrayType(typ); ok {
		el, ok := r.layout(elem)
		if !ok {
			return typeLayout{}, false
		}
		return typeLayout{uint64(max(count, 1)) * el.stride(), el.align}, true
	}
	if typ == "bool" {
		return typeLayout{4, 4}, true
	}
	return r.structLayout(typ)
}

func (r *layoutResolver) structLayout(name string) (typeLayout, bool) {
	if l, ok := r.resolved[name]; ok {
		return l, true
	}
	s, ok := r.structs[name]
	if !ok || r.visiting[name] {
		return typeLayout{}, false
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	var offset uint64
	align := uint64(1)
	for _, f := range s.fields {
		if f.builtin {
			continue
		}
		fl, ok := r.layout(f.typ)
		if !ok {
			return typeLayout{}, false
		}
		if _, count, isArray := arrayType(f.typ); isArray && count == 0 {
			// runtime-sized tail: the struct's size is its fixed prefix
			offset = alignUp(offset, fl.align)
			if offset == 0 {
				offset = fl.size
			}
			align = max(align, fl.align)
			break
		}
		offset = alignUp(offset, fl.align) + fl.size
		align = max(align, fl.align)
	}
	l := typeLayout{alignUp(offset, align), align}
	r.resolved[name] = l
	return l, true
}

// matrixType parses "mat4x4<f32>" and "mat3x3f".
func matrixType(typ string) (int, int, bool) {
	rest, ok := strings.CutPrefix(typ, "mat")
	if !ok || len(rest) < 4 || rest[1] != 'x' {
		return 0, 0, false
	}
	cols, rows := int(rest[0]-'0'), int(rest[2]-'0')
	if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
		return 0, 0, false
	}
	if suffix := rest[3:]; suffix != "f" && suffix != "<f32>" {
		return 0, 0, false
	}
	return cols, rows, true
}

// arrayType parses "array<T, N>" (count N) and "array<T>" (count 0).
func arrayType(typ string) (string, int, bool) {
	rest, ok := strings.CutPrefix(typ, "array")
	if !ok {
		return "", 0, false
	}
	inner, ok := angleParam(rest)
	if !ok {
		return "", 0, false
	}
	cut := strings.LastIndex(inner, ",")
	if cut < 0 || strings.Contains(inner[cut:], ">") {
		return inner, 0, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(inner[cut+1:]))
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(inner[:cut]), n, true
}

// resources builds a layout descriptor per @group from the module's var declarations, with
// entries sorted by binding. Buffer entries carry the bound type's size as MinBindingSize.
func resources(src string, visibility wgpu.ShaderStage, layouts *layoutResolver) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, m := range resourceDecl.FindAllStringSubmatch(src, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		space := strings.Join(strings.Fields(m[3]), "")
		name := m[4]
		typ := strings.Join(strings.Fields(m[5]), "")

		entry := resourceEntry(uint32(binding), visibility, space, typ)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := layouts.layout(typ); ok {
				entry.Buffer.MinBindingSize = l.size
			}
		}
		entries[group] = append(entries[group], entry)
		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = name
	}

	groups := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, list := range entries {
		slices.SortFunc(list, func(a, b wgpu.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		groups[g] = wgpu.BindGroupLayoutDescriptor{Entries: list}
	}
	return groups, names
}

var textureDimensions = map[string]wgpu.TextureViewDimension{
	"texture_2d":             wgpu.TextureViewDimension2D,
	"texture_2d_array":       wgpu.TextureViewDimension2DArray,
	"texture_cube":           wgpu.TextureViewDimensionCube,
	"texture_depth_2d":       wgpu.TextureViewDimension2D,
	"texture_depth_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_depth_cube":     wgpu.TextureViewDimensionCube,
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// resourceEntry classifies buffers by address space and handles by type name. Types the
// renderer never binds, such as storage textures, yield an entry with no binding type.
func resourceEntry(binding uint32, visibility wgpu.ShaderStage, space, typ string) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	switch {
	case space == "uniform":
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
	case space == "storage,read_write":
		e.Buffer.Type = wgpu.BufferBindingTypeStorage
	case strings.HasPrefix(space, "storage"):
		e.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case typ == "sampler":
		e.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typ == "sampler_comparison":
		e.Sampler.Type = wgpu.SamplerBindingTypeComparison
	default:
		base, param, _ := strings.Cut(typ, "<")
		dim, ok := textureDimensions[base]
		if !ok {
			return e
		}
		e.Texture.ViewDimension = dim
		if strings.HasPrefix(base, "texture_depth") {
			e.Texture.SampleType = wgpu.TextureSampleTypeDepth
		} else if st, ok := sampleTypes[strings.TrimSuffix(param, ">")]; ok {
			e.Texture.SampleType = st
		}
	}
	return e
}

// stripComments removes line comments and nested block comments in one pass.
func stripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	depth := 0
	for i := 0; i < len(src); i++ {
		switch {
		case depth == 0 && strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				return sb.String()
			}
			i += end - 1
		case strings.HasPrefix(src[i:], "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(src[i:], "*/"):
			depth--
			i++
		case depth == 0:
			sb.WriteByte(src[i])
		}
	}
	return sb.String()
}
