// pre_processor.go expands //#include directives in WGSL sources. Each include name maps to the
// WGSL struct source embedded next to the Go type that marshals it, so the CPU and GPU layouts
// are declared once and shared by every shader.
package shader

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/dreamscape/engine/camera"
	"github.com/Carmen-Shannon/dreamscape/engine/light"
	"github.com/Carmen-Shannon/dreamscape/engine/model"
)

// includePrefix marks an include directive. The rest of the line is the include name.
const includePrefix = "//#include"

// Include names understood by the pre-processor.
const (
	IncludeCamera     = "camera"
	IncludeSkybox     = "skybox"
	IncludeLights     = "lights"
	IncludeVertex     = "vertex"
	IncludeInstance   = "instance"
	IncludeFullscreen = "fullscreen"
)

//go:embed assets/fullscreen.wgsl
var fullscreenSource string

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// registry maps include names to WGSL source.
	registry map[string]string
}

// PreProcessor replaces include directives in WGSL source with registered snippets.
type PreProcessor interface {
	// Process expands every include line. Each name is expanded at most once per source;
	// repeats are dropped so shared structs are never redeclared.
	//
	// Parameters:
	//   - source: raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: an error naming the line of an unknown or malformed include
	Process(source string) (string, error)

	// Register adds or replaces an include snippet.
	//
	// Parameters:
	//   - name: the include name
	//   - source: the WGSL text substituted for it
	Register(name, source string)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's GPU struct sources registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		registry: map[string]string{
			IncludeCamera:     camera.GPUCameraUniformSource,
			IncludeSkybox:     camera.GPUSkyboxUniformSource,
			IncludeLights:     light.GPULightsSource,
			IncludeVertex:     model.GPUVertexSource,
			IncludeInstance:   model.GPUInstanceSource,
			IncludeFullscreen: fullscreenSource,
		},
	}
}

func (p *preProcessor) Register(name, source string) {
	p.registry[name] = source
}

func (p *preProcessor) Process(source string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	seen := make(map[string]bool)

	for i, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), includePrefix)
		if !ok {
			out = append(out, line)
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) != 1 {
			return "", fmt.Errorf("line %d: include takes exactly one name", i+1)
		}
		name := fields[0]
		snippet, ok := p.registry[name]
		if !ok {
			return "", fmt.Errorf("line %d: unknown include %q", i+1, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, strings.TrimRight(snippet, "\n"))
	}
	return strings.Join(out, "\n"), nil
}
