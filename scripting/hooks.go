package scripting

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/tiledmap/tiled"
)

// ReadFunc loads a script by its asset path.
type ReadFunc func(p string) ([]byte, error)

// Result is what a spawn hook may change about an object. Scripts see the
// fields as the globals visible, z, collider and tags.
type Result struct {
	Visible  bool
	Z        float64
	Collider string
	Tags     []string
}

// Hooks runs the script bound to an object's type when it spawns.
type Hooks struct {
	mu     sync.Mutex
	read   ReadFunc
	byType map[string]string
	cache  map[string]*tengo.Compiled
}

func New(read ReadFunc, scripts map[string]string) *Hooks {
	byType := make(map[string]string, len(scripts))
	for typ, p := range scripts {
		byType[typ] = path.Clean(p)
	}
	return &Hooks{
		read:   read,
		byType: byType,
		cache:  map[string]*tengo.Compiled{},
	}
}

func (h *Hooks) Has(typ string) bool {
	if h == nil {
		return false
	}
	_, ok := h.byType[typ]
	return ok
}

// Paths returns the script paths in use.
func (h *Hooks) Paths() []string {
	if h == nil {
		return nil
	}
	out := make([]string, 0, len(h.byType))
	for _, p := range h.byType {
		out = append(out, p)
	}
	return out
}

// Run applies the object's hook to in. ok is false when the type has no hook.
func (h *Hooks) Run(obj tiled.Object, in Result) (out Result, ok bool, err error) {
	if h == nil {
		return in, false, nil
	}
	p, ok := h.byType[obj.Type]
	if !ok {
		return in, false, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	compiled, err := h.compiledLocked(p)
	if err != nil {
		return in, true, err
	}

	tags := make([]any, 0, len(in.Tags))
	for _, t := range in.Tags {
		tags = append(tags, t)
	}
	vars := []struct {
		name  string
		value any
	}{
		{"object", objectMap(obj)},
		{"visible", in.Visible},
		{"z", in.Z},
		{"collider", in.Collider},
		{"tags", tags},
	}
	for _, v := range vars {
		if err := compiled.Set(v.name, v.value); err != nil {
			return in, true, fmt.Errorf("scripting: %s: set %s: %w", p, v.name, err)
		}
	}
	if err := compiled.Run(); err != nil {
		return in, true, fmt.Errorf("scripting: %s: %w", p, err)
	}

	out = Result{
		Visible:  compiled.Get("visible").Bool(),
		Z:        compiled.Get("z").Float(),
		Collider: strings.TrimSpace(compiled.Get("collider").String()),
	}
	for _, t := range compiled.Get("tags").Array() {
		if s, ok := t.(string); ok && s != "" {
			out.Tags = append(out.Tags, s)
		}
	}
	return out, true, nil
}

func (h *Hooks) compiledLocked(p string) (*tengo.Compiled, error) {
	if c, ok := h.cache[p]; ok {
		return c, nil
	}
	if h.read == nil {
		return nil, fmt.Errorf("scripting: %s: no reader", p)
	}
	src, err := h.read(p)
	if err != nil {
		return nil, fmt.Errorf("scripting: load %s: %w", p, err)
	}

	script := tengo.NewScript(src)
	_ = script.Add("object", map[string]any{})
	_ = script.Add("visible", true)
	_ = script.Add("z", 0.0)
	_ = script.Add("collider", "")
	_ = script.Add("tags", []any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("scripting: compile %s: %w", p, err)
	}
	h.cache[p] = compiled
	return compiled, nil
}

// Invalidate drops the compiled form of any changed script and reports how
// many bound scripts changed. A script that failed to compile counts too, so
// fixing it triggers a respawn. Scripts are recompiled on their next run.
func (h *Hooks) Invalidate(changed []string) int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	bound := make(map[string]bool, len(h.byType))
	for _, p := range h.byType {
		bound[p] = true
	}
	n := 0
	for _, p := range changed {
		p = path.Clean(p)
		delete(h.cache, p)
		if bound[p] {
			delete(bound, p)
			n++
		}
	}
	return n
}

func objectMap(o tiled.Object) *tengo.ImmutableMap {
	props, err := tengo.FromInterface(o.Properties.Map())
	if err != nil {
		props = &tengo.Map{Value: map[string]tengo.Object{}}
	}
	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"id":         &tengo.Int{Value: int64(o.ID)},
		"name":       &tengo.String{Value: o.Name},
		"type":       &tengo.String{Value: o.Type},
		"shape":      &tengo.String{Value: o.Shape.String()},
		"gid":        &tengo.Int{Value: int64(o.GID)},
		"x":          &tengo.Float{Value: float64(o.Position.X())},
		"y":          &tengo.Float{Value: float64(o.Position.Y())},
		"width":      &tengo.Float{Value: float64(o.Size.X())},
		"height":     &tengo.Float{Value: float64(o.Size.Y())},
		"rotation":   &tengo.Float{Value: float64(o.Rotation)},
		"properties": props,
	}}
}
