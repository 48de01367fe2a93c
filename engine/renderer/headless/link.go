package headless

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

func stageName(stage gl.Enum) string {
	switch stage {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	case gl.GEOMETRY_SHADER:
		return "geometry"
	}
	return "unknown"
}

type linkLog struct {
	lines []string
}

func (l *linkLog) errorf(format string, args ...any) {
	l.lines = append(l.lines, "error: "+fmt.Sprintf(format, args...))
}

// link resolves the interface of shaders into p. A failed link leaves p
// unlinked with an info log, and drops what a previous link resolved.
func (d *Driver) link(p *programObject, shaders []*shaderObject) {
	log := &linkLog{}
	p.linked = false
	p.attributes, p.byName, p.byLoc = nil, nil, nil
	p.uniforms, p.blocks = nil, nil

	stages := map[gl.Enum]*translationUnit{}
	for _, s := range shaders {
		if !s.compiled {
			log.errorf("linking with uncompiled/unspecialized shader")
			continue
		}
		if !s.unit.hasMain() {
			log.errorf("%s shader lacks `main'", stageName(s.stage))
			continue
		}
		stages[s.stage] = s.unit
	}
	if len(log.lines) == 0 {
		for _, stage := range []gl.Enum{gl.VERTEX_SHADER, gl.FRAGMENT_SHADER} {
			if stages[stage] == nil {
				log.errorf("program lacks a %s shader", stageName(stage))
			}
		}
	}
	if len(log.lines) == 0 {
		matchVaryings(stages, log)
	}

	var attributes map[string]int32
	var uniforms []*uniformSlot
	var blocks []blockSlot
	if len(log.lines) == 0 {
		attributes = assignAttributes(stages[gl.VERTEX_SHADER], p.bindings, log)
		uniforms = mergeUniforms(stages, log)
		blocks = mergeBlocks(stages, log)
	}
	if len(log.lines) > 0 {
		p.log = strings.Join(log.lines, "\n") + "\n"
		return
	}

	p.log = ""
	p.linked = true
	p.attributes = attributes
	p.uniforms = uniforms
	p.blocks = blocks
	p.byName = make(map[string]*uniformSlot)
	p.byLoc = make(map[int32]*uniformSlot)
	for _, u := range uniforms {
		p.byName[u.name] = u
		p.byLoc[u.location] = u
	}
	// an array is also reachable by its bare name
	for _, u := range uniforms {
		if base, found := strings.CutSuffix(u.name, "[0]"); found {
			p.byName[base] = u
		}
	}
}

// matchVaryings checks that every input of a stage is written by the stage
// before it with the same type.
func matchVaryings(stages map[gl.Enum]*translationUnit, log *linkLog) {
	order := []*translationUnit{stages[gl.VERTEX_SHADER]}
	if g := stages[gl.GEOMETRY_SHADER]; g != nil {
		order = append(order, g)
	}
	order = append(order, stages[gl.FRAGMENT_SHADER])
	for i := 1; i < len(order); i++ {
		outputs := map[string]glslType{}
		for _, o := range order[i-1].outputs {
			outputs[o.name] = o.typ
		}
		for _, in := range order[i].inputs {
			out, ok := outputs[in.name]
			if !ok {
				log.errorf("%s shader input `%s' has no matching output in the previous stage",
					stageName(order[i].stage), in.name)
				continue
			}
			if out.name != in.typ.name {
				log.errorf("`%s' declared as type `%s' but outputted from previous stage as type `%s'",
					in.name, in.typ.name, out.name)
			}
		}
	}
}

// assignAttributes places the vertex inputs: layout locations first, then
// BindAttribLocation requests, then the lowest free slots in declaration
// order. A matrix takes one slot per column.
func assignAttributes(vs *translationUnit, bindings map[string]uint32, log *linkLog) map[string]int32 {
	out := make(map[string]int32)
	var used [MaxVertexAttributes]bool
	claim := func(decl declaration, loc int) bool {
		n := decl.typ.matrixColumns()
		if loc < 0 || loc+n > MaxVertexAttributes {
			log.errorf("invalid location %d for vertex shader input `%s'", loc, decl.name)
			return false
		}
		for i := loc; i < loc+n; i++ {
			if used[i] {
				log.errorf("insufficient contiguous locations available for vertex shader input `%s'", decl.name)
				return false
			}
		}
		for i := loc; i < loc+n; i++ {
			used[i] = true
		}
		out[decl.name] = int32(loc)
		return true
	}

	var pending []declaration
	for _, in := range vs.inputs {
		if in.location >= 0 {
			claim(in, in.location)
		} else {
			pending = append(pending, in)
		}
	}
	var rest []declaration
	for _, in := range pending {
		if loc, ok := bindings[in.name]; ok {
			claim(in, int(loc))
		} else {
			rest = append(rest, in)
		}
	}
	for _, in := range rest {
		n := in.typ.matrixColumns()
		placed := false
		for loc := 0; loc+n <= MaxVertexAttributes && !placed; loc++ {
			free := true
			for i := loc; i < loc+n; i++ {
				free = free && !used[i]
			}
			if free {
				placed = claim(in, loc)
			}
		}
		if !placed {
			log.errorf("too many vertex shader inputs")
			break
		}
	}
	return out
}

// mergeUniforms collects the default block uniforms of every stage and
// numbers them in name order. Arrays take one location per element.
func mergeUniforms(stages map[gl.Enum]*translationUnit, log *linkLog) []*uniformSlot {
	declared := map[string]declaration{}
	for _, stage := range []gl.Enum{gl.VERTEX_SHADER, gl.GEOMETRY_SHADER, gl.FRAGMENT_SHADER} {
		unit := stages[stage]
		if unit == nil {
			continue
		}
		for _, u := range unit.uniforms {
			if prev, ok := declared[u.name]; ok && (prev.typ.name != u.typ.name || prev.arraySize != u.arraySize) {
				log.errorf("uniform `%s' declared as type `%s' and type `%s'", u.name, prev.typ.name, u.typ.name)
				continue
			}
			declared[u.name] = u
		}
	}
	names := make([]string, 0, len(declared))
	for name, u := range declared {
		// struct uniforms have no location of their own
		if _, builtin := builtinTypes[u.typ.name]; builtin {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []*uniformSlot
	next := int32(0)
	for _, name := range names {
		u := declared[name]
		slot := func(n string) {
			out = append(out, &uniformSlot{
				name:     n,
				typ:      u.typ,
				location: next,
				values:   make([]float64, u.typ.components),
			})
			next++
		}
		if u.arraySize == 0 {
			slot(name)
			continue
		}
		for i := 0; i < u.arraySize; i++ {
			slot(fmt.Sprintf("%s[%d]", name, i))
		}
	}
	return out
}

// mergeBlocks collects the uniform blocks of every stage in name order.
func mergeBlocks(stages map[gl.Enum]*translationUnit, log *linkLog) []blockSlot {
	declared := map[string]blockDeclaration{}
	for _, stage := range []gl.Enum{gl.VERTEX_SHADER, gl.GEOMETRY_SHADER, gl.FRAGMENT_SHADER} {
		unit := stages[stage]
		if unit == nil {
			continue
		}
		for _, b := range unit.blocks {
			if prev, ok := declared[b.name]; ok && len(prev.members) != len(b.members) {
				log.errorf("uniform block `%s' has mismatching definitions", b.name)
				continue
			}
			declared[b.name] = b
		}
	}
	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]blockSlot, 0, len(names))
	for _, name := range names {
		binding := uint32(0)
		if b := declared[name].binding; b > 0 {
			binding = uint32(b)
		}
		out = append(out, blockSlot{name: name, binding: binding})
	}
	return out
}
