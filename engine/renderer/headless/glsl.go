package headless

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

// The front end below is not a GLSL compiler. It tokenizes a shader, reads
// its interface (inputs, outputs, uniforms, blocks and functions) and
// checks that every identifier used in a function body is declared. That
// is enough to produce the info logs and link-time interface a driver
// reports for the shaders this engine ships.

type baseKind int

const (
	kindFloat baseKind = iota
	kindInt
	kindUint
	kindBool
	kindSampler
	kindVoid
)

type glslType struct {
	name       string
	base       baseKind
	components int
}

var builtinTypes = map[string]glslType{}

func init() {
	add := func(name string, base baseKind, components int) {
		builtinTypes[name] = glslType{name: name, base: base, components: components}
	}
	add("void", kindVoid, 0)
	add("float", kindFloat, 1)
	add("int", kindInt, 1)
	add("uint", kindUint, 1)
	add("bool", kindBool, 1)
	for n := 2; n <= 4; n++ {
		add(fmt.Sprintf("vec%d", n), kindFloat, n)
		add(fmt.Sprintf("ivec%d", n), kindInt, n)
		add(fmt.Sprintf("uvec%d", n), kindUint, n)
		add(fmt.Sprintf("bvec%d", n), kindBool, n)
		add(fmt.Sprintf("mat%d", n), kindFloat, n*n)
	}
	for _, s := range []string{"sampler2D", "sampler3D", "samplerCube", "sampler2DArray", "sampler2DShadow", "isampler2D", "usampler2D"} {
		add(s, kindSampler, 1)
	}
}

// matrixColumns returns the attribute locations a type occupies.
func (t glslType) matrixColumns() int {
	switch t.name {
	case "mat2":
		return 2
	case "mat3":
		return 3
	case "mat4":
		return 4
	}
	return 1
}

var keywords = map[string]bool{}
var builtinFunctions = map[string]bool{}
var builtinVariables = map[string]bool{}

func init() {
	for _, k := range strings.Fields(`if else for while do return break continue discard switch case default
		const in out inout uniform attribute varying layout struct true false
		highp mediump lowp precision flat smooth noperspective centroid invariant`) {
		keywords[k] = true
	}
	for _, f := range strings.Fields(`radians degrees sin cos tan asin acos atan sinh cosh tanh
		pow exp log exp2 log2 sqrt inversesqrt abs sign floor ceil trunc round fract mod modf
		min max clamp mix step smoothstep isnan isinf length distance dot cross normalize
		faceforward reflect refract matrixCompMult outerProduct transpose determinant inverse
		lessThan lessThanEqual greaterThan greaterThanEqual equal notEqual any all not
		texture texture2D textureLod textureOffset texelFetch textureSize textureProj
		dFdx dFdy fwidth EmitVertex EndPrimitive`) {
		builtinFunctions[f] = true
	}
	for _, v := range strings.Fields(`gl_Position gl_PointSize gl_ClipDistance gl_VertexID gl_InstanceID
		gl_FragCoord gl_FrontFacing gl_PointCoord gl_FragDepth gl_FragColor gl_PrimitiveID gl_in`) {
		builtinVariables[v] = true
	}
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokPunct
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

type declaration struct {
	name      string
	typ       glslType
	storage   string
	location  int
	arraySize int
}

type blockDeclaration struct {
	name     string
	instance string
	binding  int
	members  []declaration
}

// translationUnit is the interface of one compiled shader.
type translationUnit struct {
	stage     gl.Enum
	version   string
	inputs    []declaration
	outputs   []declaration
	uniforms  []declaration
	blocks    []blockDeclaration
	functions map[string]bool
}

func (u *translationUnit) hasMain() bool {
	return u.functions["main"]
}

type diagnostics struct {
	lines []string
}

func (d *diagnostics) errorf(t token, format string, args ...any) {
	d.lines = append(d.lines, fmt.Sprintf("0:%d(%d): error: %s", t.line, t.col, fmt.Sprintf(format, args...)))
}

func (d *diagnostics) failed() bool { return len(d.lines) > 0 }

func (d *diagnostics) String() string {
	if len(d.lines) == 0 {
		return ""
	}
	return strings.Join(d.lines, "\n") + "\n"
}

// compileSource analyzes src for stage. The returned log is empty when the
// source is accepted.
func compileSource(stage gl.Enum, src string) (*translationUnit, string) {
	diags := &diagnostics{}
	toks, version := tokenize(src, diags)
	if diags.failed() {
		return nil, diags.String()
	}
	a := &analyzer{
		toks:    toks,
		diags:   diags,
		globals: make(map[string]glslType),
		structs: make(map[string]bool),
		unit: &translationUnit{
			stage:     stage,
			version:   version,
			functions: make(map[string]bool),
		},
	}
	a.translationUnit()
	if diags.failed() {
		return nil, diags.String()
	}
	return a.unit, ""
}

func tokenize(src string, diags *diagnostics) ([]token, string) {
	var toks []token
	version := ""
	line, col := 1, 1
	rs := []rune(src)
	atLineStart := true
	advance := func(n int) {
		for i := 0; i < n; i++ {
			if rs[0] == '\n' {
				line++
				col = 1
				atLineStart = true
			} else {
				col++
			}
			rs = rs[1:]
		}
	}
	for len(rs) > 0 {
		r := rs[0]
		switch {
		case r == '\n':
			advance(1)
			continue
		case unicode.IsSpace(r):
			advance(1)
			continue
		case r == '#' && atLineStart:
			end := 0
			for end < len(rs) && rs[end] != '\n' {
				end++
			}
			directive := strings.Fields(string(rs[1:end]))
			if len(directive) >= 2 && directive[0] == "version" {
				version = strings.Join(directive[1:], " ")
			}
			advance(end)
			continue
		case r == '/' && len(rs) > 1 && rs[1] == '/':
			end := 0
			for end < len(rs) && rs[end] != '\n' {
				end++
			}
			advance(end)
			continue
		case r == '/' && len(rs) > 1 && rs[1] == '*':
			end := 2
			for end+1 < len(rs) && !(rs[end] == '*' && rs[end+1] == '/') {
				end++
			}
			if end+1 >= len(rs) {
				diags.errorf(token{line: line, col: col}, "unterminated comment")
				return nil, version
			}
			advance(end + 2)
			continue
		}
		atLineStart = false
		start := token{line: line, col: col}
		switch {
		case r == '_' || unicode.IsLetter(r):
			n := 0
			for n < len(rs) && (rs[n] == '_' || unicode.IsLetter(rs[n]) || unicode.IsDigit(rs[n])) {
				n++
			}
			start.kind, start.text = tokIdent, string(rs[:n])
			advance(n)
		case unicode.IsDigit(r) || (r == '.' && len(rs) > 1 && unicode.IsDigit(rs[1])):
			n := 0
			for n < len(rs) && (unicode.IsDigit(rs[n]) || unicode.IsLetter(rs[n]) || rs[n] == '.' ||
				((rs[n] == '+' || rs[n] == '-') && n > 0 && (rs[n-1] == 'e' || rs[n-1] == 'E'))) {
				n++
			}
			start.kind, start.text = tokNumber, string(rs[:n])
			advance(n)
		case strings.ContainsRune("{}()[];,.=+-*/%<>!&|^~?:", r):
			start.kind, start.text = tokPunct, string(r)
			advance(1)
		default:
			diags.errorf(start, "syntax error, unexpected character `%c'", r)
			return nil, version
		}
		toks = append(toks, start)
	}
	toks = append(toks, token{kind: tokEOF, line: line, col: col})
	return toks, version
}

type analyzer struct {
	toks    []token
	pos     int
	diags   *diagnostics
	globals map[string]glslType
	structs map[string]bool
	unit    *translationUnit
}

func (a *analyzer) peek() token       { return a.toks[a.pos] }
func (a *analyzer) peekAt(n int) token {
	if a.pos+n >= len(a.toks) {
		return a.toks[len(a.toks)-1]
	}
	return a.toks[a.pos+n]
}
func (a *analyzer) next() token {
	t := a.toks[a.pos]
	if t.kind != tokEOF {
		a.pos++
	}
	return t
}

func (a *analyzer) is(text string) bool {
	t := a.peek()
	return t.kind != tokEOF && t.text == text
}

func (a *analyzer) expect(text string) bool {
	t := a.peek()
	if t.kind == tokEOF {
		a.diags.errorf(t, "syntax error, unexpected end of file, expecting `%s'", text)
		return false
	}
	if t.text != text {
		a.diags.errorf(t, "syntax error, unexpected `%s', expecting `%s'", t.text, text)
		return false
	}
	a.next()
	return true
}

func (a *analyzer) isType(name string) bool {
	_, builtin := builtinTypes[name]
	return builtin || a.structs[name]
}

func (a *analyzer) typeOf(name string) glslType {
	if t, ok := builtinTypes[name]; ok {
		return t
	}
	return glslType{name: name, base: kindFloat}
}

// skipStatement moves past the next ';' outside brackets.
func (a *analyzer) skipStatement() {
	depth := 0
	for {
		t := a.next()
		switch {
		case t.kind == tokEOF:
			return
		case t.text == "(" || t.text == "{" || t.text == "[":
			depth++
		case t.text == ")" || t.text == "}" || t.text == "]":
			depth--
		case t.text == ";" && depth <= 0:
			return
		}
	}
}

func (a *analyzer) translationUnit() {
	for a.peek().kind != tokEOF && !a.diags.failed() {
		a.externalDeclaration()
	}
}

func (a *analyzer) externalDeclaration() {
	if a.is(";") {
		a.next()
		return
	}
	if a.is("precision") {
		a.skipStatement()
		return
	}
	layout := map[string]int{}
	if a.is("layout") {
		a.next()
		layout = a.layoutQualifier()
	}
	storage := ""
	for {
		t := a.peek()
		switch t.text {
		case "in", "out", "uniform", "attribute", "varying", "const", "inout":
			if t.text != "const" {
				storage = t.text
			}
			a.next()
			continue
		case "flat", "smooth", "noperspective", "centroid", "invariant", "highp", "mediump", "lowp":
			a.next()
			continue
		}
		break
	}
	if a.is("struct") {
		a.structDeclaration()
		return
	}
	t := a.peek()
	if storage == "uniform" && t.kind == tokIdent && !a.isType(t.text) && a.peekAt(1).text == "{" {
		a.blockDeclaration(layout)
		return
	}
	if storage == "in" && a.unit.stage == gl.GEOMETRY_SHADER && t.kind == tokPunct && t.text == ";" {
		// layout(triangles) in;
		a.next()
		return
	}
	if storage == "out" && a.unit.stage == gl.GEOMETRY_SHADER && t.text == ";" {
		a.next()
		return
	}
	if t.kind != tokIdent || !a.isType(t.text) {
		if t.kind == tokIdent {
			a.diags.errorf(t, "unknown type `%s'", t.text)
		} else {
			a.diags.errorf(t, "syntax error, unexpected `%s'", t.text)
		}
		a.skipStatement()
		return
	}
	typ := a.typeOf(a.next().text)
	name := a.peek()
	if name.kind != tokIdent {
		a.diags.errorf(name, "syntax error, unexpected `%s', expecting identifier", name.text)
		a.skipStatement()
		return
	}
	a.next()
	if a.is("(") {
		a.functionDefinition(name.text)
		return
	}
	a.variableDeclarators(typ, name, storage, layout)
}

func (a *analyzer) layoutQualifier() map[string]int {
	out := map[string]int{}
	if !a.expect("(") {
		return out
	}
	for !a.is(")") && a.peek().kind != tokEOF {
		key := a.next()
		value := 0
		if a.is("=") {
			a.next()
			n, err := strconv.Atoi(a.peek().text)
			if err != nil {
				a.diags.errorf(a.peek(), "layout qualifier `%s' requires an integer", key.text)
			}
			value = n
			a.next()
		}
		out[key.text] = value
		if a.is(",") {
			a.next()
		}
	}
	a.expect(")")
	return out
}

func (a *analyzer) arraySuffix() int {
	if !a.is("[") {
		return 0
	}
	a.next()
	n := 0
	if a.peek().kind == tokNumber {
		n, _ = strconv.Atoi(a.next().text)
	}
	a.expect("]")
	return n
}

func (a *analyzer) structDeclaration() {
	a.next()
	name := a.next()
	if name.kind != tokIdent {
		a.diags.errorf(name, "syntax error, unexpected `%s', expecting identifier", name.text)
		return
	}
	a.structs[name.text] = true
	if !a.expect("{") {
		return
	}
	a.members()
	for a.peek().kind == tokIdent {
		a.globals[a.next().text] = glslType{name: name.text}
		a.arraySuffix()
		if a.is(",") {
			a.next()
		}
	}
	a.expect(";")
}

// members reads declarations up to and including the closing brace.
func (a *analyzer) members() []declaration {
	var out []declaration
	for !a.is("}") {
		t := a.next()
		if t.kind == tokEOF {
			a.diags.errorf(t, "syntax error, unexpected end of file")
			return out
		}
		for t.text == "highp" || t.text == "mediump" || t.text == "lowp" {
			t = a.next()
		}
		if !a.isType(t.text) {
			a.diags.errorf(t, "unknown type `%s'", t.text)
			return out
		}
		typ := a.typeOf(t.text)
		for {
			name := a.next()
			if name.kind != tokIdent {
				a.diags.errorf(name, "syntax error, unexpected `%s', expecting identifier", name.text)
				return out
			}
			out = append(out, declaration{name: name.text, typ: typ, location: -1, arraySize: a.arraySuffix()})
			if !a.is(",") {
				break
			}
			a.next()
		}
		if !a.expect(";") {
			return out
		}
	}
	a.next()
	return out
}

func (a *analyzer) blockDeclaration(layout map[string]int) {
	name := a.next()
	a.next() // {
	block := blockDeclaration{name: name.text, binding: -1}
	if b, ok := layout["binding"]; ok {
		block.binding = b
	}
	block.members = a.members()
	if a.peek().kind == tokIdent {
		block.instance = a.next().text
		a.arraySuffix()
		a.globals[block.instance] = glslType{name: name.text}
	} else {
		for _, m := range block.members {
			a.globals[m.name] = m.typ
		}
	}
	a.expect(";")
	a.unit.blocks = append(a.unit.blocks, block)
}

func (a *analyzer) variableDeclarators(typ glslType, name token, storage string, layout map[string]int) {
	for {
		decl := declaration{name: name.text, typ: typ, storage: storage, location: -1}
		if loc, ok := layout["location"]; ok {
			decl.location = loc
		}
		decl.arraySize = a.arraySuffix()
		if _, dup := a.globals[name.text]; dup {
			a.diags.errorf(name, "`%s' redeclared", name.text)
		}
		if a.is("=") {
			a.next()
			a.expression(map[string]bool{}, ",", ";")
		}
		a.globals[name.text] = typ
		switch storage {
		case "in", "attribute":
			a.unit.inputs = append(a.unit.inputs, decl)
		case "varying":
			if a.unit.stage == gl.VERTEX_SHADER {
				a.unit.outputs = append(a.unit.outputs, decl)
			} else {
				a.unit.inputs = append(a.unit.inputs, decl)
			}
		case "out":
			a.unit.outputs = append(a.unit.outputs, decl)
		case "uniform":
			a.unit.uniforms = append(a.unit.uniforms, decl)
		}
		if !a.is(",") {
			break
		}
		a.next()
		name = a.next()
		if name.kind != tokIdent {
			a.diags.errorf(name, "syntax error, unexpected `%s', expecting identifier", name.text)
			return
		}
	}
	a.expect(";")
}

func (a *analyzer) functionDefinition(name string) {
	a.next() // (
	params := map[string]bool{}
	for !a.is(")") {
		t := a.next()
		switch {
		case t.kind == tokEOF:
			a.diags.errorf(t, "syntax error, unexpected end of file")
			return
		case t.text == "," || t.text == "in" || t.text == "out" || t.text == "inout" || t.text == "const":
		case t.text == "[" || t.text == "]" || t.kind == tokNumber:
		case a.isType(t.text):
			if n := a.peek(); n.kind == tokIdent && !a.isType(n.text) {
				params[a.next().text] = true
			}
		default:
			a.diags.errorf(t, "syntax error, unexpected `%s' in parameter list", t.text)
			return
		}
	}
	a.next() // )
	a.unit.functions[name] = true
	if a.is(";") {
		a.next()
		return
	}
	if !a.is("{") {
		a.diags.errorf(a.peek(), "syntax error, unexpected `%s', expecting `{'", a.peek().text)
		return
	}
	a.body(params)
}

// body checks a compound statement and every identifier inside it.
func (a *analyzer) body(params map[string]bool) {
	scopes := []map[string]bool{params, {}}
	a.next() // {
	declaring := false
	declDepth := 0
	parens := 0
	declared := func(name string) bool {
		for i := len(scopes) - 1; i >= 0; i-- {
			if scopes[i][name] {
				return true
			}
		}
		return false
	}
	for {
		t := a.next()
		switch {
		case t.kind == tokEOF:
			a.diags.errorf(t, "syntax error, unexpected end of file")
			return
		case t.text == "{":
			scopes = append(scopes, map[string]bool{})
		case t.text == "}":
			scopes = scopes[:len(scopes)-1]
			if len(scopes) == 1 {
				return
			}
		case t.text == "(":
			parens++
		case t.text == ")":
			parens--
		case t.text == ";":
			if parens <= declDepth {
				declaring = false
			}
		case t.text == ",":
			if declaring && parens == declDepth && a.peek().kind == tokIdent {
				scopes[len(scopes)-1][a.next().text] = true
			}
		case t.kind == tokIdent:
			a.identifier(t, declared, func(name string) {
				scopes[len(scopes)-1][name] = true
				declaring = true
				declDepth = parens
			})
		}
	}
}

// identifier checks one identifier of a function body. declare is called
// when t starts a local declaration.
func (a *analyzer) identifier(t token, declared func(string) bool, declare func(string)) {
	if a.pos >= 2 && a.toks[a.pos-2].kind == tokPunct && a.toks[a.pos-2].text == "." {
		// member or swizzle
		return
	}
	name := t.text
	switch {
	case keywords[name]:
	case a.isType(name):
		if n := a.peek(); n.kind == tokIdent && !a.isType(n.text) && !keywords[n.text] {
			declare(a.next().text)
		}
	case builtinFunctions[name], builtinVariables[name], a.unit.functions[name]:
	case declared(name):
	case a.globals[name].name != "":
	default:
		if a.is("(") {
			a.diags.errorf(t, "no function with name '%s'", name)
			return
		}
		a.diags.errorf(t, "`%s' undeclared", name)
	}
}

// expression checks a global initializer up to one of the stop tokens.
func (a *analyzer) expression(locals map[string]bool, stops ...string) {
	depth := 0
	for {
		t := a.peek()
		if t.kind == tokEOF {
			return
		}
		if depth == 0 {
			for _, s := range stops {
				if t.text == s {
					return
				}
			}
		}
		a.next()
		switch {
		case t.text == "(" || t.text == "[" || t.text == "{":
			depth++
		case t.text == ")" || t.text == "]" || t.text == "}":
			depth--
		case t.kind == tokIdent:
			a.identifier(t, func(n string) bool { return locals[n] }, func(string) {})
		}
	}
}
