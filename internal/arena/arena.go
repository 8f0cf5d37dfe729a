// Package arena implements the resolver arena (spec.md §4.C, Component C):
// nested namespaces, per-struct member tables, and the environment stack
// for locals consulted by the type resolver (internal/resolver).
//
// The namespace tree is a flat slice of nodes addressed by index (spec.md
// §9 design note: "arena + index... to avoid recursive owning references
// while keeping get_namespace(path) O(path-length)"), rather than a tree of
// pointers.
package arena

import (
	"fmt"

	"github.com/ChanTsune/wizc/internal/types"
)

// StructInfo is the member table for one struct or protocol (spec.md §3/§4.C).
type StructInfo struct {
	StoredProperties   map[string]types.Type
	ComputedProperties map[string]types.Type
	MemberFunctions    map[string]types.Type
	StaticFunctions    map[string]types.Type
	Conforms           []types.Package
	TypeParams         []string
}

// NewStructInfo returns an empty StructInfo ready for Pass 2 (preload) to
// populate.
func NewStructInfo() *StructInfo {
	return &StructInfo{
		StoredProperties:   map[string]types.Type{},
		ComputedProperties: map[string]types.Type{},
		MemberFunctions:    map[string]types.Type{},
		StaticFunctions:    map[string]types.Type{},
	}
}

// nsNode is one node of the flat namespace arena.
type nsNode struct {
	path     []string
	children map[string]int // segment -> index into Context.nodes
	types    map[string]*StructInfo
	values   map[string][]types.Type // overload set: every value registered under this name
}

func newNode(path []string) *nsNode {
	return &nsNode{
		path:     append([]string(nil), path...),
		children: map[string]int{},
		types:    map[string]*StructInfo{},
		values:   map[string][]types.Type{},
	}
}

// NamespaceMissingError reports that a path segment does not exist.
type NamespaceMissingError struct {
	Path []string
}

func (e *NamespaceMissingError) Error() string {
	return fmt.Sprintf("namespace missing: %v", e.Path)
}

// EnvValue is one binding in a name environment: either a reference to a
// child namespace, or a bound value type.
type EnvValue struct {
	IsNamespace bool
	Namespace   int // index into Context.nodes, when IsNamespace
	Values      []types.Type
}

// Context is the resolver arena: the namespace tree plus the transient
// state of one file traversal (current path, used namespaces, locals,
// current type).
type Context struct {
	nodes []*nsNode // nodes[0] is the global namespace

	currentPath  []string
	usedPaths    [][]string // ordered, stack-like per spec.md §4.C use/unuse
	localStack   []map[string]EnvValue
	currentType  types.Type // set only while inside a struct/extension body

	opTable map[binOpKey]types.Type
}

// New creates an arena with only the global namespace.
func New() *Context {
	return &Context{nodes: []*nsNode{newNode(nil)}, opTable: map[binOpKey]types.Type{}}
}

// binOpKey identifies one entry of the binary-operator table (spec.md
// §4.C item (e)): an operator symbol plus the exact operand types it
// applies to. Operand types are keyed by their String() form rather than
// compared with Equals, since every built-in entry is seeded with
// primitive named types whose String() is already a unique key.
type binOpKey struct {
	Op  string
	LHS string
	RHS string
}

// RegisterBinOp seeds one (op, lhs, rhs) -> result entry of the
// binary-operator table. internal/builtins calls this once per primitive
// arithmetic type to seed identity-typed arithmetic (SPEC_FULL §2).
func (c *Context) RegisterBinOp(op string, lhs, rhs, result types.Type) {
	c.opTable[binOpKey{Op: op, LHS: lhs.String(), RHS: rhs.String()}] = result
}

// LookupBinOp returns the result type registered for (op, lhs, rhs), if any.
func (c *Context) LookupBinOp(op string, lhs, rhs types.Type) (types.Type, bool) {
	t, ok := c.opTable[binOpKey{Op: op, LHS: lhs.String(), RHS: rhs.String()}]
	return t, ok
}

func (c *Context) nodeAt(path []string) (int, bool) {
	idx := 0
	for _, seg := range path {
		child, ok := c.nodes[idx].children[seg]
		if !ok {
			return 0, false
		}
		idx = child
	}
	return idx, true
}

// ----------------------------------------------------------------------------
// Guard: scoped acquisition (SPEC_FULL §4.C / spec.md §5)
// ----------------------------------------------------------------------------

// Guard pairs a push/set with its pop/clear. Callers `defer guard.Close()`
// immediately after acquiring, so every exit path -- including error
// returns -- releases the resource, per spec.md §5's "scoped acquisition"
// resource rule.
type Guard struct{ close func() }

// Close releases the resource this guard represents. Safe to call multiple
// times; only the first call has an effect.
func (g *Guard) Close() {
	if g == nil || g.close == nil {
		return
	}
	f := g.close
	g.close = nil
	f()
}

// ----------------------------------------------------------------------------
// Namespace operations
// ----------------------------------------------------------------------------

// PushNamespace pushes one segment onto the current namespace path,
// creating the child namespace if it does not already exist.
func (c *Context) PushNamespace(seg string) *Guard {
	idx, ok := c.nodeAt(c.currentPath)
	if !ok {
		// Unreachable if callers only ever push through this API, kept
		// defensive since currentPath is otherwise-internal state.
		idx = 0
	}
	child, ok := c.nodes[idx].children[seg]
	if !ok {
		newPath := append(append([]string(nil), c.currentPath...), seg)
		c.nodes = append(c.nodes, newNode(newPath))
		child = len(c.nodes) - 1
		c.nodes[idx].children[seg] = child
	}
	c.currentPath = append(c.currentPath, seg)
	return &Guard{close: func() {
		c.currentPath = c.currentPath[:len(c.currentPath)-1]
	}}
}

// PushPath pushes every segment of path in order and returns one Guard
// that pops them all, in reverse order, on Close. Used by internal/resolver
// to enter a file's package namespace with a single deferred cleanup.
func (c *Context) PushPath(path []string) *Guard {
	guards := make([]*Guard, len(path))
	for i, seg := range path {
		guards[i] = c.PushNamespace(seg)
	}
	return &Guard{close: func() {
		for i := len(guards) - 1; i >= 0; i-- {
			guards[i].Close()
		}
	}}
}

// GetNamespace returns the namespace node index for path, or
// NamespaceMissingError if any segment is absent.
func (c *Context) GetNamespace(path []string) (int, error) {
	idx, ok := c.nodeAt(path)
	if !ok {
		return 0, &NamespaceMissingError{Path: path}
	}
	return idx, nil
}

// CurrentNamespace returns the index of the namespace currently being
// traversed.
func (c *Context) CurrentNamespace() int {
	idx, _ := c.nodeAt(c.currentPath)
	return idx
}

// CurrentPackage returns the resolved package for the namespace currently
// being traversed.
func (c *Context) CurrentPackage() types.PackageRef {
	return types.ResolvedPackage{Path: append([]string(nil), c.currentPath...)}
}

// RegisterType registers (overwriting any existing entry) a struct/protocol
// member table under name in namespace idx.
func (c *Context) RegisterType(idx int, name string, info *StructInfo) {
	c.nodes[idx].types[name] = info
}

// LookupType returns the StructInfo registered under name in namespace idx.
func (c *Context) LookupType(idx int, name string) (*StructInfo, bool) {
	info, ok := c.nodes[idx].types[name]
	return info, ok
}

// RegisterValue registers a value binding. Overloads accumulate: calling
// this more than once for the same name appends to the overload set rather
// than overwriting it, so Pass 2 can register multiple overloads of the
// same free-function name (spec.md §4.D "function overloading is
// permitted").
func (c *Context) RegisterValue(idx int, name string, ty types.Type) {
	c.nodes[idx].values[name] = append(c.nodes[idx].values[name], ty)
}

// ReplaceValues overwrites the entire overload set for name (used when
// re-resolving is known to be idempotent and must not accumulate
// duplicates, spec.md §8 "resolver is idempotent on resolved input").
func (c *Context) ReplaceValues(idx int, name string, tys []types.Type) {
	c.nodes[idx].values[name] = tys
}

// LookupValues returns every value registered under name in namespace idx.
func (c *Context) LookupValues(idx int, name string) ([]types.Type, bool) {
	vs, ok := c.nodes[idx].values[name]
	return vs, ok
}

// LookupTypeInScope resolves a bare (unqualified) type name the way
// spec.md §4.D's bare-name type lookup needs: the current namespace first,
// then every used namespace (most-recently-used first), then the global
// namespace. It returns the StructInfo found and the resolved package it
// lives in, mirroring internal/resolver's explicit-path lookup so both
// paths through resolveType produce a ResolvedPackage.
func (c *Context) LookupTypeInScope(name string) (*StructInfo, types.PackageRef, bool) {
	if info, ok := c.LookupType(c.CurrentNamespace(), name); ok {
		return info, c.CurrentPackage(), true
	}
	for i := len(c.usedPaths) - 1; i >= 0; i-- {
		idx, ok := c.nodeAt(c.usedPaths[i])
		if !ok {
			continue
		}
		if info, ok2 := c.LookupType(idx, name); ok2 {
			return info, types.ResolvedPackage{Path: append([]string(nil), c.usedPaths[i]...)}, true
		}
	}
	if info, ok := c.LookupType(0, name); ok {
		return info, types.GlobalPackage(), true
	}
	return nil, nil, false
}

// ChildNamespace returns the child namespace index of idx named seg, if any.
func (c *Context) ChildNamespace(idx int, seg string) (int, bool) {
	child, ok := c.nodes[idx].children[seg]
	return child, ok
}

// NamespacePath returns the full path of namespace idx from the root.
func (c *Context) NamespacePath(idx int) []string {
	return append([]string(nil), c.nodes[idx].path...)
}

func namespaceEntry(c *Context, idx int, name string) (EnvValue, bool) {
	if vs, ok := c.nodes[idx].values[name]; ok {
		return EnvValue{Values: append([]types.Type(nil), vs...)}, true
	}
	if child, ok := c.nodes[idx].children[name]; ok {
		return EnvValue{IsNamespace: true, Namespace: child}, true
	}
	return EnvValue{}, false
}

// ResolveHead looks up name the way a NameExpr's leading segment is
// resolved (spec.md §4.D rule 1): local frames top-down, then the current
// namespace, then every used namespace (most-recently-used first), then
// the global namespace. The returned PackageRef is the namespace the
// binding was found in, used as the Resolved package for function-typed
// values (spec.md §4.D rule 4).
func (c *Context) ResolveHead(name string) (EnvValue, types.PackageRef, bool) {
	for i := len(c.localStack) - 1; i >= 0; i-- {
		if v, ok := c.localStack[i][name]; ok {
			return v, c.CurrentPackage(), true
		}
	}
	if v, ok := namespaceEntry(c, c.CurrentNamespace(), name); ok {
		return v, c.CurrentPackage(), true
	}
	for i := len(c.usedPaths) - 1; i >= 0; i-- {
		idx, ok := c.nodeAt(c.usedPaths[i])
		if !ok {
			continue
		}
		if v, ok2 := namespaceEntry(c, idx, name); ok2 {
			return v, types.ResolvedPackage{Path: append([]string(nil), c.usedPaths[i]...)}, true
		}
	}
	if v, ok := namespaceEntry(c, 0, name); ok {
		return v, types.GlobalPackage(), true
	}
	return EnvValue{}, nil, false
}

// ----------------------------------------------------------------------------
// Local environment stack
// ----------------------------------------------------------------------------

// PushLocalStack starts a new lexical scope frame.
func (c *Context) PushLocalStack() *Guard {
	c.localStack = append(c.localStack, map[string]EnvValue{})
	return &Guard{close: func() {
		c.localStack = c.localStack[:len(c.localStack)-1]
	}}
}

// InLocalScope reports whether any local frame is currently pushed.
func (c *Context) InLocalScope() bool { return len(c.localStack) > 0 }

// RegisterToEnv implements spec.md §4.C's invariant: when the local stack is
// empty, this writes to the current namespace's values; otherwise it writes
// to the top local frame.
func (c *Context) RegisterToEnv(name string, ty types.Type) {
	if len(c.localStack) == 0 {
		c.RegisterValue(c.CurrentNamespace(), name, ty)
		return
	}
	top := c.localStack[len(c.localStack)-1]
	top[name] = EnvValue{Values: []types.Type{ty}}
}

// ----------------------------------------------------------------------------
// Used namespaces
// ----------------------------------------------------------------------------

// UseNamespace records path as in scope (ordered, stack-like per file).
func (c *Context) UseNamespace(path []string) {
	c.usedPaths = append(c.usedPaths, append([]string(nil), path...))
}

// UnuseNamespace removes the most recent matching use (LIFO), implementing
// the "un-applied at its end" half of spec.md §5's use-declaration rule.
func (c *Context) UnuseNamespace(path []string) {
	for i := len(c.usedPaths) - 1; i >= 0; i-- {
		if pathEq(c.usedPaths[i], path) {
			c.usedPaths = append(c.usedPaths[:i], c.usedPaths[i+1:]...)
			return
		}
	}
}

func pathEq(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ----------------------------------------------------------------------------
// Current type (Self resolution context)
// ----------------------------------------------------------------------------

// SetCurrentType sets the enclosing struct/extension type for Self
// resolution while traversing its body.
func (c *Context) SetCurrentType(t types.Type) *Guard {
	prev := c.currentType
	c.currentType = t
	return &Guard{close: func() {
		c.currentType = prev
	}}
}

// CurrentType returns the enclosing type for Self resolution, or nil when
// not currently inside a struct/extension body.
func (c *Context) CurrentType() types.Type { return c.currentType }

// ----------------------------------------------------------------------------
// Name environment
// ----------------------------------------------------------------------------

// NameEnvironment is the merged view spec.md §4.C describes:
// global values, current namespace, all used namespaces (wildcards
// unrolled), then every local frame bottom-to-top -- later entries shadow
// earlier ones.
type NameEnvironment struct {
	// entries is ordered from lowest to highest priority; Lookup scans in
	// reverse so later entries shadow earlier ones.
	entries []map[string]EnvValue
}

// Lookup returns the binding for name, scanning from highest to lowest
// priority (locals shadow used-namespaces shadow current-namespace shadow
// global).
func (e *NameEnvironment) Lookup(name string) (EnvValue, bool) {
	for i := len(e.entries) - 1; i >= 0; i-- {
		if v, ok := e.entries[i][name]; ok {
			return v, true
		}
	}
	return EnvValue{}, false
}

func namespaceScopeEntries(c *Context, idx int) map[string]EnvValue {
	m := map[string]EnvValue{}
	for name, vs := range c.nodes[idx].values {
		m[name] = EnvValue{Values: append([]types.Type(nil), vs...)}
	}
	for name, child := range c.nodes[idx].children {
		m[name] = EnvValue{IsNamespace: true, Namespace: child}
	}
	return m
}

// GetCurrentNameEnvironment builds the merged name environment for the
// resolver's current position: global namespace, current namespace, every
// used namespace in order (wildcard uses unroll their own entries into the
// merge rather than being addressed by name), then every local frame.
func (c *Context) GetCurrentNameEnvironment() *NameEnvironment {
	env := &NameEnvironment{}
	env.entries = append(env.entries, namespaceScopeEntries(c, 0))
	if cur := c.CurrentNamespace(); cur != 0 {
		env.entries = append(env.entries, namespaceScopeEntries(c, cur))
	}
	for _, used := range c.usedPaths {
		idx, ok := c.nodeAt(used)
		if !ok {
			continue
		}
		env.entries = append(env.entries, namespaceScopeEntries(c, idx))
	}
	for _, frame := range c.localStack {
		env.entries = append(env.entries, frame)
	}
	return env
}
