package resolver

import (
	"github.com/ChanTsune/wizc/internal/arena"
	"github.com/ChanTsune/wizc/internal/diagnostic"
	"github.com/ChanTsune/wizc/internal/hir"
	"github.com/ChanTsune/wizc/internal/types"
)

// Detect is Pass 1 (spec.md §4.D "detect_type"): for every struct/protocol
// top-level declaration, register an empty StructInfo under the file's
// namespace, and a Type(Named{...}) value under the same name, so later
// declarations in the same or other files can mention the name before
// Preload fills in its members.
//
// Detect is idempotent: re-running it over an already-detected file leaves
// existing StructInfo entries untouched rather than clobbering Preload's
// work, so a pipeline that re-resolves a source set (spec.md §8's
// round-trip property) does not need to re-run Detect selectively.
func Detect(c *arena.Context, diags *diagnostic.List, f *hir.File) {
	g := c.PushPath(filePackagePath(f.Name))
	defer g.Close()

	undo := applyUses(c, f)
	defer undo()

	for _, d := range f.Body {
		switch v := d.(type) {
		case *hir.StructDecl:
			detectStruct(c, v)
		case *hir.ProtocolDecl:
			detectProtocol(c, v)
		}
	}
}

func detectStruct(c *arena.Context, v *hir.StructDecl) {
	ns := c.CurrentNamespace()
	if _, ok := c.LookupType(ns, v.Name); ok {
		v.SetDeclPackage(c.CurrentPackage())
		return
	}
	c.RegisterType(ns, v.Name, arena.NewStructInfo())
	c.RegisterValue(ns, v.Name, types.TypeOfType{Of: types.NamedType{Pkg: c.CurrentPackage(), Name: v.Name}})
	v.SetDeclPackage(c.CurrentPackage())
}

func detectProtocol(c *arena.Context, v *hir.ProtocolDecl) {
	ns := c.CurrentNamespace()
	if _, ok := c.LookupType(ns, v.Name); ok {
		v.SetDeclPackage(c.CurrentPackage())
		return
	}
	c.RegisterType(ns, v.Name, arena.NewStructInfo())
	c.RegisterValue(ns, v.Name, types.TypeOfType{Of: types.NamedType{Pkg: c.CurrentPackage(), Name: v.Name}})
	v.SetDeclPackage(c.CurrentPackage())
}
