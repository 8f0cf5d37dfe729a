package arena

import (
	"testing"

	"github.com/ChanTsune/wizc/internal/types"
)

func TestPushNamespaceGuardRestoresPath(t *testing.T) {
	c := New()
	g := c.PushNamespace("test")
	if c.CurrentPackage().Segments().String() != "test" {
		t.Fatalf("expected current package 'test', got %s", c.CurrentPackage().Segments())
	}
	g.Close()
	if !c.CurrentPackage().Segments().IsGlobal() {
		t.Fatalf("expected global package after Close, got %s", c.CurrentPackage().Segments())
	}
}

func TestGetNamespaceMissing(t *testing.T) {
	c := New()
	if _, err := c.GetNamespace([]string{"nope"}); err == nil {
		t.Fatal("expected NamespaceMissingError")
	}
}

func TestRegisterToEnvNamespaceVsLocal(t *testing.T) {
	c := New()
	c.RegisterToEnv("x", types.Named(types.Int64))
	if _, ok := c.LookupValues(c.CurrentNamespace(), "x"); !ok {
		t.Fatal("expected x registered in namespace when no locals pushed")
	}

	g := c.PushLocalStack()
	defer g.Close()
	c.RegisterToEnv("y", types.Named(types.Bool))

	env := c.GetCurrentNameEnvironment()
	v, ok := env.Lookup("y")
	if !ok || len(v.Values) != 1 || !v.Values[0].Equals(types.Named(types.Bool)) {
		t.Fatalf("expected local y bound to Bool, got %+v, %v", v, ok)
	}
	if _, ok := c.LookupValues(c.CurrentNamespace(), "y"); ok {
		t.Fatal("y should not leak into the namespace while a local frame is active")
	}
}

func TestLocalShadowsNamespace(t *testing.T) {
	c := New()
	c.RegisterValue(c.CurrentNamespace(), "x", types.Named(types.Int64))

	g := c.PushLocalStack()
	defer g.Close()
	c.RegisterToEnv("x", types.Named(types.Bool))

	env := c.GetCurrentNameEnvironment()
	v, ok := env.Lookup("x")
	if !ok || !v.Values[0].Equals(types.Named(types.Bool)) {
		t.Fatalf("expected local x to shadow namespace x, got %+v", v)
	}
}

func TestUseNamespaceBringsValuesIntoEnvironment(t *testing.T) {
	c := New()
	pg := c.PushNamespace("pkg")
	c.RegisterValue(c.CurrentNamespace(), "helper", types.Named(types.Int64))
	pg.Close()

	c.UseNamespace([]string{"pkg"})
	env := c.GetCurrentNameEnvironment()
	if _, ok := env.Lookup("helper"); !ok {
		t.Fatal("expected 'helper' visible after use_name_space(pkg)")
	}

	c.UnuseNamespace([]string{"pkg"})
	env = c.GetCurrentNameEnvironment()
	if _, ok := env.Lookup("helper"); ok {
		t.Fatal("expected 'helper' no longer visible after unuse_name_space(pkg)")
	}
}

func TestRegisterValueAccumulatesOverloads(t *testing.T) {
	c := New()
	idx := c.CurrentNamespace()
	c.RegisterValue(idx, "s", types.FunctionType{Args: []types.ArgType{{Label: "_", Type: types.Named(types.Double)}}, Ret: types.Named(types.Unit)})
	c.RegisterValue(idx, "s", types.FunctionType{Args: []types.ArgType{{Label: "_", Type: types.Named(types.Int64)}}, Ret: types.Named(types.Unit)})

	vs, ok := c.LookupValues(idx, "s")
	if !ok || len(vs) != 2 {
		t.Fatalf("expected 2 overloads of 's', got %d", len(vs))
	}
}

func TestCurrentTypeGuard(t *testing.T) {
	c := New()
	if c.CurrentType() != nil {
		t.Fatal("expected nil current type initially")
	}
	self := types.Named("A")
	g := c.SetCurrentType(self)
	if c.CurrentType() == nil || !c.CurrentType().Equals(self) {
		t.Fatalf("expected current type %s, got %v", self, c.CurrentType())
	}
	g.Close()
	if c.CurrentType() != nil {
		t.Fatal("expected nil current type after Close")
	}
}

func TestRegisterAndLookupType(t *testing.T) {
	c := New()
	info := NewStructInfo()
	info.StoredProperties["a"] = types.Named(types.Int64)
	c.RegisterType(c.CurrentNamespace(), "A", info)

	got, ok := c.LookupType(c.CurrentNamespace(), "A")
	if !ok || got != info {
		t.Fatal("expected to find the registered StructInfo")
	}
}
