package lowering

import "testing"

func TestMangleSingleArgMatchesSpecExample(t *testing.T) {
	got := Mangle([]string{"test"}, "s", false, []ArgSig{{Label: "_", Type: "Double"}})
	want := "test::s##_#Double"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMangleNoArgsOmitsSuffix(t *testing.T) {
	got := Mangle([]string{"test"}, "f", false, nil)
	if got != "test::f" {
		t.Fatalf("got %q", got)
	}
}

func TestMangleGlobalPackageOmitsPrefix(t *testing.T) {
	got := Mangle(nil, "f", false, nil)
	if got != "f" {
		t.Fatalf("got %q", got)
	}
}

func TestMangleMultipleArgsJoinedByDoubleHash(t *testing.T) {
	got := Mangle(nil, "f", false, []ArgSig{{Label: "a", Type: "Int64"}, {Label: "b", Type: "Bool"}})
	want := "f##a#Int64##b#Bool"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMangleNoMangleAnnotationBypassesEverything(t *testing.T) {
	got := Mangle([]string{"test"}, "raw_syscall", true, []ArgSig{{Label: "_", Type: "Int64"}})
	if got != "raw_syscall" {
		t.Fatalf("got %q, want unmangled name", got)
	}
}

func TestMangleMainNeverMangled(t *testing.T) {
	got := Mangle([]string{"test"}, "main", false, []ArgSig{{Label: "_", Type: "Int64"}})
	if got != "main" {
		t.Fatalf("got %q, want \"main\"", got)
	}
}

func TestMangleMethodPrependsSelfSignature(t *testing.T) {
	got := MangleMethod([]string{"test"}, "Point", "sum", ArgSig{Label: "_", Type: "test::Point"}, nil)
	want := "test::Point::sum##_#test::Point"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMangleInitWithNoArgsOmitsSuffix(t *testing.T) {
	got := MangleInit([]string{"test"}, "Point", nil)
	if got != "test::Point::init" {
		t.Fatalf("got %q", got)
	}
}
