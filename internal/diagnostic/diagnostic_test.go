package diagnostic

import "testing"

func TestListRecordsAndContinues(t *testing.T) {
	var l List
	l.Add("A::init", New(TypeMismatch, "argument count mismatch"))
	l.Add("B::f", New(UnknownName, "no such name %q", "foo"))

	if !l.HasErrors() {
		t.Fatal("expected HasErrors() true")
	}
	errs := l.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}
	if errs[0].Decl != "A::init" || errs[0].Category != TypeMismatch {
		t.Errorf("unexpected first error: %+v", errs[0])
	}
	if errs[1].Message != `no such name "foo"` {
		t.Errorf("unexpected message: %q", errs[1].Message)
	}
}

func TestEmptyListHasNoErrors(t *testing.T) {
	var l List
	if l.HasErrors() {
		t.Fatal("expected HasErrors() false on empty list")
	}
}

func TestErrorStringIncludesCategoryAndDecl(t *testing.T) {
	e := New(SelfOutsideType, "Self used outside a struct body").WithDecl("f")
	want := "f: self-outside-type: Self used outside a struct body"
	if e.Error() != want {
		t.Errorf("got %q, want %q", e.Error(), want)
	}
}
