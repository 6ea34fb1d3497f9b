package symtypes

import (
	"strings"
	"testing"
)

func TestLoadBufferPlainBasic(t *testing.T) {
	c := NewCorpus()
	src := "s#foo struct foo { int a ; }\nbar int bar ( s#foo )\n"
	if err := c.LoadBuffer("test.symtypes", strings.NewReader(src)); err != nil {
		t.Fatalf("LoadBuffer: %v", err)
	}
	if c.ExportCount() != 1 {
		t.Fatalf("ExportCount = %d, want 1", c.ExportCount())
	}
	if n := c.typeVariantCount("s#foo"); n != 1 {
		t.Errorf("typeVariantCount(s#foo) = %d, want 1", n)
	}
}

func TestLoadBufferDuplicateRecord(t *testing.T) {
	c := NewCorpus()
	src := "bar int x ;\nbar int y ;\n"
	err := c.LoadBuffer("dup.symtypes", strings.NewReader(src))
	if err == nil {
		t.Fatal("expected a duplicate-record error, got nil")
	}
	var pe *ParseError
	if !asParseError(err, &pe) {
		t.Fatalf("error %v is not a *ParseError", err)
	}
	if !strings.Contains(pe.Msg, "Duplicate record 'bar'") {
		t.Errorf("message %q does not mention the duplicate record", pe.Msg)
	}
}

func TestLoadBufferEmptyLine(t *testing.T) {
	c := NewCorpus()
	err := c.LoadBuffer("blank.symtypes", strings.NewReader("bar int x ;\n\n"))
	if err == nil {
		t.Fatal("expected an error for a blank record line")
	}
	if !strings.Contains(err.Error(), "Expected a record name") {
		t.Errorf("message %q does not mention the missing record name", err.Error())
	}
}

func TestLoadBufferDuplicateExportAcrossFiles(t *testing.T) {
	c := NewCorpus()
	if err := c.LoadBuffer("a.symtypes", strings.NewReader("bar int x ;\n")); err != nil {
		t.Fatalf("first load: %v", err)
	}
	err := c.LoadBuffer("b.symtypes", strings.NewReader("bar int y ;\n"))
	if err == nil {
		t.Fatal("expected a duplicate-export error")
	}
	if !strings.Contains(err.Error(), "Export 'bar' is duplicate") {
		t.Errorf("message %q does not mention the duplicate export", err.Error())
	}
	if !strings.Contains(err.Error(), "a.symtypes") {
		t.Errorf("message %q does not name the first occurrence", err.Error())
	}
}

func TestLoadBufferConsolidatedRoundTrip(t *testing.T) {
	c := NewCorpus()
	src := "s#foo struct foo { int a ; }\n" +
		"bar int bar ( s#foo )\n" +
		"F#test.symtypes bar\n"
	if err := c.LoadBuffer("test.symtypes", strings.NewReader(src)); err != nil {
		t.Fatalf("LoadBuffer: %v", err)
	}
	if c.ExportCount() != 1 {
		t.Fatalf("ExportCount = %d, want 1", c.ExportCount())
	}
	// s#foo must have been extrapolated as an implicit reference from bar.
	if n := c.typeVariantCount("s#foo"); n != 1 {
		t.Errorf("typeVariantCount(s#foo) = %d, want 1", n)
	}
	if idx, ok := c.files[0].records["s#foo"]; !ok || idx != 0 {
		t.Errorf("file record for s#foo = (%d, %v), want (0, true)", idx, ok)
	}
}

func TestLoadBufferConsolidatedUnknownSelector(t *testing.T) {
	c := NewCorpus()
	src := "bar int x ;\nF#test.symtypes baz\n"
	err := c.LoadBuffer("test.symtypes", strings.NewReader(src))
	if err == nil {
		t.Fatal("expected an unknown-type error")
	}
	if !strings.Contains(err.Error(), "Type 'baz' is not known") {
		t.Errorf("message %q does not match expected form", err.Error())
	}
}

func TestSplitTypeName(t *testing.T) {
	cases := []struct{ in, base, suffix string }{
		{"bar", "bar", ""},
		{"bar@0", "bar", "0"},
		{"s#foo@1", "s#foo", "1"},
		{"weird@name@2", "weird@name", "2"},
	}
	for _, c := range cases {
		base, suffix := splitTypeName(c.in)
		if base != c.base || suffix != c.suffix {
			t.Errorf("splitTypeName(%q) = (%q, %q), want (%q, %q)", c.in, base, suffix, c.base, c.suffix)
		}
	}
}

// asParseError is a small local errors.As helper so this file doesn't
// need to import "errors" just for one call site.
func asParseError(err error, target **ParseError) bool {
	pe, ok := err.(*ParseError)
	if !ok {
		return false
	}
	*target = pe
	return true
}
