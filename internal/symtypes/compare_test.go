package symtypes

import (
	"strings"
	"testing"
)

func buildCorpus(t *testing.T, files map[string]string) *Corpus {
	t.Helper()
	c := NewCorpus()
	for path, src := range files {
		if err := c.LoadBuffer(path, strings.NewReader(src)); err != nil {
			t.Fatalf("LoadBuffer(%s): %v", path, err)
		}
	}
	return c
}

// P5: comparing a corpus against itself produces no output.
func TestCompareWithSelfProducesNoOutput(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"test.symtypes": "s#foo struct foo { int a ; }\nbar int bar ( s#foo )\n",
	})

	var sb strings.Builder
	if err := c.CompareWith(c, "<out>", &sb, 1); err != nil {
		t.Fatalf("CompareWith: %v", err)
	}
	if sb.Len() != 0 {
		t.Errorf("CompareWith(c, c) produced output:\n%s", sb.String())
	}
}

func TestCompareWithChangedType(t *testing.T) {
	a := buildCorpus(t, map[string]string{
		"test.symtypes": "s#foo struct foo { int a ; }\nbar int bar ( s#foo )\n",
	})
	b := buildCorpus(t, map[string]string{
		"test.symtypes": "s#foo struct foo { int a ; int b ; }\nbar int bar ( s#foo )\n",
	})

	var sb strings.Builder
	if err := a.CompareWith(b, "<out>", &sb, 1); err != nil {
		t.Fatalf("CompareWith: %v", err)
	}

	out := sb.String()
	if !strings.Contains(out, "The following '1' exports are different:") {
		t.Errorf("output missing summary line:\n%s", out)
	}
	if !strings.Contains(out, " bar\n") {
		t.Errorf("output missing affected export 'bar':\n%s", out)
	}
	if !strings.Contains(out, "because of a changed 's#foo':") {
		t.Errorf("output missing changed-type attribution:\n%s", out)
	}
	if !strings.Contains(out, "+\tint b;") {
		t.Errorf("output missing the added line in the unified diff:\n%s", out)
	}
}

func TestCompareWithAddedAndRemovedExport(t *testing.T) {
	a := buildCorpus(t, map[string]string{
		"test.symtypes": "bar int bar ;\n",
	})
	b := buildCorpus(t, map[string]string{
		"test.symtypes": "baz int baz ;\n",
	})

	var sb strings.Builder
	if err := a.CompareWith(b, "<out>", &sb, 1); err != nil {
		t.Fatalf("CompareWith: %v", err)
	}

	out := sb.String()
	if !strings.Contains(out, "Export 'bar' has been removed\n") {
		t.Errorf("output missing removed-export line:\n%s", out)
	}
	if !strings.Contains(out, "Export 'baz' has been added\n") {
		t.Errorf("output missing added-export line:\n%s", out)
	}
}

func TestCompareWithWorkerCountIsDeterministic(t *testing.T) {
	a := buildCorpus(t, map[string]string{
		"test.symtypes": "s#foo struct foo { int a ; }\n" +
			"s#bar struct bar { int b ; }\n" +
			"one int one ( s#foo )\n" +
			"two int two ( s#bar )\n",
	})
	b := buildCorpus(t, map[string]string{
		"test.symtypes": "s#foo struct foo { int a ; int c ; }\n" +
			"s#bar struct bar { int b ; int d ; }\n" +
			"one int one ( s#foo )\n" +
			"two int two ( s#bar )\n",
	})

	var single, multi strings.Builder
	if err := a.CompareWith(b, "<out>", &single, 1); err != nil {
		t.Fatalf("CompareWith(1 worker): %v", err)
	}
	if err := a.CompareWith(b, "<out>", &multi, 4); err != nil {
		t.Fatalf("CompareWith(4 workers): %v", err)
	}
	if single.String() != multi.String() {
		t.Errorf("comparison report differs by worker count:\n1 worker:\n%s\n4 workers:\n%s", single.String(), multi.String())
	}
}
