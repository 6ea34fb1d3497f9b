package symtypes

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// changeEntry records one type whose definition diverges between two
// corpuses, plus every root export through which the divergence was
// reached.
type changeEntry struct {
	name    string
	tokensA tokens
	tokensB tokens
	exports []string
}

// CompareWith compares self against other and writes a human-readable
// report of added/removed exports and, for every export reached through
// a changed type, a unified diff of that type's pretty-printed token
// stream. numWorkers goroutines share the walk over common exports.
func (c *Corpus) CompareWith(other *Corpus, pathLabel string, w io.Writer, numWorkers int) error {
	bw := bufio.NewWriter(w)

	if err := writeExportDelta(bw, c, other, "removed"); err != nil {
		return wrapWriteErr(pathLabel, err)
	}
	if err := writeExportDelta(bw, other, c, "added"); err != nil {
		return wrapWriteErr(pathLabel, err)
	}

	type work struct {
		name    string
		fileIdx int
	}
	var works []work
	for name, fileIdx := range c.exports {
		works = append(works, work{name, fileIdx})
	}

	if numWorkers < 1 {
		numWorkers = 1
	}

	var nextIdx atomic.Int64
	var mu sync.Mutex
	changes := make(map[string]*changeEntry)

	var g errgroup.Group
	for i := 0; i < numWorkers; i++ {
		g.Go(func() error {
			for {
				idx := nextIdx.Add(1) - 1
				if idx >= int64(len(works)) {
					return nil
				}
				w := works[idx]

				otherFileIdx, ok := other.exports[w.name]
				if !ok {
					continue
				}

				file := c.files[w.fileIdx]
				otherFile := other.files[otherFileIdx]
				processed := make(map[string]bool)
				compareTypes(c, file, other, otherFile, w.name, w.name, &mu, changes, processed)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sorted := make([]*changeEntry, 0, len(changes))
	for _, ce := range changes {
		sort.Strings(ce.exports)
		sorted = append(sorted, ce)
	}
	sort.Slice(sorted, func(i, j int) bool { return lessChangeEntry(sorted[i], sorted[j]) })

	addSeparator := false
	for _, ce := range sorted {
		if addSeparator {
			fmt.Fprintln(bw)
		}
		addSeparator = true

		fmt.Fprintf(bw, "The following '%d' exports are different:\n", len(ce.exports))
		for _, e := range ce.exports {
			fmt.Fprintf(bw, " %s\n", e)
		}
		fmt.Fprintln(bw)

		fmt.Fprintf(bw, "because of a changed '%s':\n", ce.name)
		if err := writeUnified(prettyFormat(ce.tokensA), prettyFormat(ce.tokensB), bw); err != nil {
			return wrapWriteErr(pathLabel, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return wrapWriteErr(pathLabel, err)
	}
	return nil
}

func wrapWriteErr(pathLabel string, err error) error {
	if err == nil {
		return nil
	}
	return newIOError("Failed to write data to file '"+pathLabel+"'", err)
}

func writeExportDelta(w io.Writer, have, lack *Corpus, change string) error {
	var names []string
	for name := range have.exports {
		if _, ok := lack.exports[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "Export '%s' has been %s\n", name, change); err != nil {
			return err
		}
	}
	return nil
}

// compareTypes compares name's definition in (corpus, file) against
// (otherCorpus, otherFile). A divergence is recorded in changes, keyed by
// the changed type's identity, with export appended to its affected-root
// list. It then recurses into referenced types: in lock-step when the
// immediate token streams matched, or by matching same-named TypeRefs
// when they didn't (a renamed/removed reference is simply skipped,
// avoiding spurious cascades). processed is a per-export-walk visited
// set, not shared across exports.
func compareTypes(
	corpus *Corpus, file *symFile,
	otherCorpus *Corpus, otherFile *symFile,
	name, export string,
	mu *sync.Mutex, changes map[string]*changeEntry,
	processed map[string]bool,
) {
	if processed[name] {
		return
	}
	processed[name] = true

	toks := getTypeTokens(corpus, file, name)
	otherToks := getTypeTokens(otherCorpus, otherFile, name)

	equal := toks.equal(otherToks)
	if !equal {
		mu.Lock()
		key := changeKey(name, toks, otherToks)
		ce, ok := changes[key]
		if !ok {
			ce = &changeEntry{name: name, tokensA: toks, tokensB: otherToks}
			changes[key] = ce
		}
		ce.exports = append(ce.exports, export)
		mu.Unlock()
	}

	if equal {
		for _, t := range toks {
			if t.isTypeRef() {
				compareTypes(corpus, file, otherCorpus, otherFile, t.asString(), export, mu, changes, processed)
			}
		}
		return
	}

	for _, t := range toks {
		if !t.isTypeRef() {
			continue
		}
		ref := t.asString()
		for _, ot := range otherToks {
			if ot.isTypeRef() && ot.asString() == ref {
				compareTypes(corpus, file, otherCorpus, otherFile, ref, export, mu, changes, processed)
				break
			}
		}
	}
}

func getTypeTokens(c *Corpus, f *symFile, name string) tokens {
	variantIdx, ok := f.records[name]
	if !ok {
		panic("symtypes: type '" + name + "' is not known in file '" + f.path + "'")
	}
	return c.typeTokens(name, variantIdx)
}

// changeKey builds a stable map key identifying a (name, tokensA,
// tokensB) triple, since Go maps can't be keyed directly on slices.
func changeKey(name string, a, b tokens) string {
	var sb []byte
	sb = append(sb, name...)
	sb = append(sb, 0)
	for _, t := range a {
		sb = appendTokenKey(sb, t)
	}
	sb = append(sb, 0)
	for _, t := range b {
		sb = appendTokenKey(sb, t)
	}
	return string(sb)
}

func appendTokenKey(sb []byte, t token) []byte {
	if t.isTypeRef() {
		sb = append(sb, 'R')
	} else {
		sb = append(sb, 'A')
	}
	sb = append(sb, t.text...)
	sb = append(sb, 0)
	return sb
}

// lessChangeEntry orders change entries by (name, tokensA, tokensB) for
// deterministic report output regardless of worker scheduling.
func lessChangeEntry(a, b *changeEntry) bool {
	if a.name != b.name {
		return a.name < b.name
	}
	if c := compareTokens(a.tokensA, b.tokensA); c != 0 {
		return c < 0
	}
	return compareTokens(a.tokensB, b.tokensB) < 0
}

func compareTokens(a, b tokens) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].kind != b[i].kind {
			if a[i].kind < b[i].kind {
				return -1
			}
			return 1
		}
		if a[i].text != b[i].text {
			if a[i].text < b[i].text {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}
