package symtypes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
)

// noSuffix marks a file's recorded output-variant index as "this type has
// only one variant among all files that reach it", so the manifest entry
// can be emitted bare (and, if not an export, omitted entirely).
const noSuffix = -1

// WriteConsolidated writes the corpus in consolidated form to path, or to
// stdout when path is "-".
func (c *Corpus) WriteConsolidated(path string) error {
	if path == "-" {
		return c.WriteConsolidatedBuffer(path, os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return newIOError("Failed to create file '"+path+"'", err)
	}
	defer f.Close()
	return c.WriteConsolidatedBuffer(path, f)
}

// WriteConsolidatedBuffer writes the corpus in consolidated form to w.
// pathLabel is used only for error messages.
func (c *Corpus) WriteConsolidatedBuffer(pathLabel string, w io.Writer) error {
	bw := bufio.NewWriter(w)

	// output[name][internalVariantIdx] = outputVariantIdx, assigned in
	// first-seen order across the sorted file walk.
	output := make(map[string]map[int]int)
	fileTypes := make([]map[string]int, len(c.files))

	sortedIdx := make([]int, len(c.files))
	for i := range sortedIdx {
		sortedIdx[i] = i
	}
	sort.Slice(sortedIdx, func(i, j int) bool {
		return c.files[sortedIdx[i]].path < c.files[sortedIdx[j]].path
	})

	for _, i := range sortedIdx {
		sf := c.files[i]

		var exports []string
		for name := range sf.records {
			if isExport(name) {
				exports = append(exports, name)
			}
		}
		sort.Strings(exports)

		processed := make(map[string]int)
		for _, name := range exports {
			c.consolidateType(sf, name, output, processed)
		}
		fileTypes[i] = processed
	}

	// A type with exactly one recorded output variant needs no "@K" suffix.
	for _, ft := range fileTypes {
		for name := range ft {
			if len(output[name]) == 1 {
				ft[name] = noSuffix
			}
		}
	}

	names := make([]string, 0, len(output))
	for name := range output {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ei, ej := isExport(names[i]), isExport(names[j])
		if ei != ej {
			return !ei
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		remap := output[name]
		type pair struct{ outIdx, inIdx int }
		pairs := make([]pair, 0, len(remap))
		for inIdx, outIdx := range remap {
			pairs = append(pairs, pair{outIdx, inIdx})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].outIdx < pairs[j].outIdx })

		needsSuffix := len(pairs) > 1
		variants := c.types[name]
		for _, p := range pairs {
			toks := variants[p.inIdx]
			if needsSuffix {
				fmt.Fprintf(bw, "%s@%d", name, p.outIdx)
			} else {
				fmt.Fprint(bw, name)
			}
			for _, t := range toks {
				fmt.Fprintf(bw, " %s", t.asString())
			}
			fmt.Fprintln(bw)
		}
	}

	for _, i := range sortedIdx {
		sf := c.files[i]
		ft := fileTypes[i]

		type entry struct {
			export bool
			name   string
			outIdx int
		}
		entries := make([]entry, 0, len(ft))
		for name, outIdx := range ft {
			entries = append(entries, entry{isExport(name), name, outIdx})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].export != entries[j].export {
				return !entries[i].export
			}
			return entries[i].name < entries[j].name
		})

		fmt.Fprintf(bw, "F#%s", sf.path)
		for _, e := range entries {
			if e.outIdx != noSuffix {
				fmt.Fprintf(bw, " %s@%d", e.name, e.outIdx)
			} else if isExport(e.name) {
				fmt.Fprintf(bw, " %s", e.name)
			}
		}
		fmt.Fprintln(bw)
	}

	if err := bw.Flush(); err != nil {
		return newIOError("Failed to write data to file '"+pathLabel+"'", err)
	}
	return nil
}

// consolidateType records name's reachable-type set for sf, assigning it
// an output variant index (stable across files via output), then
// recurses into every type it references. Already-processed names (for
// this file) are skipped.
func (c *Corpus) consolidateType(sf *symFile, name string, output map[string]map[int]int, processed map[string]int) {
	if _, done := processed[name]; done {
		return
	}

	variantIdx, ok := sf.records[name]
	if !ok {
		panic("symtypes: type '" + name + "' is not known in file '" + sf.path + "'")
	}

	remap, ok := output[name]
	if !ok {
		remap = map[int]int{variantIdx: 0}
		output[name] = remap
		processed[name] = 0
	} else {
		outIdx, ok := remap[variantIdx]
		if !ok {
			outIdx = len(remap)
			remap[variantIdx] = outIdx
		}
		processed[name] = outIdx
	}

	variants, ok := c.types[name]
	if !ok {
		panic("symtypes: type '" + name + "' has a missing declaration")
	}
	for _, t := range variants[variantIdx] {
		if t.isTypeRef() {
			c.consolidateType(sf, t.asString(), output, processed)
		}
	}
}
