package symtypes

import (
	"bufio"
	"io"
	"strings"
)

// LoadBuffer loads one file's content from reader into the corpus.
// pathLabel is used both in error messages and as the file's recorded
// path (the same role "path" plays for load_buffer in the original
// implementation).
func (c *Corpus) LoadBuffer(pathLabel string, reader io.Reader) error {
	return c.loadOne(pathLabel, reader)
}

// loadOne parses a single .symtypes file (plain or consolidated) and
// merges it into the corpus.
func (c *Corpus) loadOne(path string, reader io.Reader) error {
	lines, err := readLines(path, reader)
	if err != nil {
		return err
	}

	consolidated := false
	for _, line := range lines {
		if strings.HasPrefix(line, "F#") {
			consolidated = true
			break
		}
	}

	if consolidated {
		return c.loadConsolidated(path, lines)
	}
	return c.loadPlain(path, lines)
}

func readLines(path string, reader io.Reader) ([]string, error) {
	sc := bufio.NewScanner(reader)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, newIOError("Failed to read data from file '"+path+"'", err)
	}
	return lines, nil
}

// wordsToTokens converts a line's whitespace-split words into tokens.
func wordsToTokens(words []string) tokens {
	ts := make(tokens, len(words))
	for i, w := range words {
		ts[i] = wordToToken(w)
	}
	return ts
}

// splitTypeName splits a (possibly suffixed) type name on its *last* '@'
// into (base, suffix). Plain files never use '@'; a base name that
// legitimately contains '@' would therefore disambiguate differently
// than the writer's own "name@K" convention. Kept as-is intentionally,
// matching the consolidated writer's own suffixing rule.
func splitTypeName(name string) (base, suffix string) {
	if i := strings.LastIndexByte(name, '@'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

// loadPlain parses a plain .symtypes file: one record per non-empty
// line, no "@" suffixes, no "F#" manifests.
func (c *Corpus) loadPlain(path string, lines []string) error {
	fileIdx := c.pushFile(path)
	records := fileRecords{}
	seen := make(map[string]bool)

	for lineIdx, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			return newParseError("%s:%d: Expected a record name", path, lineIdx+1)
		}
		name := words[0]

		if seen[name] {
			return newParseError("%s:%d: Duplicate record '%s'", path, lineIdx+1, name)
		}
		seen[name] = true

		toks := wordsToTokens(words[1:])
		variantIdx := c.mergeType(name, toks)
		records[name] = variantIdx

		if err := c.tryInsertExport(name, fileIdx, path, lineIdx+1); err != nil {
			return err
		}
	}

	c.setFileRecords(fileIdx, records)
	return nil
}

// loadConsolidated parses a consolidated .symtypes file: type records
// (possibly "name@suffix") interleaved with deferred "F#<path>"
// manifests, which are resolved into per-file records once every type
// record has been merged.
func (c *Corpus) loadConsolidated(path string, lines []string) error {
	// remap[base][suffix] = variant index assigned in the global corpus.
	remap := make(map[string]map[string]int)
	seen := make(map[string]bool)
	var manifestLines []int

	for lineIdx, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			return newParseError("%s:%d: Expected a record name", path, lineIdx+1)
		}
		name := words[0]

		if seen[name] {
			return newParseError("%s:%d: Duplicate record '%s'", path, lineIdx+1, name)
		}
		seen[name] = true

		if strings.HasPrefix(name, "F#") {
			manifestLines = append(manifestLines, lineIdx)
			continue
		}

		base, suffix := splitTypeName(name)
		toks := wordsToTokens(words[1:])
		variantIdx := c.mergeType(base, toks)

		if remap[base] == nil {
			remap[base] = make(map[string]int)
		}
		remap[base][suffix] = variantIdx
	}

	for _, lineIdx := range manifestLines {
		if err := c.loadManifestLine(path, lines[lineIdx], lineIdx, remap); err != nil {
			return err
		}
	}

	return nil
}

// loadManifestLine processes one "F#<filename> <selector>..." record: it
// creates the file's entry, resolves each explicit selector through
// remap, registers exports, and then extrapolates implicit references.
func (c *Corpus) loadManifestLine(corpusPath, line string, lineIdx int, remap map[string]map[string]int) error {
	words := strings.Fields(line)
	fileName := strings.TrimPrefix(words[0], "F#")

	fileIdx := c.pushFile(fileName)
	records := fileRecords{}

	for _, selector := range words[1:] {
		base, suffix := splitTypeName(selector)

		suffixes, ok := remap[base]
		if !ok {
			return newParseError("%s:%d: Type '%s' is not known", corpusPath, lineIdx+1, selector)
		}
		variantIdx, ok := suffixes[suffix]
		if !ok {
			return newParseError("%s:%d: Type '%s' is not known", corpusPath, lineIdx+1, selector)
		}

		records[base] = variantIdx
		if err := c.tryInsertExport(base, fileIdx, corpusPath, lineIdx+1); err != nil {
			return err
		}
	}

	// Walk the explicitly-listed roots to extrapolate implicit references:
	// any TypeRef reachable from a selected variant that isn't already in
	// records is added with variant index 0.
	explicit := make([]string, 0, len(records))
	for name := range records {
		explicit = append(explicit, name)
	}
	for _, name := range explicit {
		if err := c.extrapolate(corpusPath, lineIdx+1, fileName, name, records[name], true, records); err != nil {
			return err
		}
	}

	c.setFileRecords(fileIdx, records)
	return nil
}

// extrapolate recursively adds to records every implicitly-referenced
// type reachable from name's selected variant. isExplicit marks a root
// the caller already inserted; implicit references must have exactly one
// variant in the corpus, since the writer never omits multi-variant
// types from a manifest — encountering one signals corruption.
func (c *Corpus) extrapolate(corpusPath string, lineNo int, fileName, name string, variantIdx int, isExplicit bool, records fileRecords) error {
	if !isExplicit {
		if _, already := records[name]; already {
			return nil
		}
		records[name] = variantIdx
	}

	if !isExplicit && c.typeVariantCount(name) > 1 {
		return newParseError(
			"%s:%d: Type '%s' is implicitly referenced by file '%s' but has multiple variants in the corpus",
			corpusPath, lineNo, name, fileName)
	}

	toks := c.typeTokens(name, variantIdx)
	for _, t := range toks {
		if !t.isTypeRef() {
			continue
		}
		ref := t.asString()
		if err := c.extrapolate(corpusPath, lineNo, fileName, ref, 0, false, records); err != nil {
			return err
		}
	}
	return nil
}
