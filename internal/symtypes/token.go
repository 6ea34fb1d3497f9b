package symtypes

// tokenKind distinguishes a type reference from an opaque atom.
type tokenKind int

const (
	tokenAtom tokenKind = iota
	tokenTypeRef
)

// token is a single word from a symtypes record: either a reference to
// another type (text of the form "X#name") or an opaque atom. Which
// variant of a TypeRef's target applies is never stored on the token
// itself — it is resolved through the enclosing file's records.
type token struct {
	kind tokenKind
	text string
}

func newAtom(text string) token {
	return token{kind: tokenAtom, text: text}
}

func newTypeRef(text string) token {
	return token{kind: tokenTypeRef, text: text}
}

// asString returns the token's original text, regardless of kind.
func (t token) asString() string {
	return t.text
}

func (t token) isTypeRef() bool {
	return t.kind == tokenTypeRef
}

// wordToToken classifies a raw word lexically: it is a type reference iff
// its second byte is '#'.
func wordToToken(word string) token {
	if len(word) > 1 && word[1] == '#' {
		return newTypeRef(word)
	}
	return newAtom(word)
}

// tokens is a sequence of tokens describing one type or export's body.
type tokens []token

func (ts tokens) equal(other tokens) bool {
	if len(ts) != len(other) {
		return false
	}
	for i := range ts {
		if ts[i].kind != other[i].kind || ts[i].text != other[i].text {
			return false
		}
	}
	return true
}

// isExport reports whether name identifies an exported symbol, as opposed
// to an "X#name" type declaration: is_export(name) iff len(name) < 2 or
// name[1] != '#'.
func isExport(name string) bool {
	return len(name) < 2 || name[1] != '#'
}
