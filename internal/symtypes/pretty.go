package symtypes

import "strings"

// prettyFormat renders a token stream as indented multi-line text
// following C-like syntactic brackets, for use as diff input. Imbalanced
// brackets never error; indentation simply saturates at zero.
func prettyFormat(ts tokens) []string {
	var res []string
	indent := 0
	var line strings.Builder

	flush := func() {
		if line.Len() > 0 {
			res = append(res, line.String())
			line.Reset()
		}
	}

	for _, t := range ts {
		word := t.asString()

		// Closing bracket/paren ends any prior line and reduces indent
		// before the new line is opened.
		if word == "}" || word == ")" {
			flush()
			if indent > 0 {
				indent--
			}
		}

		isFirst := line.Len() == 0
		if isFirst {
			line.WriteString(strings.Repeat("\t", indent))
		}

		switch word {
		case "{", "(":
			if !isFirst {
				line.WriteByte(' ')
			}
			line.WriteString(word)
			res = append(res, line.String())
			line.Reset()
			indent++
		case "}", ")":
			line.WriteString(word)
		case ";", ",":
			line.WriteString(word)
			res = append(res, line.String())
			line.Reset()
		default:
			if !isFirst {
				line.WriteByte(' ')
			}
			line.WriteString(word)
		}
	}

	flush()
	return res
}
