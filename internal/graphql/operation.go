package graphql

import "strings"

// Operation is a top-level operation definition of a GraphQL document.
type Operation struct {
	Type string
	Name string
}

// Operations lists the operation definitions of document in order. Fragment
// definitions are skipped. A shorthand selection set ("{ ... }") is an
// anonymous query. Commas, comments, and string literals are ignored the way
// a GraphQL lexer ignores them, so keywords inside strings or comments never
// start an operation.
func Operations(document string) []Operation {
	var (
		ops          []Operation
		braces       int
		parens       int
		atDefinition = true
		awaitingName bool
	)

	for i := 0; i < len(document); {
		c := document[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			i++
		case c == '#':
			for i < len(document) && document[i] != '\n' && document[i] != '\r' {
				i++
			}
		case c == '"':
			i = skipString(document, i)
			awaitingName = false
		case c == '(':
			parens++
			awaitingName = false
			i++
		case c == ')':
			if parens > 0 {
				parens--
			}
			i++
		case c == '{':
			if braces == 0 && parens == 0 && atDefinition {
				ops = append(ops, Operation{Type: "query"})
			}
			if parens == 0 {
				atDefinition = false
			}
			braces++
			awaitingName = false
			i++
		case c == '}':
			if braces > 0 {
				braces--
			}
			if braces == 0 && parens == 0 {
				atDefinition = true
			}
			i++
		case isNameStart(c):
			j := i + 1
			for j < len(document) && isNameContinue(document[j]) {
				j++
			}
			word := document[i:j]
			i = j
			if braces > 0 || parens > 0 {
				continue
			}
			switch {
			case atDefinition:
				atDefinition = false
				awaitingName = false
				if word == "query" || word == "mutation" || word == "subscription" {
					ops = append(ops, Operation{Type: word})
					awaitingName = true
				}
			case awaitingName:
				ops[len(ops)-1].Name = word
				awaitingName = false
			}
		default:
			awaitingName = false
			i++
		}
	}
	return ops
}

// skipString returns the index just past the string literal starting at i.
func skipString(document string, i int) int {
	if strings.HasPrefix(document[i:], `"""`) {
		for j := i + 3; j < len(document); j++ {
			if document[j] == '\\' && strings.HasPrefix(document[j+1:], `"""`) {
				j += 3
				continue
			}
			if strings.HasPrefix(document[j:], `"""`) {
				return j + 3
			}
		}
		return len(document)
	}
	for j := i + 1; j < len(document); j++ {
		switch document[j] {
		case '\\':
			j++
		case '"', '\n', '\r':
			return j + 1
		}
	}
	return len(document)
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameContinue(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// OperationName returns the name of the first named operation declared in
// document, or "" for anonymous operations and shorthand queries.
func OperationName(document string) string {
	for _, op := range Operations(document) {
		if op.Name != "" {
			return op.Name
		}
	}
	return ""
}

// OperationType returns "query", "mutation", or "subscription" for the first
// operation in document. Shorthand documents ("{ ... }") are queries.
func OperationType(document string) string {
	ops := Operations(document)
	if len(ops) == 0 {
		return "query"
	}
	return ops[0].Type
}
