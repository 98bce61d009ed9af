package hook

import (
	"regexp"
	"strconv"
)

// declPattern matches one "@hook <name> [priority]" line inside a block or
// line comment: "  * @hook init 5" or "// @hook init first".
var declPattern = regexp.MustCompile(`(?m)^[ \t]*(?:\*|//)[ \t]*@hook[ \t]+([A-Za-z0-9_/=-]+)(?:[ \t]+(\S+))?[ \t\r]*$`)

// ParseDeclaration extracts the hook declaration from a documentation
// block. It reports false when no well-formed "@hook" line exists, which is
// the normal case for most methods.
//
// A line whose priority token is neither a non-negative integer nor one of
// "first" and "last" does not count as a declaration. Only the first
// well-formed line is honored; declarations carry a single tag.
func ParseDeclaration(doc string, defaultPriority int) (Declaration, bool) {
	for _, m := range declPattern.FindAllStringSubmatch(doc, -1) {
		priority, ok := parsePriority(m[2], defaultPriority)
		if !ok {
			continue
		}
		return Declaration{Hook: m[1], Priority: priority}, true
	}
	return Declaration{}, false
}

// ParsePriority converts a priority token. The empty token yields def.
func ParsePriority(token string, def int) (int, bool) {
	return parsePriority(token, def)
}

func parsePriority(token string, def int) (int, bool) {
	switch token {
	case "":
		return def, true
	case "first":
		return PriorityFirst, true
	case "last":
		return PriorityLast, true
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}
