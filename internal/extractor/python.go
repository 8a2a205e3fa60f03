package extractor

import (
	"regexp"
	"strings"
)

// ExtractPython derives (reads, writes) from a Python source fragment using
// a scope-aware tokenizer, per spec.md §4.1. It never errors: a malformed
// fragment yields empty sets so downstream layers treat the cell as
// trivially independent.
//
// There is no Go library in this module's dependency set (or the wider
// example corpus) for parsing Python, so this is deliberately hand-rolled
// against the stdlib regexp/strings packages — see DESIGN.md.
func ExtractPython(source string) (reads, writes map[string]struct{}) {
	reads = map[string]struct{}{}
	writes = map[string]struct{}{}

	lines := splitLogicalLines(source)
	moduleReads := map[string]struct{}{}
	localBound := map[string]struct{}{} // names bound inside nested def/class/comprehension scopes

	depth := 0 // indentation of the def/class line that opened the current nested scope
	inNestedScope := false

	for _, raw := range lines {
		line := stripComment(raw)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := leadingSpaces(line)

		if indent <= 0 {
			inNestedScope = false
			depth = 0
		}

		switch {
		case reDef.MatchString(trimmed):
			name := firstMatch(reDef, trimmed)
			if name != "" && !inNestedScope {
				writes[name] = struct{}{}
			}
			// Everything inside this def's body is a nested (function) scope:
			// its own assignments and parameters must not leak into module
			// reads/writes.
			collectNestedBindings(trimmed, localBound)
			inNestedScope = true
			depth = indent
			continue
		case reClass.MatchString(trimmed):
			name := firstMatch(reClass, trimmed)
			if name != "" && !inNestedScope {
				writes[name] = struct{}{}
			}
			inNestedScope = true
			depth = indent
			continue
		}

		if inNestedScope && indent > depth {
			// Inside a nested def/class body: record local bindings so later
			// module-level reads of the same name aren't falsely attributed,
			// but never contribute to module reads/writes directly.
			collectAssignTargets(trimmed, localBound)
			collectComprehensionVars(trimmed, localBound)
			continue
		}
		inNestedScope = false

		// --- module-level statement ---
		if reImport.MatchString(trimmed) || reFromImport.MatchString(trimmed) {
			// import statements bind names but read none.
			handleImport(trimmed, writes)
			continue
		}
		handleFor(trimmed, writes, localBound)
		handleWith(trimmed, writes)
		handleAugAssign(trimmed, writes, moduleReads)
		handleAssign(trimmed, writes)
		collectComprehensionVars(trimmed, localBound)

		for _, name := range identifiersIn(trimmed) {
			if isKeyword(name) || isBuiltin(name) {
				continue
			}
			moduleReads[name] = struct{}{}
		}
	}

	for name := range moduleReads {
		if _, local := localBound[name]; local {
			continue
		}
		if _, written := writes[name]; written {
			// reads minus writes: a cell that both writes and reads the same
			// name is self-sufficient for that name (spec §4.1).
			continue
		}
		reads[name] = struct{}{}
	}

	return reads, writes
}

var (
	reDef       = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	reClass     = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)`)
	reImport    = regexp.MustCompile(`^import\s+(.+)$`)
	reFromImport = regexp.MustCompile(`^from\s+(\S+)\s+import\s+(.+)$`)
	reFor       = regexp.MustCompile(`^for\s+(.+?)\s+in\s+.+:$`)
	reWith      = regexp.MustCompile(`\bas\s+([A-Za-z_]\w*)`)
	reAugAssign = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(\+=|-=|\*=|/=|//=|%=|\*\*=|&=|\|=|\^=|>>=|<<=)\s*(.+)$`)
	reAssign    = regexp.MustCompile(`^([A-Za-z_][\w, \t()\[\]]*?)\s*=(?:[^=].*|)$`)
	reIdent     = regexp.MustCompile(`[A-Za-z_]\w*`)
	reComp      = regexp.MustCompile(`\bfor\s+(.+?)\s+in\b`)
)

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func handleImport(line string, writes map[string]struct{}) {
	if m := reFromImport.FindStringSubmatch(line); m != nil {
		module, names := m[1], m[2]
		if strings.TrimSpace(names) == "*" {
			// wildcard imports are untrackable: empty writes, not an error.
			return
		}
		for _, part := range strings.Split(names, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			fields := strings.Fields(part)
			switch len(fields) {
			case 1:
				writes[fields[0]] = struct{}{}
			case 3: // name as alias
				if strings.EqualFold(fields[1], "as") {
					writes[fields[2]] = struct{}{}
				}
			}
		}
		_ = module
		return
	}
	if m := reImport.FindStringSubmatch(line); m != nil {
		for _, part := range strings.Split(m[1], ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			fields := strings.Fields(part)
			if len(fields) == 3 && strings.EqualFold(fields[1], "as") {
				writes[fields[2]] = struct{}{}
				continue
			}
			// "import X.Y.Z" binds the first dotted component, X.
			dotted := strings.SplitN(fields[0], ".", 2)
			writes[dotted[0]] = struct{}{}
		}
	}
}

func handleFor(line string, writes, localBound map[string]struct{}) {
	m := reFor.FindStringSubmatch(line)
	if m == nil {
		return
	}
	for _, name := range splitTargets(m[1]) {
		writes[name] = struct{}{}
	}
}

func handleWith(line string, writes map[string]struct{}) {
	if !strings.HasPrefix(line, "with ") {
		return
	}
	for _, m := range reWith.FindAllStringSubmatch(line, -1) {
		writes[m[1]] = struct{}{}
	}
}

func handleAugAssign(line string, writes, reads map[string]struct{}) {
	m := reAugAssign.FindStringSubmatch(line)
	if m == nil {
		return
	}
	name := m[1]
	writes[name] = struct{}{}
	reads[name] = struct{}{} // augmented assignment contributes to both (spec §4.1)
}

func handleAssign(line string, writes map[string]struct{}) {
	if reAugAssign.MatchString(line) {
		return
	}
	m := reAssign.FindStringSubmatch(line)
	if m == nil {
		return
	}
	for _, name := range splitTargets(m[1]) {
		writes[name] = struct{}{}
	}
}

// splitTargets handles "a", "a, b", "a, (b, c)" style assignment/for targets.
func splitTargets(s string) []string {
	s = strings.Trim(s, "() \t")
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '(' || r == ')' }) {
		part = strings.TrimSpace(part)
		if part == "" || part == "_" {
			continue
		}
		if !reIdent.MatchString(part) {
			continue
		}
		out = append(out, reIdent.FindString(part))
	}
	return out
}

func collectNestedBindings(defLine string, localBound map[string]struct{}) {
	open := strings.Index(defLine, "(")
	close := strings.LastIndex(defLine, ")")
	if open < 0 || close < 0 || close <= open {
		return
	}
	params := defLine[open+1 : close]
	for _, p := range strings.Split(params, ",") {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(p, "*")
		p = strings.TrimPrefix(p, "*")
		if idx := strings.IndexAny(p, ":="); idx >= 0 {
			p = p[:idx]
		}
		p = strings.TrimSpace(p)
		if reIdent.MatchString(p) {
			localBound[p] = struct{}{}
		}
	}
}

func collectAssignTargets(line string, localBound map[string]struct{}) {
	if m := reAugAssign.FindStringSubmatch(line); m != nil {
		localBound[m[1]] = struct{}{}
		return
	}
	if m := reAssign.FindStringSubmatch(line); m != nil {
		for _, name := range splitTargets(m[1]) {
			localBound[name] = struct{}{}
		}
	}
}

func collectComprehensionVars(line string, localBound map[string]struct{}) {
	for _, m := range reComp.FindAllStringSubmatch(line, -1) {
		for _, name := range splitTargets(m[1]) {
			localBound[name] = struct{}{}
		}
	}
}

func identifiersIn(line string) []string {
	return reIdent.FindAllString(line, -1)
}

func leadingSpaces(line string) int {
	n := 0
	for _, r := range line {
		if r == ' ' {
			n++
		} else if r == '\t' {
			n += 8
		} else {
			break
		}
	}
	return n
}

func stripComment(line string) string {
	inStr := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr != 0 {
			if c == inStr && (i == 0 || line[i-1] != '\\') {
				inStr = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			inStr = c
			continue
		}
		if c == '#' {
			return line[:i]
		}
	}
	return line
}

// splitLogicalLines splits on newlines; bracket/backslash continuations are
// out of scope for this syntactic, best-effort extractor — a continuation
// line simply fails to match any recognized pattern and is treated as an
// expression statement (contributes reads only), which is safe per the
// "never raises, malformed yields trivially independent" contract.
func splitLogicalLines(source string) []string {
	return strings.Split(source, "\n")
}

var pythonKeywords = map[string]struct{}{
	"False": {}, "None": {}, "True": {}, "and": {}, "as": {}, "assert": {},
	"async": {}, "await": {}, "break": {}, "class": {}, "continue": {},
	"def": {}, "del": {}, "elif": {}, "else": {}, "except": {}, "finally": {},
	"for": {}, "from": {}, "global": {}, "if": {}, "import": {}, "in": {},
	"is": {}, "lambda": {}, "nonlocal": {}, "not": {}, "or": {}, "pass": {},
	"raise": {}, "return": {}, "try": {}, "while": {}, "with": {}, "yield": {},
}

func isKeyword(name string) bool {
	_, ok := pythonKeywords[name]
	return ok
}

var pythonBuiltins = map[string]struct{}{
	"print": {}, "len": {}, "range": {}, "str": {}, "int": {}, "float": {},
	"bool": {}, "list": {}, "dict": {}, "set": {}, "tuple": {}, "type": {},
	"isinstance": {}, "enumerate": {}, "zip": {}, "map": {}, "filter": {},
	"sorted": {}, "reversed": {}, "sum": {}, "min": {}, "max": {}, "abs": {},
	"open": {}, "super": {}, "object": {}, "Exception": {}, "self": {},
}

func isBuiltin(name string) bool {
	_, ok := pythonBuiltins[name]
	return ok
}
