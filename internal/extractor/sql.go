package extractor

import (
	"regexp"

	"github.com/smilemakc/cellgraph/internal/domain"
)

var rePlaceholder = regexp.MustCompile(`\{([A-Za-z_]\w*)\}`)

// ExtractSQL finds every {identifier} placeholder in a SQL fragment (spec
// §4.1). SQL cells never write into the namespace, so writes is always
// empty.
func ExtractSQL(source string) (reads, writes map[string]struct{}) {
	reads = map[string]struct{}{}
	writes = map[string]struct{}{}
	for _, m := range rePlaceholder.FindAllStringSubmatch(source, -1) {
		reads[m[1]] = struct{}{}
	}
	return reads, writes
}

// Extract dispatches on cell kind. Unknown kinds yield empty sets, matching
// the "never raises on malformed input" contract.
func Extract(kind domain.Kind, source string) (reads, writes map[string]struct{}) {
	switch kind {
	case domain.KindPython:
		return ExtractPython(source)
	case domain.KindSQL:
		return ExtractSQL(source)
	default:
		return map[string]struct{}{}, map[string]struct{}{}
	}
}
