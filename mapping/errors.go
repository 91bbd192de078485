package mapping

import (
	"fmt"
	"strings"

	"github.com/iter-codac/imas-mapping/yamltree"
)

// ValidationError reports a single data validation failure. It carries the
// structural path of the offending node inside the mapping document, e.g.
// ("signals", "flux_loop", 1, "name"), and once annotated against the
// parsed tree it also renders the source line number and text:
//
//	Duplicate channel name '55.AD.00-MSA-1001'
//	  in "test.mapping.yaml", line 10:
//	    - name: 55.AD.00-MSA-1001
//
// ValidationError is a distinct class from yamltree.SchemaError so callers
// can map "fix the data" and "fix the YAML" to different remediation.
type ValidationError struct {
	Msg  string
	Path []any

	context []string
	cause   error
}

func newError(msg string, path ...any) *ValidationError {
	return &ValidationError{Msg: msg, Path: path}
}

// wrapError preserves a collaborator failure as context, mirroring the
// "<message> (<cause>)" rendering of the original diagnostics.
func wrapError(cause error, msg string, path ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf("%s (%s)", msg, cause), Path: path, cause: cause}
}

// surfaceError re-tags a collaborator failure as-is with a structural path.
func surfaceError(cause error, path ...any) *ValidationError {
	return &ValidationError{Msg: cause.Error(), Path: path, cause: cause}
}

func (e *ValidationError) Error() string {
	if len(e.context) == 0 {
		return e.Msg
	}
	return e.Msg + "\n" + strings.Join(e.context, "\n")
}

func (e *ValidationError) Unwrap() error { return e.cause }

// annotate resolves the structural path against the parsed tree and
// attaches the originating line number and raw source text. For collection
// nodes the introducing key's line is used, so an error on an array path
// points at its "flux_loop:" line rather than the first channel entry.
func (e *ValidationError) annotate(tree *yamltree.Tree, label string) {
	node, ok := tree.Lookup(e.Path...)
	if !ok {
		return
	}
	line := node.Line
	if node.Kind != yamltree.Scalar && node.KeyLine > 0 {
		line = node.KeyLine
	}
	e.context = append(e.context,
		fmt.Sprintf("  in %q, line %d:", label, line),
		"    "+strings.TrimRight(tree.SourceLine(line), " \t"),
	)
}
