package search

import "github.com/alpaylan/ruggle/internal/model"

// RenderSignature is the deterministic pretty-printer spec §4.5 requires
// for a Hit's one-line rendered signature: "fn name(args) -> output",
// reusing Type.String's surface-syntax rendering for every position.
func RenderSignature(name string, sig model.FunctionSignature) string {
	return "fn " + name + sig.String()
}
