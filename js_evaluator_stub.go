//go:build !js_eval

package store

// NewJSEvaluator returns an evaluator whose Compile fails with
// ErrEngineUnavailable. Build with the js_eval tag to get the goja engine.
func NewJSEvaluator(...EngineOption) Evaluator {
	return unavailableEvaluator{engine: "js"}
}

func jsEvaluatorAvailable() bool {
	return false
}
