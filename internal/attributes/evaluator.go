package attributes

import (
	"fmt"
	"log"
	"reflect"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mrzor/bench-launcher/internal/config"
	"github.com/mrzor/bench-launcher/internal/procmeta"
	"go.opentelemetry.io/otel/attribute"
)

// compile type-checks an expression against the metadata environment.
func compile(exprStr string) (*vm.Program, error) {
	var empty *procmeta.ProcessMetadata
	return expr.Compile(exprStr, expr.Env(empty.Env()))
}

// Evaluator turns custom attribute definitions into span attributes.
type Evaluator struct {
	customAttrs   []config.CustomAttribute
	compiledExprs []*vm.Program
}

// NewEvaluator pre-compiles every custom attribute expression.
func NewEvaluator(customAttrs []config.CustomAttribute) (*Evaluator, error) {
	compiled := make([]*vm.Program, len(customAttrs))
	for i, attr := range customAttrs {
		program, err := compile(attr.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression for attribute %q: %w", attr.Name, err)
		}
		compiled[i] = program
	}

	return &Evaluator{
		customAttrs:   customAttrs,
		compiledExprs: compiled,
	}, nil
}

// Evaluate runs every expression against metadata. An expression that
// fails at runtime is logged and skipped. A map result expands into one
// attribute per key, named NAME.key with the key sanitized and keys in
// sorted order.
func (e *Evaluator) Evaluate(metadata *procmeta.ProcessMetadata) []attribute.KeyValue {
	if len(e.customAttrs) == 0 || metadata == nil {
		return nil
	}

	env := metadata.Env()
	var attrs []attribute.KeyValue
	for i, customAttr := range e.customAttrs {
		output, err := expr.Run(e.compiledExprs[i], env)
		if err != nil {
			log.Printf("Warning: failed to evaluate expression for attribute %q: %v", customAttr.Name, err)
			continue
		}

		value := reflect.ValueOf(output)
		if value.Kind() != reflect.Map {
			attrs = append(attrs, attribute.String(customAttr.Name, fmt.Sprint(output)))
			continue
		}

		keys := make([]string, 0, value.Len())
		byName := make(map[string]interface{}, value.Len())
		for _, k := range value.MapKeys() {
			name := customAttr.Name + "." + sanitizeAttributeName(fmt.Sprint(k.Interface()))
			keys = append(keys, name)
			byName[name] = value.MapIndex(k).Interface()
		}
		sort.Strings(keys)
		for _, name := range keys {
			attrs = append(attrs, attribute.String(name, fmt.Sprint(byName[name])))
		}
	}

	return attrs
}

// sanitizeAttributeName replaces anything outside [A-Za-z0-9_] with '_'.
func sanitizeAttributeName(name string) string {
	result := []byte(name)
	for i, c := range result {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			result[i] = '_'
		}
	}
	return string(result)
}
