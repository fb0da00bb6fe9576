package attributes

import (
	"testing"

	"github.com/mrzor/bench-launcher/internal/config"
	"github.com/mrzor/bench-launcher/internal/procmeta"
)

func benchMetadata() *procmeta.ProcessMetadata {
	return procmeta.New(
		[]string{
			"STL_PROFILES_PATH=/d/profiles",
			"TREX_EXT_LIBS=/d/external_libs",
		},
		[]string{"python3", "-m", "simple_bench", "-t", "300000", "-b", "10000", "-s", "50"},
	)
}

func TestEvaluator_Simple(t *testing.T) {
	attrs := []config.CustomAttribute{
		{Name: "trex.profiles", Expression: `env["STL_PROFILES_PATH"]`},
		{Name: "bench.module", Expression: `args[2]`},
	}

	evaluator, err := NewEvaluator(attrs)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	result := evaluator.Evaluate(benchMetadata())
	if len(result) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(result))
	}
	if result[0].Key != "trex.profiles" || result[0].Value.AsString() != "/d/profiles" {
		t.Errorf("result[0] = %v=%q, want trex.profiles=/d/profiles", result[0].Key, result[0].Value.AsString())
	}
	if result[1].Key != "bench.module" || result[1].Value.AsString() != "simple_bench" {
		t.Errorf("result[1] = %v=%q, want bench.module=simple_bench", result[1].Key, result[1].Value.AsString())
	}
}

func TestEvaluator_NonStringResult(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "argc", Expression: `len(args)`},
	})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	result := evaluator.Evaluate(benchMetadata())
	if len(result) != 1 || result[0].Value.AsString() != "9" {
		t.Errorf("Evaluate() = %v, want argc=9", result)
	}
}

func TestEvaluator_MapExpansion(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "layout", Expression: `env`},
	})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	result := evaluator.Evaluate(benchMetadata())
	if len(result) != 2 {
		t.Fatalf("Expected 2 attributes (map expansion), got %d", len(result))
	}
	// sorted by attribute name
	if result[0].Key != "layout.STL_PROFILES_PATH" {
		t.Errorf("result[0].Key = %q, want layout.STL_PROFILES_PATH", result[0].Key)
	}
	if result[1].Key != "layout.TREX_EXT_LIBS" || result[1].Value.AsString() != "/d/external_libs" {
		t.Errorf("result[1] = %v=%q", result[1].Key, result[1].Value.AsString())
	}
}

func TestEvaluator_InvalidExpression(t *testing.T) {
	_, err := NewEvaluator([]config.CustomAttribute{
		{Name: "bad", Expression: `invalid syntax here`},
	})
	if err == nil {
		t.Error("Expected error for invalid expression")
	}
}

func TestEvaluator_UnknownFunction(t *testing.T) {
	_, err := NewEvaluator([]config.CustomAttribute{
		{Name: "good", Expression: `env["EXISTS"]`},
		{Name: "bad", Expression: `invalid_function()`},
	})
	if err == nil {
		t.Fatal("Expected compile error for unknown function")
	}
}

func TestEvaluator_RuntimeErrorSkipsAttribute(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "out_of_range", Expression: `args[100]`},
		{Name: "ok", Expression: `cmdline`},
	})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	result := evaluator.Evaluate(benchMetadata())
	if len(result) != 1 || result[0].Key != "ok" {
		t.Fatalf("Evaluate() = %v, want only ok", result)
	}
	if result[0].Value.AsString() != "python3 -m simple_bench -t 300000 -b 10000 -s 50" {
		t.Errorf("cmdline = %q", result[0].Value.AsString())
	}
}

func TestEvaluator_MissingKey(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "missing", Expression: `env["MISSING"]`},
	})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	result := evaluator.Evaluate(benchMetadata())
	if len(result) != 1 || result[0].Value.AsString() != "" {
		t.Errorf("Evaluate() = %v, want one empty attribute", result)
	}
}

func TestEvaluator_NilMetadata(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{
		{Name: "test", Expression: `env["FOO"]`},
	})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	if result := evaluator.Evaluate(nil); result != nil {
		t.Error("Expected nil result for nil metadata")
	}
}

func TestSanitizeAttributeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"with-dash", "with_dash"},
		{"with.dot", "with_dot"},
		{"STL_PROFILES_PATH", "STL_PROFILES_PATH"},
		{"special!@#", "special___"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sanitizeAttributeName(tt.input); got != tt.want {
				t.Errorf("sanitizeAttributeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
