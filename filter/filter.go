// Package filter compiles expr-lang expressions into poll filters.
//
// Expressions see the fields of the poll under evaluation (ID, Question,
// OwnerID, Created, Options, OptionCount) plus helper functions such as
// contains, hasOption, createdAfter and daysAgo:
//
//	contains(Question, "tabs") and OptionCount > 2
//	hasOption("Go") or createdAfter("2025-01-01")
package filter

import (
	"strings"
	"sync"

	"github.com/avhagen/pollster/polly"
)

var (
	defaultCompiler Compiler
	compilerOnce    sync.Once
)

// CompileFilter compiles an expression with the shared package compiler.
// Compiled filters are cached, so recompiling a preset is cheap.
func CompileFilter(expression string) (CompiledFilter, error) {
	compilerOnce.Do(func() {
		defaultCompiler = NewExprCompiler(WithCache(64))
	})
	return defaultCompiler.Compile(expression)
}

// ParseAndCreateFilter parses a filter expression and returns a match
// function. An empty expression matches everything.
func ParseAndCreateFilter(expression string) (func(polly.Poll) bool, error) {
	if strings.TrimSpace(expression) == "" {
		return func(polly.Poll) bool { return true }, nil
	}

	compiled, err := CompileFilter(expression)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate, nil
}

// Apply filters polls sequentially, preserving order.
func Apply(filter Filter, polls []polly.Poll) []polly.Poll {
	matched := make([]polly.Poll, 0, len(polls))
	for _, p := range polls {
		if filter.Evaluate(p) {
			matched = append(matched, p)
		}
	}
	return matched
}
