package filter

import (
	"context"

	"github.com/avhagen/pollster/polly"
)

// Filter defines the basic interface for poll filters
type Filter interface {
	// Evaluate checks if a poll matches the filter criteria
	Evaluate(poll polly.Poll) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Evaluator evaluates a filter against a set of polls
type Evaluator interface {
	// Evaluate returns the polls matching the filter, preserving input order
	Evaluate(ctx context.Context, filter CompiledFilter, polls []polly.Poll) ([]polly.Poll, error)
}
