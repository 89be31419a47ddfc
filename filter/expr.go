package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/avhagen/pollster/polly"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables compiled-filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) Compiler {
	c := &exprCompiler{
		helperFuncs: staticHelpers(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Poll fields are injected at evaluation time, so undefined variables
	// must be allowed during compilation.
	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate runs the filter against a poll. A runtime error counts as a
// non-match.
func (f *exprFilter) Evaluate(poll polly.Poll) bool {
	result, err := expr.Run(f.program, runtimeEnv(poll))
	if err != nil {
		return false
	}

	// AsBool() during compilation guarantees a bool result
	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// staticHelpers creates the poll-independent functions available to every
// expression.
func staticHelpers() map[string]any {
	env := make(map[string]any, 16)
	addStaticHelpers(env)
	return env
}

func addStaticHelpers(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse("2006-01-02", dateStr)
		return t
	}
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	// Current time
	env["now"] = time.Now
}

// runtimeEnv builds the evaluation environment for one poll.
func runtimeEnv(poll polly.Poll) map[string]any {
	env := make(map[string]any, 32)
	addStaticHelpers(env)

	// Created is the zero time when the server's timestamp is unparseable;
	// date comparisons against it simply fail to match.
	created, createdOK := poll.CreatedTime()

	env["Poll"] = poll
	env["ID"] = poll.ID
	env["Question"] = poll.Question
	env["OwnerID"] = poll.OwnerID
	env["CreatedAt"] = poll.CreatedAt
	env["Created"] = created
	env["Options"] = poll.Options
	env["OptionCount"] = len(poll.Options)

	env["hasOption"] = hasOptionFunc(poll.Options)
	env["createdAfter"] = createdAfterFunc(created, createdOK)
	env["createdBefore"] = createdBeforeFunc(created, createdOK)

	return env
}

func hasOptionFunc(options []polly.Option) func(string) bool {
	return func(text string) bool {
		for _, o := range options {
			if strings.EqualFold(o.Text, text) {
				return true
			}
		}
		return false
	}
}

func createdAfterFunc(created time.Time, ok bool) func(string) bool {
	return func(dateStr string) bool {
		if !ok {
			return false
		}
		t, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return false
		}
		return created.After(t)
	}
}

func createdBeforeFunc(created time.Time, ok bool) func(string) bool {
	return func(dateStr string) bool {
		if !ok {
			return false
		}
		t, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return false
		}
		return created.Before(t)
	}
}
