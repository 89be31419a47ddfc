package filter

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/avhagen/pollster/polly"
)

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `hasOption("go")`,
			wantErr:    false,
		},
		{
			name:        "empty expression",
			expression:  "",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `hasOption("unclosed`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `contains(Question, "best") and OptionCount > 2 and createdAfter("2024-01-01")`,
			wantErr:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if filter == nil {
					t.Errorf("expected filter but got nil")
				}
			}
		})
	}
}

func TestFilterEvaluation(t *testing.T) {
	poll := polly.Poll{
		ID:        42,
		Question:  "What's the best Go router?",
		CreatedAt: "2025-06-01T10:00:00",
		OwnerID:   7,
		Options: []polly.Option{
			{ID: 1, Text: "chi", PollID: 42},
			{ID: 2, Text: "gorilla/mux", PollID: 42},
			{ID: 3, Text: "net/http", PollID: 42},
		},
	}

	tests := []struct {
		name       string
		expression string
		expected   bool
	}{
		{
			name:       "has option",
			expression: `hasOption("chi")`,
			expected:   true,
		},
		{
			name:       "has option is case-insensitive",
			expression: `hasOption("CHI")`,
			expected:   true,
		},
		{
			name:       "does not have option",
			expression: `hasOption("express")`,
			expected:   false,
		},
		{
			name:       "question contains",
			expression: `contains(Question, "ROUTER")`,
			expected:   true,
		},
		{
			name:       "starts with",
			expression: `startsWith(Question, "what")`,
			expected:   true,
		},
		{
			name:       "option count",
			expression: `OptionCount == 3`,
			expected:   true,
		},
		{
			name:       "id and owner",
			expression: `ID == 42 and OwnerID == 7`,
			expected:   true,
		},
		{
			name:       "struct field access",
			expression: `Options[0].Text == "chi"`,
			expected:   true,
		},
		{
			name:       "created after",
			expression: `createdAfter("2025-01-01")`,
			expected:   true,
		},
		{
			name:       "created before",
			expression: `createdBefore("2025-01-01")`,
			expected:   false,
		},
		{
			name:       "created in the past",
			expression: `Created < now()`,
			expected:   true,
		},
		{
			name:       "negation",
			expression: `not hasOption("express")`,
			expected:   true,
		},
		{
			name:       "days since creation",
			expression: `daysSince(Created) >= 0`,
			expected:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)
			if err != nil {
				t.Fatalf("failed to compile filter: %v", err)
			}

			result := filter.Evaluate(poll)
			if result != tt.expected {
				t.Errorf("expected %v but got %v for expression %q", tt.expected, result, tt.expression)
			}
		})
	}
}

func TestFilterEvaluationUnparseableTimestamp(t *testing.T) {
	poll := polly.Poll{
		ID:        1,
		Question:  "Q?",
		CreatedAt: "not-a-date",
	}

	for _, expression := range []string{`createdAfter("2020-01-01")`, `createdBefore("2030-01-01")`} {
		filter, err := CompileFilter(expression)
		if err != nil {
			t.Fatalf("failed to compile filter: %v", err)
		}
		if filter.Evaluate(poll) {
			t.Errorf("expression %q matched a poll with an unparseable timestamp", expression)
		}
	}
}

func TestCompilerCache(t *testing.T) {
	compiler := NewExprCompiler(WithCache(10))

	caching, ok := compiler.(CachingCompiler)
	if !ok {
		t.Fatal("expected the expr compiler to implement CachingCompiler")
	}

	f1, err := compiler.Compile(`hasOption("go")`)
	if err != nil {
		t.Fatalf("failed to compile filter: %v", err)
	}
	f2, err := compiler.Compile(`hasOption("go")`)
	if err != nil {
		t.Fatalf("failed to compile filter: %v", err)
	}

	if f1 != f2 {
		t.Error("expected the cached instance on recompilation")
	}
	if caching.Size() != 1 {
		t.Errorf("cache size = %d, want 1", caching.Size())
	}

	caching.Clear()
	if caching.Size() != 0 {
		t.Errorf("cache size after clear = %d, want 0", caching.Size())
	}
}

func TestCacheEviction(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))
	caching := compiler.(CachingCompiler)

	for _, expression := range []string{`ID == 1`, `ID == 2`, `ID == 3`} {
		if _, err := compiler.Compile(expression); err != nil {
			t.Fatalf("failed to compile filter: %v", err)
		}
	}

	if caching.Size() != 2 {
		t.Errorf("cache size = %d, want 2", caching.Size())
	}
}

func TestParseAndCreateFilter(t *testing.T) {
	poll := polly.Poll{ID: 1, Question: "Tabs or spaces?"}

	t.Run("empty expression matches everything", func(t *testing.T) {
		match, err := ParseAndCreateFilter("   ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !match(poll) {
			t.Error("empty filter should match every poll")
		}
	})

	t.Run("expression filters polls", func(t *testing.T) {
		match, err := ParseAndCreateFilter(`contains(Question, "tabs")`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !match(poll) {
			t.Error("expected a match")
		}
		if match(polly.Poll{Question: "Vim or Emacs?"}) {
			t.Error("expected no match")
		}
	})

	t.Run("invalid expression returns an error", func(t *testing.T) {
		if _, err := ParseAndCreateFilter(`contains(`); err == nil {
			t.Error("expected an error")
		}
	})
}

func generateTestPolls(n int) []polly.Poll {
	polls := make([]polly.Poll, 0, n)
	for i := 1; i <= n; i++ {
		polls = append(polls, polly.Poll{
			ID:        int64(i),
			Question:  fmt.Sprintf("Question %d?", i),
			CreatedAt: "2025-06-01T10:00:00",
			OwnerID:   int64(i % 5),
			Options: []polly.Option{
				{ID: int64(i * 2), Text: "Yes", PollID: int64(i)},
				{ID: int64(i*2 + 1), Text: "No", PollID: int64(i)},
			},
		})
	}
	return polls
}

func TestConcurrentEvaluation(t *testing.T) {
	polls := generateTestPolls(500)

	filter, err := CompileFilter(`ID % 3 == 0`)
	if err != nil {
		t.Fatalf("failed to compile filter: %v", err)
	}

	evaluator := NewConcurrentEvaluator(WithWorkers(4), WithChunkSize(64))
	matches, err := evaluator.Evaluate(context.Background(), filter, polls)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	expected := Apply(filter, polls)
	if len(matches) != len(expected) {
		t.Fatalf("concurrent evaluation returned %d matches, sequential returned %d", len(matches), len(expected))
	}
	for i := range matches {
		if matches[i].ID != expected[i].ID {
			t.Fatalf("order diverged at index %d: %d != %d", i, matches[i].ID, expected[i].ID)
		}
	}
}

func TestConcurrentEvaluationSmallSet(t *testing.T) {
	polls := generateTestPolls(10)

	filter, err := CompileFilter(`OwnerID == 1`)
	if err != nil {
		t.Fatalf("failed to compile filter: %v", err)
	}

	evaluator := NewConcurrentEvaluator(WithChunkSize(100))
	matches, err := evaluator.Evaluate(context.Background(), filter, polls)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("got %d matches, want 2", len(matches))
	}
}

func TestConcurrentEvaluationCancelled(t *testing.T) {
	polls := generateTestPolls(500)

	filter, err := CompileFilter(`true`)
	if err != nil {
		t.Fatalf("failed to compile filter: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	evaluator := NewConcurrentEvaluator(WithChunkSize(64))
	if _, err := evaluator.Evaluate(ctx, filter, polls); err == nil {
		t.Error("expected a context error")
	}
}
