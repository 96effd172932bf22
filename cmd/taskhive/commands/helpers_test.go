package commands

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/taskhive/taskhive/internal/ai"
)

func TestPresentAIError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantSub string
	}{
		{
			name:    "overloaded carries wait hint",
			err:     &ai.ProviderError{Kind: ai.KindOverloaded, Status: 503},
			wantSub: "high traffic",
		},
		{
			name:    "rate limited names the wait",
			err:     &ai.ProviderError{Kind: ai.KindRateLimited, Status: 429},
			wantSub: "wait 30 seconds",
		},
		{
			name:    "timeout suggests retry",
			err:     &ai.ProviderError{Kind: ai.KindTimeout},
			wantSub: "try again",
		},
		{
			name:    "wrapped provider error still classified",
			err:     fmt.Errorf("chat: %w", &ai.ProviderError{Kind: ai.KindOverloaded, Status: 503}),
			wantSub: "high traffic",
		},
		{
			name:    "incomplete response asks for rephrase",
			err:     ai.ErrIncompleteResponse,
			wantSub: "fewer tasks",
		},
		{
			name:    "wrapped incomplete response asks for rephrase",
			err:     fmt.Errorf("normalize: %w", ai.ErrIncompleteResponse),
			wantSub: "rephrase",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := presentAIError(tt.err)
			if got == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(got.Error(), tt.wantSub) {
				t.Errorf("presented error %q does not contain %q", got.Error(), tt.wantSub)
			}
		})
	}

	t.Run("other errors pass through unchanged", func(t *testing.T) {
		err := errors.New("group g1 not found")
		if got := presentAIError(err); got != err {
			t.Errorf("expected passthrough, got %v", got)
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if got := presentAIError(nil); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})
}
