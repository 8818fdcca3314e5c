package classifier

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/hostelkit/maintenance-service/internal/domain"
)

type stubGateway struct {
	suggestion Suggestion
	err        error
}

func (g stubGateway) Classify(context.Context, string) (Suggestion, error) {
	return g.suggestion, g.err
}

func TestIntakeNeverFails(t *testing.T) {
	cases := []struct {
		name         string
		gateway      stubGateway
		wantCategory domain.Category
		wantPriority domain.Priority
	}{
		{
			name:         "valid answer passes verbatim",
			gateway:      stubGateway{suggestion: Suggestion{Category: "INTERNET", Priority: "P2_HIGH"}},
			wantCategory: domain.CategoryInternet,
			wantPriority: domain.PriorityHigh,
		},
		{
			name:         "gateway error falls back",
			gateway:      stubGateway{err: errors.New("service unavailable")},
			wantCategory: domain.CategoryOther,
			wantPriority: domain.PriorityNormal,
		},
		{
			name:         "unknown category falls back",
			gateway:      stubGateway{suggestion: Suggestion{Category: "??", Priority: "P2_HIGH"}},
			wantCategory: domain.CategoryOther,
			wantPriority: domain.PriorityNormal,
		},
		{
			name:         "unknown priority falls back",
			gateway:      stubGateway{suggestion: Suggestion{Category: "PLUMBING", Priority: "URGENT"}},
			wantCategory: domain.CategoryOther,
			wantPriority: domain.PriorityNormal,
		},
		{
			name:         "empty answer falls back",
			gateway:      stubGateway{},
			wantCategory: domain.CategoryOther,
			wantPriority: domain.PriorityNormal,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			intake := NewIntake(tt.gateway, zap.NewNop())
			category, priority := intake.Classify(context.Background(), "leaking tap")
			if category != tt.wantCategory || priority != tt.wantPriority {
				t.Fatalf("Classify = %s/%s, want %s/%s", category, priority, tt.wantCategory, tt.wantPriority)
			}
			if !category.Valid() || !priority.Valid() {
				t.Fatalf("intake produced values outside the enumerations: %s/%s", category, priority)
			}
		})
	}
}
