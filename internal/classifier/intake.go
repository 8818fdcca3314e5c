package classifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/hostelkit/maintenance-service/internal/domain"
)

// Intake converts untrusted classifier output into the closed Category and
// Priority enumerations. This is the only boundary where raw classifier text
// enters the domain model.
type Intake struct {
	gateway Gateway
	logger  *zap.Logger
}

// NewIntake wires the gateway with the fixed fallback policy.
func NewIntake(gateway Gateway, logger *zap.Logger) *Intake {
	return &Intake{gateway: gateway, logger: logger}
}

// Classify never fails. When the gateway errors or answers with values
// outside the enumerations, the ticket gets OTHER/P3_NORMAL so creation is
// never blocked on the external dependency; the warden can reclassify later.
func (i *Intake) Classify(ctx context.Context, description string) (domain.Category, domain.Priority) {
	suggestion, err := i.gateway.Classify(ctx, description)
	if err != nil {
		i.logger.Warn("classifier unavailable, using defaults", zap.Error(err))
		return domain.DefaultCategory, domain.DefaultPriority
	}

	category := domain.Category(suggestion.Category)
	priority := domain.Priority(suggestion.Priority)
	if !category.Valid() || !priority.Valid() {
		i.logger.Warn("classifier answer outside enumerations, using defaults",
			zap.String("category", suggestion.Category),
			zap.String("priority", suggestion.Priority))
		return domain.DefaultCategory, domain.DefaultPriority
	}
	return category, priority
}
