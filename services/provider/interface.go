package provider

import (
	"context"

	"bookitgy/models"
)

// DeleteOutcome tells a hard delete from an archive. Services with bookings are archived by
// the server instead of deleted.
type DeleteOutcome struct {
	Archived bool   `json:"archived"`
	Message  string `json:"message,omitempty"`
}

// ProviderCatalog manages the signed-in provider's services and working hours.
type ProviderCatalog interface {
	Services(ctx context.Context) ([]models.Service, error)
	CreateService(ctx context.Context, input models.ServiceInput) (*models.Service, error)
	DeleteService(ctx context.Context, id models.ID) (DeleteOutcome, error)
	Hours(ctx context.Context) ([]models.WorkingHours, error)
	SaveHours(ctx context.Context, hours []models.WorkingHours) ([]models.WorkingHours, error)
}
