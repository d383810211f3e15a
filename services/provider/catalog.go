package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"bookitgy/models"
	"bookitgy/services/api"

	"go.uber.org/zap"
)

const defaultDurationMinutes = 30

// DefaultProviderCatalog implements ProviderCatalog over the /providers/me endpoints.
type DefaultProviderCatalog struct {
	api    *api.Client
	logger *zap.Logger
}

func NewProviderCatalog(apiClient *api.Client, logger *zap.Logger) *DefaultProviderCatalog {
	if logger == nil {
		logger = zap.L()
	}
	return &DefaultProviderCatalog{api: apiClient, logger: logger}
}

func (c *DefaultProviderCatalog) Services(ctx context.Context) ([]models.Service, error) {
	raw, err := c.api.DoRaw(ctx, api.Request{Method: http.MethodGet, Path: "/providers/me/services"})
	if err != nil {
		return nil, err
	}
	services, err := api.DecodeList[models.Service](raw, "services", "data")
	if err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}
	return services, nil
}

// CreateService validates and submits a new service. A zero duration defaults to 30 minutes.
func (c *DefaultProviderCatalog) CreateService(ctx context.Context, input models.ServiceInput) (*models.Service, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if input.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if input.DurationMinutes == 0 {
		input.DurationMinutes = defaultDurationMinutes
	}
	if input.DurationMinutes < 0 {
		return nil, &ValidationError{Field: "duration_minutes", Message: "must be positive"}
	}
	if input.Price < 0 {
		return nil, &ValidationError{Field: "price_gyd", Message: "must not be negative"}
	}

	var created models.Service
	if err := c.api.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/providers/me/services",
		JSON:   input,
	}, &created); err != nil {
		return nil, err
	}
	c.logger.Info("Service created", zap.String("serviceID", created.ID.String()), zap.String("name", input.Name))
	return &created, nil
}

// DeleteService deletes a service. When the server signals that bookings reference it, by
// error or by success text, the outcome is an archive and no error is returned.
func (c *DefaultProviderCatalog) DeleteService(ctx context.Context, id models.ID) (DeleteOutcome, error) {
	if id == "" {
		return DeleteOutcome{}, &ValidationError{Field: "id", Message: "is required"}
	}
	raw, err := c.api.DoRaw(ctx, api.Request{
		Method: http.MethodDelete,
		Path:   "/providers/me/services/" + url.PathEscape(id.String()),
	})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && mentionsArchive(apiErr.Detail+" "+string(apiErr.Body)) {
			c.logger.Info("Service archived instead of deleted", zap.String("serviceID", id.String()))
			return DeleteOutcome{Archived: true, Message: archiveMessage(apiErr.Detail)}, nil
		}
		return DeleteOutcome{}, err
	}
	if mentionsArchive(string(raw)) {
		c.logger.Info("Service archived instead of deleted", zap.String("serviceID", id.String()))
		return DeleteOutcome{Archived: true, Message: archiveMessage("")}, nil
	}
	c.logger.Info("Service deleted", zap.String("serviceID", id.String()))
	return DeleteOutcome{}, nil
}

func mentionsArchive(text string) bool {
	text = strings.ToLower(text)
	return strings.Contains(text, "booking") || strings.Contains(text, "archiv")
}

func archiveMessage(detail string) string {
	if detail != "" {
		return detail
	}
	return "Service has bookings and was archived instead of deleted."
}
