package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bookitgy/models"
	"bookitgy/services/api"

	"go.uber.org/zap"
)

// Client reads the public provider directory.
type Client struct {
	api    *api.Client
	logger *zap.Logger
}

func NewClient(apiClient *api.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.L()
	}
	return &Client{api: apiClient, logger: logger}
}

func (c *Client) Providers(ctx context.Context) ([]models.Provider, error) {
	raw, err := c.api.DoRaw(ctx, api.Request{Method: http.MethodGet, Path: "/providers"})
	if err != nil {
		return nil, err
	}
	providers, err := parseProviders(raw)
	if err != nil {
		return nil, fmt.Errorf("providers: %w", err)
	}
	return providers, nil
}

func (c *Client) ProviderServices(ctx context.Context, providerID models.ID) ([]models.Service, error) {
	if providerID == "" {
		return nil, errors.New("provider id is required")
	}
	raw, err := c.api.DoRaw(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/providers/" + url.PathEscape(providerID.String()) + "/services",
	})
	if err != nil {
		return nil, err
	}
	services, err := parseServices(raw, providerID)
	if err != nil {
		return nil, fmt.Errorf("provider services: %w", err)
	}
	return services, nil
}

// Availability fetches the open slots of a service for the next days.
func (c *Client) Availability(ctx context.Context, providerID, serviceID models.ID, days int) ([]models.AvailabilityDay, error) {
	raw, err := c.api.DoRaw(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/providers/" + url.PathEscape(providerID.String()) + "/availability",
		Query: url.Values{
			"service_id": {serviceID.String()},
			"days":       {strconv.Itoa(days)},
		},
	})
	if err != nil {
		return nil, err
	}
	result, err := parseAvailability(raw)
	if err != nil {
		return nil, fmt.Errorf("availability: %w", err)
	}
	c.logger.Debug("Availability fetched",
		zap.String("providerID", providerID.String()),
		zap.String("serviceID", serviceID.String()),
		zap.Int("days", len(result)),
	)
	return result, nil
}

// ProviderByUsername looks up a public provider profile. The record may be wrapped in
// {"provider": ...}.
func (c *Client) ProviderByUsername(ctx context.Context, username string) (*models.Provider, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, errors.New("username is required")
	}
	raw, err := c.api.DoRaw(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/public/providers/by-username/" + url.PathEscape(username),
		NoAuth: true,
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Provider *wireProvider `json:"provider"`
	}
	var row wireProvider
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Provider != nil {
		row = *envelope.Provider
	} else if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("provider profile: %w: %v", api.ErrUnexpectedShape, err)
	}
	p := row.normalize()
	if p.ID == "" {
		return nil, fmt.Errorf("provider profile: %w: missing id", api.ErrUnexpectedShape)
	}
	return &p, nil
}
