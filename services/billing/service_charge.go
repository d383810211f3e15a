package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"bookitgy/models"
	"bookitgy/services/api"
	"bookitgy/services/storage"
	"bookitgy/utils"

	"go.uber.org/zap"
)

// NormalizeServiceCharge clamps pct to 0..100. NaN becomes 0.
func NormalizeServiceCharge(pct float64) float64 {
	if math.IsNaN(pct) {
		return 0
	}
	return math.Max(0, math.Min(100, pct))
}

type serviceChargeBody struct {
	Percentage *float64 `json:"service_charge_percentage"`
	Percent    *float64 `json:"service_charge_percent"`
	Rate       *float64 `json:"service_charge_rate"` // fraction, 0.1 = 10%
}

func (b serviceChargeBody) percentage() float64 {
	switch {
	case b.Percentage != nil:
		return *b.Percentage
	case b.Percent != nil:
		return *b.Percent
	case b.Rate != nil:
		return *b.Rate * 100
	}
	return 0
}

// ServiceChargeService reads and writes the platform service charge. The last known value is
// cached locally and served, flagged stale, when the live fetch fails.
type ServiceChargeService struct {
	api    *api.Client
	cache  storage.KeyValueStore
	logger *zap.Logger
}

func NewServiceChargeService(apiClient *api.Client, cache storage.KeyValueStore, logger *zap.Logger) *ServiceChargeService {
	if logger == nil {
		logger = zap.L()
	}
	return &ServiceChargeService{api: apiClient, cache: cache, logger: logger}
}

// Get returns the live service charge. When the fetch fails the cached value (or the default)
// is returned with Stale set, together with the fetch error.
func (s *ServiceChargeService) Get(ctx context.Context) (models.ServiceCharge, error) {
	var body serviceChargeBody
	err := s.api.Do(ctx, api.Request{Method: http.MethodGet, Path: "/admin/service-charge"}, &body)
	if err != nil {
		s.logger.Warn("Falling back to cached service charge", zap.Error(err))
		return models.ServiceCharge{Percentage: s.cached(ctx), Stale: true}, err
	}
	pct := NormalizeServiceCharge(body.percentage())
	s.store(ctx, pct)
	return models.ServiceCharge{Percentage: pct}, nil
}

// Save normalizes pct, writes it and returns the value the server reports.
func (s *ServiceChargeService) Save(ctx context.Context, pct float64) (models.ServiceCharge, error) {
	normalized := NormalizeServiceCharge(pct)
	var body serviceChargeBody
	err := s.api.Do(ctx, api.Request{
		Method: http.MethodPut,
		Path:   "/admin/service-charge",
		JSON:   map[string]float64{"service_charge_percentage": normalized},
	}, &body)
	if err != nil {
		return models.ServiceCharge{}, err
	}
	saved := normalized
	if body.Percentage != nil || body.Percent != nil || body.Rate != nil {
		saved = NormalizeServiceCharge(body.percentage())
	}
	s.store(ctx, saved)
	s.logger.Info("Service charge saved", zap.Float64("percentage", saved))
	return models.ServiceCharge{Percentage: saved}, nil
}

func (s *ServiceChargeService) cached(ctx context.Context) float64 {
	if s.cache == nil {
		return utils.DefaultServiceCharge
	}
	raw, err := s.cache.Get(ctx, utils.ServiceChargeKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Failed to read cached service charge", zap.Error(err))
		}
		return utils.DefaultServiceCharge
	}
	pct, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return utils.DefaultServiceCharge
	}
	return NormalizeServiceCharge(pct)
}

func (s *ServiceChargeService) store(ctx context.Context, pct float64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, utils.ServiceChargeKey, strconv.FormatFloat(pct, 'f', -1, 64)); err != nil {
		s.logger.Warn("Failed to cache service charge", zap.Error(fmt.Errorf("cache: %w", err)))
	}
}
