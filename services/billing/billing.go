package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"bookitgy/models"
	"bookitgy/services/api"
	"bookitgy/services/mutation"

	"go.uber.org/zap"
)

const (
	paidPrefix    = "paid:"
	suspendPrefix = "suspend:"
	markAllKey    = "paid:*"
)

// CycleMonth returns the cycle identifier the billing API expects: the first day of the month.
func CycleMonth(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d-01", year, int(month))
}

// CurrentCycle returns the cycle containing t.
func CurrentCycle(t time.Time) string {
	return CycleMonth(t.Year(), t.Month())
}

// Service is the admin billing console: rows of one cycle month and the mutations on them.
type Service struct {
	api    *api.Client
	coord  *mutation.Coordinator
	logger *zap.Logger

	mu    sync.RWMutex
	cycle string
	rows  []models.BillingRow
	// generation counts confirmed mutations. A load of the same cycle that saw it move is stale.
	generation uint64
}

func NewService(apiClient *api.Client, coord *mutation.Coordinator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	if coord == nil {
		coord = mutation.NewCoordinator(logger)
	}
	return &Service{api: apiClient, coord: coord, logger: logger}
}

// Load fetches the rows of cycleMonth and makes it the current cycle. The body may be a bare
// list or a list under "providers" or "data"; other shapes fail with api.ErrUnexpectedShape and
// leave no rows. Rows of the current cycle are kept when a mutation was confirmed while the
// request was in flight.
func (s *Service) Load(ctx context.Context, cycleMonth string) ([]models.BillingRow, error) {
	if cycleMonth == "" {
		cycleMonth = CurrentCycle(time.Now())
	}
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	raw, err := s.api.DoRaw(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/admin/billing",
		Query:  url.Values{"cycle_month": {cycleMonth}},
	})
	var rows []models.BillingRow
	if err == nil {
		rows, err = api.DecodeList[models.BillingRow](raw, "providers", "data")
	}

	s.mu.Lock()
	if err == nil && s.generation != gen && s.cycle == cycleMonth {
		current := copyRows(s.rows)
		s.mu.Unlock()
		s.logger.Debug("Discarding stale billing load", zap.String("cycle", cycleMonth))
		return current, nil
	}
	s.cycle = cycleMonth
	if err != nil {
		s.rows = nil
	} else {
		s.rows = rows
	}
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("billing: %w", err)
	}
	return copyRows(rows), nil
}

// Reload refetches the current cycle.
func (s *Service) Reload(ctx context.Context) error {
	_, err := s.Load(ctx, s.Cycle())
	return err
}

func (s *Service) Cycle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycle
}

func (s *Service) Rows() []models.BillingRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRows(s.rows)
}

// Pending reports whether a mutation on account is outstanding.
func (s *Service) Pending(account string) bool {
	return s.coord.InFlight(paidPrefix+account) ||
		s.coord.InFlight(suspendPrefix+account) ||
		s.coord.InFlight(markAllKey)
}

type paidResponse struct {
	IsPaid *bool      `json:"is_paid"`
	PaidAt *time.Time `json:"paid_at"`
}

// MarkPaid marks one account's bill as paid. The response's is_paid is trusted when present;
// otherwise the cycle is refetched.
func (s *Service) MarkPaid(ctx context.Context, account string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return missingAccount()
	}
	if s.coord.InFlight(markAllKey) {
		return mutation.ErrInFlight
	}
	cycle := s.Cycle()

	_, err := mutation.Run(ctx, s.coord, mutation.Mutation[paidResponse]{
		Key: paidPrefix + account,
		Send: func(ctx context.Context) (paidResponse, error) {
			var resp paidResponse
			err := s.decodeLenient(ctx, api.Request{
				Method: http.MethodPost,
				Path:   "/admin/billing/" + url.PathEscape(account) + "/mark-paid",
				JSON:   map[string]string{"cycle_month": cycle},
			}, &resp)
			return resp, err
		},
		Confirm: func(resp paidResponse) {
			s.updateRow(account, func(row *models.BillingRow) {
				row.IsPaid = true
				if resp.IsPaid != nil {
					row.IsPaid = *resp.IsPaid
				}
				if resp.PaidAt != nil {
					row.PaidAt = resp.PaidAt
				}
			})
		},
		Authoritative: func(resp paidResponse) bool { return resp.IsPaid != nil },
		Refetch:       s.Reload,
	})
	if err != nil {
		return err
	}
	s.logger.Info("Bill marked paid", zap.String("account", account), zap.String("cycle", cycle))
	return nil
}

// MarkAllPaid marks every bill of the current cycle as paid and refetches the rows. It holds a
// guard over the whole cycle: no per-account mutation may start while it runs.
func (s *Service) MarkAllPaid(ctx context.Context) error {
	for _, key := range s.coord.Keys() {
		if strings.HasPrefix(key, paidPrefix) || strings.HasPrefix(key, suspendPrefix) {
			return mutation.ErrInFlight
		}
	}
	cycle := s.Cycle()
	if cycle == "" {
		return &PreconditionError{Field: "cycle_month", Message: "load a billing cycle first"}
	}

	_, err := mutation.Run(ctx, s.coord, mutation.Mutation[json.RawMessage]{
		Key: markAllKey,
		Send: func(ctx context.Context) (json.RawMessage, error) {
			return s.api.DoRaw(ctx, api.Request{
				Method: http.MethodPost,
				Path:   "/admin/billing/mark-all-paid",
				JSON:   map[string]string{"cycle_month": cycle},
			})
		},
		Confirm: func(json.RawMessage) {
			s.mu.Lock()
			s.generation++
			s.mu.Unlock()
		},
		Refetch: s.Reload,
	})
	if err != nil {
		return err
	}
	s.logger.Info("All bills marked paid", zap.String("cycle", cycle))
	return nil
}

type suspensionResponse struct {
	IsSuspended *bool `json:"is_suspended"`
}

// ToggleSuspension sets the suspension of account to next and returns the resulting state.
// The response's is_suspended is trusted when present; otherwise the cycle is refetched.
func (s *Service) ToggleSuspension(ctx context.Context, account string, next bool) (bool, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return false, missingAccount()
	}
	if s.coord.InFlight(markAllKey) {
		return false, mutation.ErrInFlight
	}

	out, err := mutation.Run(ctx, s.coord, mutation.Mutation[suspensionResponse]{
		Key: suspendPrefix + account,
		Send: func(ctx context.Context) (suspensionResponse, error) {
			var resp suspensionResponse
			err := s.decodeLenient(ctx, api.Request{
				Method: http.MethodPost,
				Path:   "/admin/providers/suspension",
				JSON:   map[string]any{"account_number": account, "is_suspended": next},
			}, &resp)
			return resp, err
		},
		Confirm: func(resp suspensionResponse) {
			state := next
			if resp.IsSuspended != nil {
				state = *resp.IsSuspended
			}
			s.updateRow(account, func(row *models.BillingRow) { row.IsSuspended = state })
		},
		Authoritative: func(resp suspensionResponse) bool { return resp.IsSuspended != nil },
		Refetch:       s.Reload,
	})
	if err != nil {
		return false, err
	}

	state := next
	if out.Result.IsSuspended != nil {
		state = *out.Result.IsSuspended
	}
	s.logger.Info("Provider suspension updated", zap.String("account", account), zap.Bool("suspended", state))
	return state, nil
}

// AddCredit applies a promotional bill credit in GYD to account.
func (s *Service) AddCredit(ctx context.Context, account string, credit float64) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return missingAccount()
	}
	if credit <= 0 {
		return &PreconditionError{Field: "credit_gyd", Message: "credit must be a positive amount"}
	}

	_, err := mutation.Run(ctx, s.coord, mutation.Mutation[json.RawMessage]{
		Key: "promotion:" + account,
		Send: func(ctx context.Context) (json.RawMessage, error) {
			return s.api.DoRaw(ctx, api.Request{
				Method: http.MethodPut,
				Path:   "/admin/promotions/" + url.PathEscape(account),
				JSON:   map[string]float64{"credit_gyd": credit},
			})
		},
	})
	if err != nil {
		return err
	}
	s.logger.Info("Bill credit applied", zap.String("account", account), zap.Float64("credit", credit))
	return nil
}

// decodeLenient is Do for endpoints whose success body is optional or free-form. A body that
// does not decode into out is ignored; the caller then treats the response as non-authoritative.
func (s *Service) decodeLenient(ctx context.Context, req api.Request, out any) error {
	raw, err := s.api.DoRaw(ctx, req)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			s.logger.Debug("Ignoring undecodable response body", zap.String("path", req.Path), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) updateRow(account string, fn func(row *models.BillingRow)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	for i := range s.rows {
		if s.rows[i].AccountNumber == account {
			fn(&s.rows[i])
		}
	}
}

func copyRows(rows []models.BillingRow) []models.BillingRow {
	if rows == nil {
		return []models.BillingRow{}
	}
	return append([]models.BillingRow(nil), rows...)
}
