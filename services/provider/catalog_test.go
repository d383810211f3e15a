package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookitgy/models"
	"bookitgy/services/api"
)

func newTestCatalog(t *testing.T, h http.HandlerFunc) *DefaultProviderCatalog {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	apiClient, err := api.NewClient(api.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewProviderCatalog(apiClient, nil)
}

func TestDeleteServiceArchiveIsSoftSuccess(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		archived bool
		wantErr  bool
	}{
		{"plain delete", http.StatusNoContent, "", false, false},
		{"error mentions bookings", http.StatusBadRequest, `{"detail":"Service has existing bookings"}`, true, false},
		{"success mentions archive", http.StatusOK, `{"message":"Service archived"}`, true, false},
		{"real failure", http.StatusInternalServerError, `{"detail":"db down"}`, false, true},
	}
	for _, tc := range cases {
		c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/providers/me/services/5" {
				t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		})
		out, err := c.DeleteService(context.Background(), "5")
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: err = %v", tc.name, err)
		}
		if out.Archived != tc.archived {
			t.Fatalf("%s: Archived = %v, want %v", tc.name, out.Archived, tc.archived)
		}
	}
}

func TestCreateServiceDefaultsAndValidation(t *testing.T) {
	c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		var in models.ServiceInput
		json.NewDecoder(r.Body).Decode(&in)
		if in.DurationMinutes != 30 || in.Name != "Cut" {
			t.Errorf("payload = %+v", in)
		}
		w.Write([]byte(`{"id":3,"provider_id":1,"name":"Cut","duration_minutes":30,"price_gyd":2000}`))
	})
	ctx := context.Background()

	svc, err := c.CreateService(ctx, models.ServiceInput{Name: " Cut ", Price: 2000})
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	if svc.ID != "3" || svc.Price != 2000 {
		t.Fatalf("service = %+v", svc)
	}

	var ve *ValidationError
	if _, err := c.CreateService(ctx, models.ServiceInput{Name: "  "}); !errors.As(err, &ve) || ve.Field != "name" {
		t.Fatalf("empty name err = %v", err)
	}
	if _, err := c.CreateService(ctx, models.ServiceInput{Name: "x", Price: -1}); !errors.As(err, &ve) || ve.Field != "price_gyd" {
		t.Fatalf("negative price err = %v", err)
	}
}

func TestHoursDefaultsAndSaveConversion(t *testing.T) {
	c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[{"weekday":2,"is_closed":false,"start_time":"13:30","end_time":"18:00"},{"weekday":0,"is_closed":true}]`))
		case http.MethodPost:
			var payload []map[string]any
			json.NewDecoder(r.Body).Decode(&payload)
			if len(payload) != 1 || payload[0]["start_time"] != "09:30" || payload[0]["end_time"] != "22:00" {
				t.Errorf("payload = %v", payload)
			}
			w.Write([]byte(`[{"weekday":0,"is_closed":false,"start_time":"09:30","end_time":"22:00"}]`))
		}
	})
	ctx := context.Background()

	hours, err := c.Hours(ctx)
	if err != nil {
		t.Fatalf("Hours: %v", err)
	}
	if hours[0].Weekday != 0 || hours[0].StartTime != "09:00" || hours[0].EndLocal != "5:00 PM" {
		t.Fatalf("hours[0] = %+v", hours[0])
	}
	if hours[1].StartLocal != "1:30 PM" {
		t.Fatalf("hours[1] = %+v", hours[1])
	}

	saved, err := c.SaveHours(ctx, []models.WorkingHours{{Weekday: 0, StartLocal: "930", EndLocal: "10 pm"}})
	if err != nil {
		t.Fatalf("SaveHours: %v", err)
	}
	if saved[0].StartLocal != "9:30 AM" {
		t.Fatalf("saved = %+v", saved)
	}

	var ve *ValidationError
	if _, err := c.SaveHours(ctx, []models.WorkingHours{{Weekday: 1, StartLocal: "noon", EndLocal: "5 PM"}}); !errors.As(err, &ve) {
		t.Fatalf("invalid time err = %v", err)
	}
}
