package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-cli/internal/config"
	"github.com/sells-group/radar-cli/internal/model"
)

func testMonitoringConfig() config.MonitoringConfig {
	return config.MonitoringConfig{
		FailureRateThreshold: 0.2,
		ErrorRateThreshold:   0.1,
		LookbackWindowHours:  24,
	}
}

func TestAlerter_Evaluate(t *testing.T) {
	tests := []struct {
		name  string
		snap  RunSnapshot
		types []AlertType
	}{
		{
			name: "healthy",
			snap: RunSnapshot{Complete: 10, Failed: 1, FailRate: 1.0 / 11, Outcomes: model.Tally{Inserted: 100, Errors: 2}, ErrorRate: 2.0 / 102},
		},
		{
			name:  "failure rate",
			snap:  RunSnapshot{Complete: 3, Failed: 3, FailRate: 0.5},
			types: []AlertType{AlertRunFailureRate},
		},
		{
			name: "failure rate below sample size",
			snap: RunSnapshot{Complete: 1, Failed: 3, FailRate: 0.75},
		},
		{
			name:  "reconcile errors",
			snap:  RunSnapshot{Complete: 2, Outcomes: model.Tally{Inserted: 15, Errors: 5}, ErrorRate: 0.25},
			types: []AlertType{AlertReconcileErrors},
		},
		{
			name: "reconcile errors below sample size",
			snap: RunSnapshot{Complete: 1, Outcomes: model.Tally{Inserted: 5, Errors: 5}, ErrorRate: 0.5},
		},
		{
			name:  "both",
			snap:  RunSnapshot{Complete: 4, Failed: 4, FailRate: 0.5, Outcomes: model.Tally{Inserted: 10, Errors: 10}, ErrorRate: 0.5},
			types: []AlertType{AlertRunFailureRate, AlertReconcileErrors},
		},
	}
	a := NewAlerter(testMonitoringConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := tt.snap
			snap.LookbackHours = 24
			alerts := a.Evaluate(&snap)
			var got []AlertType
			for _, al := range alerts {
				got = append(got, al.Type)
			}
			assert.Equal(t, tt.types, got)
		})
	}
}

func TestAlerter_Evaluate_Message(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	alerts := a.Evaluate(&RunSnapshot{Complete: 6, Failed: 4, FailRate: 0.4, LookbackHours: 24})
	require.Len(t, alerts, 1)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "40.0%")
	assert.Contains(t, alerts[0].Message, "4 failed / 10 finished in last 24h")
}

func TestAlerter_ErrorRateDisabled(t *testing.T) {
	cfg := testMonitoringConfig()
	cfg.ErrorRateThreshold = 0
	a := NewAlerter(cfg)
	alerts := a.Evaluate(&RunSnapshot{Outcomes: model.Tally{Errors: 50}, ErrorRate: 1})
	assert.Empty(t, alerts)
}

func TestAlerter_Notify(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body webhookPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "radar", body.Service)
		assert.Len(t, body.Alerts, 2)
		assert.Equal(t, "[high] runs failing\n[medium] ledger errors", body.Text)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	err := NewAlerter(cfg).Notify(context.Background(), []Alert{
		{Type: AlertRunFailureRate, Severity: "high", Message: "runs failing"},
		{Type: AlertReconcileErrors, Severity: "medium", Message: "ledger errors"},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), received.Load())
}

func TestAlerter_Notify_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	err := NewAlerter(cfg).Notify(context.Background(), []Alert{{Type: AlertReconcileErrors}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestAlerter_Notify_Noop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("webhook should not be called")
	}))
	defer srv.Close()

	require.NoError(t, NewAlerter(testMonitoringConfig()).Notify(context.Background(), []Alert{{Type: AlertRunFailureRate}}))

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	require.NoError(t, NewAlerter(cfg).Notify(context.Background(), nil))
}
