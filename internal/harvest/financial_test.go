package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/harvester/internal/collector"
	"github.com/newthinker/harvester/internal/core"
	"github.com/newthinker/harvester/internal/normalize"
	"github.com/newthinker/harvester/internal/ratelimit"
	"github.com/newthinker/harvester/internal/sink"
	"github.com/newthinker/harvester/internal/storage/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// overviewOnly expands to exactly three parameter sets, one per symbol
func overviewOnly() RunConfig {
	cfg := testRunConfig()
	cfg.Schedules = map[string][]string{"weekly": {"OVERVIEW"}}
	return cfg
}

func TestFinancial_UnknownScheduleMakesNoCalls(t *testing.T) {
	getter := &spyGetter{}
	writer := &memWriter{}
	h := NewFinancial(testRunConfig(), getter, writer, testDeps())

	report, err := h.Run(context.Background(), core.Request{Schedule: "hourly"})

	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, core.ErrUnknownSchedule)
	assert.Equal(t, 0, getter.count())
	assert.Empty(t, writer.records)
}

func TestFinancial_MissingTemplateMakesNoCalls(t *testing.T) {
	cfg := testRunConfig()
	cfg.Schedules["weekly"] = []string{"OVERVIEW", "CPI"}
	getter := &spyGetter{}

	_, err := NewFinancial(cfg, getter, &memWriter{}, testDeps()).Run(context.Background(), core.Request{})

	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
	assert.Equal(t, 0, getter.count())
}

func TestFinancial_WritesOneRecordPerSet(t *testing.T) {
	getter := &spyGetter{}
	writer := &memWriter{}
	h := NewFinancial(testRunConfig(), getter, writer, testDeps())

	report, err := h.Run(context.Background(), core.Request{Schedule: "weekly"})
	require.NoError(t, err)

	assert.Equal(t, 4, getter.count())
	assert.Equal(t, 4, report.Succeeded())
	assert.Empty(t, report.Failures)
	assert.Equal(t, "run-test", report.RunID)
	assert.Equal(t, []string{
		"financial_data/AAPL/OVERVIEWAAPL_2024-03-15T04:30:00Z_.json",
		"financial_data/IBM/OVERVIEWIBM_2024-03-15T04:30:00Z_.json",
		"financial_data/INFY/OVERVIEWINFY_2024-03-15T04:30:00Z_.json",
		"financial_data/economic_indicators/REAL_GDP_2024-03-15T04:30:00Z_.json",
	}, report.Keys)

	assert.Equal(t, "demo", getter.calls[0].params["apikey"])
	assert.Equal(t, "AAPL", getter.calls[0].params["symbol"])
	assert.Equal(t, http.StatusOK, core.StatusFor(report, nil).StatusCode)
}

func TestFinancial_FailureIsolation(t *testing.T) {
	getter := &spyGetter{responses: []func(call) (json.RawMessage, error){
		ok(`{"Symbol": "AAPL"}`),
		status(http.StatusServiceUnavailable),
		ok(`{"Symbol": "INFY"}`),
	}}
	writer := &memWriter{}
	h := NewFinancial(overviewOnly(), getter, writer, testDeps())

	report, err := h.Run(context.Background(), core.Request{Schedule: "weekly"})
	require.NoError(t, err)

	assert.Equal(t, 3, getter.count(), "set #3 must still be fetched")
	assert.Len(t, writer.records, 2)
	assert.Equal(t, 2, report.Succeeded())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "OVERVIEW:IBM", report.Failures[0].ID)
	assert.Equal(t, core.KindFetch, report.Failures[0].Kind)
	assert.Equal(t, http.StatusMultiStatus, core.StatusFor(report, nil).StatusCode)
}

func TestFinancial_WriteFailureDoesNotAbortSiblings(t *testing.T) {
	writer := &memWriter{failOn: map[string]error{
		"financial_data/AAPL/OVERVIEWAAPL_2024-03-15T04:30:00Z_.json": core.WrapError(core.ErrWriteCredentials, errors.New("no creds")),
	}}
	h := NewFinancial(overviewOnly(), &spyGetter{}, writer, testDeps())

	report, err := h.Run(context.Background(), core.Request{})
	require.NoError(t, err)

	assert.Len(t, writer.records, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, core.KindWrite, report.Failures[0].Kind)
}

func TestFinancial_CancelStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	getter := &spyGetter{responses: []func(call) (json.RawMessage, error){
		func(call) (json.RawMessage, error) {
			cancel()
			return json.RawMessage(`{}`), nil
		},
	}}
	h := NewFinancial(overviewOnly(), getter, &memWriter{}, testDeps())

	report, err := h.Run(ctx, core.Request{})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 1, getter.count())
	assert.Equal(t, 1, report.Succeeded())
}

func TestFinancial_EndToEndWithThrottleAndRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") == "IBM" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"Error Message": "Invalid API call"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"function": "` + q.Get("function") + `", "symbol": "` + q.Get("symbol") + `", "data": [1, 2, 3]}`))
	}))
	defer server.Close()

	pauses := 0
	throttle := ratelimit.New(5, time.Minute, ratelimit.WithSleeper(
		ratelimit.SleeperFunc(func(ctx context.Context, d time.Duration) error {
			pauses++
			return nil
		}),
	))
	fetcher := collector.NewFetcher(collector.Config{Provider: "alphavantage", BaseURL: server.URL, Timeout: time.Second}, throttle, nil, nil)

	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	writer := sink.NewWriter(store, nil, nil)

	cfg := testRunConfig()
	h := NewFinancial(cfg, fetcher, writer, testDeps())

	// quarterly expands to 7 sets: pauses before calls 0 and 5
	report, err := h.Run(context.Background(), core.Request{Schedule: "quarterly"})
	require.NoError(t, err)

	assert.Equal(t, 7, fetcher.Calls())
	assert.Equal(t, 2, pauses)
	assert.Equal(t, 5, report.Succeeded())
	assert.Equal(t, []string{"INCOME_STATEMENT:IBM", "OVERVIEW:IBM"}, report.FailedIDs())

	// What was stored equals what the normalizer produced for the same body
	key := "financial_data/AAPL/OVERVIEWAAPL_2024-03-15T04:30:00Z_.json"
	stored, err := writer.ReadBack(context.Background(), key, core.FormatJSON)
	require.NoError(t, err)
	want, err := normalize.Passthrough(key, json.RawMessage(`{"function": "OVERVIEW", "symbol": "AAPL", "data": [1, 2, 3]}`))
	require.NoError(t, err)
	assert.Equal(t, want, stored)
}
