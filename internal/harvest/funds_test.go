package harvest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/harvester/internal/collector"
	"github.com/newthinker/harvester/internal/core"
	"github.com/newthinker/harvester/internal/sink"
	"github.com/newthinker/harvester/internal/storage/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fundList = `[
  {"schemeCode": 100027, "schemeName": "Grindlays Super Saver Income Fund-GSSIF-Half Yearly Dividend"},
  {"schemeCode": 100028, "schemeName": "Grindlays Super Saver Income Fund-GSSIF-Quaterly Dividend"},
  {"schemeCode": 100029, "schemeName": "Grindlays Super Saver Income Fund-GSSIF-Growth"}
]`

func TestFunds_WritesFixedKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mf", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fundList))
	}))
	defer server.Close()

	fetcher := collector.NewFetcher(collector.Config{Provider: "mfapi", BaseURL: server.URL + "/mf", Timeout: time.Second}, nil, nil, nil)
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	writer := sink.NewWriter(store, nil, nil)

	report, err := NewFunds("", fetcher, writer, nil, testDeps()).Run(context.Background(), core.Request{})
	require.NoError(t, err)

	assert.Equal(t, []string{DefaultFundsKey}, report.Keys)
	paths, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultFundsKey}, paths)

	data, err := store.Read(context.Background(), DefaultFundsKey)
	require.NoError(t, err)
	assert.JSONEq(t, fundList, string(data))

	var funds []map[string]any
	require.NoError(t, json.Unmarshal(data, &funds))
	assert.Len(t, funds, 3)
}

func TestFunds_StagesBeforeUpload(t *testing.T) {
	staging, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	writer := &memWriter{}
	getter := &spyGetter{responses: []func(call) (json.RawMessage, error){ok(fundList)}}

	report, err := NewFunds("", getter, writer, staging, testDeps()).Run(context.Background(), core.Request{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded())
	require.Len(t, writer.records, 1)
	assert.JSONEq(t, fundList, string(writer.records[0].JSON))

	// staged file is removed once uploaded
	left, err := staging.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestFunds_FetchFailureWritesNothing(t *testing.T) {
	writer := &memWriter{}
	getter := &spyGetter{responses: []func(call) (json.RawMessage, error){status(http.StatusBadGateway)}}

	report, err := NewFunds("custom/funds.json", getter, writer, nil, testDeps()).Run(context.Background(), core.Request{})
	require.NoError(t, err)

	assert.Empty(t, writer.records)
	assert.Equal(t, []string{"custom/funds.json"}, report.FailedIDs())
	assert.Equal(t, http.StatusInternalServerError, core.StatusFor(report, nil).StatusCode)
}
