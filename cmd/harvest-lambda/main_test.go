package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/harvester/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_RequiresHarvester(t *testing.T) {
	t.Setenv("HARVESTER", "")

	_, err := newHandler(context.Background())
	assert.ErrorIs(t, err, core.ErrConfigMissing)
}

func TestHandler_FundsInvocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"schemeCode": 100027, "schemeName": "Fund"}]`))
	}))
	defer server.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
storage:
  type: localfs
  path: `+filepath.Join(dir, "data")+`
funds:
  url: `+server.URL+`
`), 0644))

	t.Setenv("HARVESTER", "funds")
	t.Setenv("HARVEST_CONFIG", cfgPath)

	h, err := newHandler(context.Background())
	require.NoError(t, err)

	status, err := h.Handle(context.Background(), core.Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status.StatusCode)
	assert.Equal(t, "1 records successfully uploaded", status.Body)

	_, err = os.Stat(filepath.Join(dir, "data", "mf_list_output", "mutual_fund_list.json"))
	assert.NoError(t, err)
}

func TestHandler_EnvironmentOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"schemeCode": 100027, "schemeName": "Fund"}]`))
	}))
	defer server.Close()

	data := filepath.Join(t.TempDir(), "data")
	t.Setenv("HARVESTER", "funds")
	t.Setenv("HARVEST_CONFIG", "")
	t.Setenv("STORAGE_PATH", data)
	t.Setenv("FUNDS_URL", server.URL)
	t.Setenv("LOG_LEVEL", "warn")

	h, err := newHandler(context.Background())
	require.NoError(t, err)

	status, err := h.Handle(context.Background(), core.Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status.StatusCode)

	_, err = os.Stat(filepath.Join(data, "mf_list_output", "mutual_fund_list.json"))
	assert.NoError(t, err)
}

func TestNewHandler_InvalidLogLevel(t *testing.T) {
	t.Setenv("HARVESTER", "funds")
	t.Setenv("HARVEST_CONFIG", "")
	t.Setenv("STORAGE_PATH", t.TempDir())
	t.Setenv("LOG_LEVEL", "loud")

	_, err := newHandler(context.Background())
	assert.Error(t, err)
}

func TestHandler_UnknownHarvesterIsBadRequest(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  path: "+filepath.Join(dir, "data")+"\n"), 0644))

	t.Setenv("HARVESTER", "weather")
	t.Setenv("HARVEST_CONFIG", cfgPath)

	h, err := newHandler(context.Background())
	require.NoError(t, err)

	status, err := h.Handle(context.Background(), core.Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status.StatusCode)
}
