package harvest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/newthinker/harvester/internal/core"
)

var fixedStart = time.Date(2024, 3, 15, 4, 30, 0, 0, time.UTC)

func testDeps() Deps {
	return Deps{
		Clock: func() time.Time { return fixedStart },
		NewID: func() string { return "run-test" },
	}
}

type call struct {
	path   string
	params map[string]string
}

// spyGetter answers calls in order from responses and records them
type spyGetter struct {
	mu        sync.Mutex
	calls     []call
	responses []func(call) (json.RawMessage, error)
}

func (s *spyGetter) Fetch(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := call{path: path, params: params}
	idx := len(s.calls)
	s.calls = append(s.calls, c)
	if idx < len(s.responses) {
		return s.responses[idx](c)
	}
	return json.RawMessage(`{}`), nil
}

func (s *spyGetter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func ok(body string) func(call) (json.RawMessage, error) {
	return func(call) (json.RawMessage, error) { return json.RawMessage(body), nil }
}

func status(code int) func(call) (json.RawMessage, error) {
	return func(call) (json.RawMessage, error) { return nil, core.StatusError(code, "") }
}

// memWriter keeps written records in order
type memWriter struct {
	records []core.Record
	failOn  map[string]error
}

func (m *memWriter) Write(ctx context.Context, rec core.Record) error {
	if err, bad := m.failOn[rec.Key]; bad {
		return err
	}
	m.records = append(m.records, rec)
	return nil
}
