package harvest

import (
	"errors"
	"testing"

	"github.com/newthinker/harvester/internal/core"
)

func TestRegistry_Build(t *testing.T) {
	r := NewRegistry()
	r.Register("funds", func() (Harvester, error) {
		return NewFunds("", &spyGetter{}, &memWriter{}, nil, testDeps()), nil
	})

	h, err := r.Build("funds")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Name() != "funds" {
		t.Errorf("expected name 'funds', got '%s'", h.Name())
	}

	again, err := r.Build("funds")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again == h {
		t.Error("expected a new harvester on every build")
	}
}

func TestRegistry_BuildUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Build("missing")
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestRegistry_BuildPropagatesFactoryError(t *testing.T) {
	r := NewRegistry()
	r.Register("comments", func() (Harvester, error) {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("comments.api_key required"))
	})

	if _, err := r.Build("comments"); !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected CONFIG_MISSING, got %v", err)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"funds", "financial", "comments"} {
		r.Register(name, func() (Harvester, error) { return nil, nil })
	}

	names := r.Names()
	want := []string{"comments", "financial", "funds"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}
