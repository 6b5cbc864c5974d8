package statestore

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	state := []byte(`{"turn":2,"history":[{"role":"request","text":"用户请求: 推荐景点"}]}`)

	if err := s.Save("conv-1", state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("conv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(state) {
		t.Errorf("loaded %q, want %q", got, state)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("conv-1", []byte(`{"turn":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save("conv-1", []byte(`{"turn":2}`)); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err := s.Load("conv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"turn":2}` {
		t.Errorf("loaded %q after overwrite", got)
	}
}

func TestLoadUnknown(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Load("missing")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("Load(missing) = %q, want nil", got)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("conv-1", []byte(`{}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear("conv-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err := s.Load("conv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("state survived Clear: %q", got)
	}
	if err := s.Clear("conv-1"); err != nil {
		t.Errorf("Clear on missing conversation: %v", err)
	}
}
