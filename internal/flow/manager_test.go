package flow

import "testing"

func TestSessionManagerLifecycle(t *testing.T) {
	m := NewSessionManager()

	if got := m.Get("prov-1"); got != nil {
		t.Fatalf("expected no session initially, got %+v", got)
	}

	first := &Session{providerID: "prov-1"}
	m.Start(first)
	if got := m.Get("prov-1"); got != first {
		t.Error("expected started session to be retrievable")
	}

	replacement := &Session{providerID: "prov-1"}
	m.Start(replacement)
	if got := m.Get("prov-1"); got != replacement {
		t.Error("expected restart to replace the previous session")
	}

	m.End("prov-1")
	if got := m.Get("prov-1"); got != nil {
		t.Error("expected session gone after End")
	}
	m.End("prov-1") // idempotent
}
