package models

import (
	"strings"
	"testing"
)

func TestSectionDataMerge(t *testing.T) {
	data := SectionData{}
	data.Merge(map[string]string{"a": "1"})
	data.Merge(map[string]string{"a": "2", "b": "3"})

	if data["a"] != "2" {
		t.Errorf("expected last write to win for field a, got %q", data["a"])
	}
	if data["b"] != "3" {
		t.Errorf("expected field b to be 3, got %q", data["b"])
	}
	if len(data) != 2 {
		t.Errorf("expected 2 fields, got %d", len(data))
	}
}

func TestSectionDataMergeLeavesUntouchedFields(t *testing.T) {
	data := SectionData{"city": "Recife", "state": "PE"}
	data.Merge(map[string]string{"city": "Olinda"})

	if data["city"] != "Olinda" {
		t.Errorf("expected city overwritten, got %q", data["city"])
	}
	if data["state"] != "PE" {
		t.Errorf("expected state untouched, got %q", data["state"])
	}
}

func TestSectionDataClone(t *testing.T) {
	data := SectionData{"x": "42"}
	clone := data.Clone()
	clone["x"] = "43"
	if data["x"] != "42" {
		t.Error("mutating clone must not affect original")
	}
}

func TestNewMessage(t *testing.T) {
	m := NewMessage(RoleUser, "hello", "personal-info")
	if m.ID == "" {
		t.Error("expected generated message ID")
	}
	if m.Role != RoleUser || m.Content != "hello" || m.SectionID != "personal-info" {
		t.Errorf("unexpected message fields: %+v", m)
	}
	if m.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "supersecret", Document: "12345678901"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"missing name", RegisterRequest{Email: "a@b.c", Password: "supersecret", Document: "1"}, ErrMissingName},
		{"missing email", RegisterRequest{Name: "Ana", Password: "supersecret", Document: "1"}, ErrMissingEmail},
		{"missing password", RegisterRequest{Name: "Ana", Email: "a@b.c", Document: "1"}, ErrMissingPassword},
		{"short password", RegisterRequest{Name: "Ana", Email: "a@b.c", Password: "short", Document: "1"}, ErrPasswordTooShort},
		{"missing document", RegisterRequest{Name: "Ana", Email: "a@b.c", Password: "supersecret"}, ErrMissingDocument},
	}
	for _, tc := range cases {
		if err := tc.req.Validate(); err != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestChatRequestValidate(t *testing.T) {
	if err := (&ChatRequest{Message: "  "}).Validate(); err != ErrEmptyMessage {
		t.Errorf("expected ErrEmptyMessage for blank input, got %v", err)
	}
	long := ChatRequest{Message: strings.Repeat("x", MaxMessageLength+1)}
	if err := long.Validate(); err != ErrMessageTooLong {
		t.Errorf("expected ErrMessageTooLong, got %v", err)
	}
	if err := (&ChatRequest{Message: "42"}).Validate(); err != nil {
		t.Errorf("valid message rejected: %v", err)
	}
}
