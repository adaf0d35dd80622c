package events

import (
	"context"
	"testing"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix, subject, want string
	}{
		{"auth", TokenRevoked, "auth.token.revoked"},
		{"", SessionIssued, "session.issued"},
	}
	for _, tt := range tests {
		if got := Subject(tt.prefix, tt.subject); got != tt.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tt.prefix, tt.subject, got, tt.want)
		}
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), SessionIssued, SessionIssuedEvent{UserID: 1}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
