package pipeline

import "testing"

func TestNewPostgresService_BoundsEveryCall(t *testing.T) {
	svc := NewPostgresService()

	if svc.PingTimeout <= 0 {
		t.Error("expected a default ping timeout")
	}
	if svc.IntrospectTimeout <= 0 {
		t.Error("expected a default introspect timeout")
	}
	if svc.ApplyTimeout <= 0 {
		t.Error("expected a default apply timeout")
	}
}
