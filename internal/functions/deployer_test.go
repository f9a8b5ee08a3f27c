package functions

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNewSupabaseCLI_BoundsCommands(t *testing.T) {
	s := NewSupabaseCLI(t.TempDir())
	if s.AuthTimeout <= 0 {
		t.Error("expected a default auth timeout")
	}
	if s.DeployTimeout <= 0 {
		t.Error("expected a default deploy timeout")
	}
}

func TestSupabaseCLI_AuthenticateTimeout(t *testing.T) {
	s := NewSupabaseCLI(t.TempDir())
	s.AuthTimeout = time.Nanosecond

	err := s.Authenticate(context.Background(), "sbp_token", "prodref")
	if err == nil {
		t.Fatal("expected expired deadline to fail authentication")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected a timeout error, got %v", err)
	}
}

func TestSupabaseCLI_DeployTimeout(t *testing.T) {
	s := NewSupabaseCLI(t.TempDir())
	s.DeployTimeout = time.Nanosecond

	err := s.Deploy(context.Background(), "checkout", "prodref")
	if err == nil {
		t.Fatal("expected expired deadline to fail the deploy")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected a timeout error, got %v", err)
	}
}
