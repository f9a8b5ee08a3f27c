package functions

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeDeployer fails the units listed in failing and records deploy order
type fakeDeployer struct {
	failing  map[string]bool
	deployed []string
	authErr  error
}

func (f *fakeDeployer) Authenticate(ctx context.Context, token, projectRef string) error {
	return f.authErr
}

func (f *fakeDeployer) Deploy(ctx context.Context, name, projectRef string) error {
	f.deployed = append(f.deployed, name)
	if f.failing[name] {
		return errors.New("bundle failed")
	}
	return nil
}

func TestRedeployAll_ContinuesPastFailures(t *testing.T) {
	deployer := &fakeDeployer{failing: map[string]bool{"send-email": true}}
	units := []Unit{
		{Name: "checkout"},
		{Name: "send-email"},
		{Name: "webhooks"},
	}

	var out bytes.Buffer
	tally := RedeployAll(context.Background(), deployer, units, "prodref", &out)

	if tally.Deployed != 2 || tally.Failed != 1 {
		t.Errorf("expected tally {2 1}, got %+v", tally)
	}

	// The failing unit must not stop the ones after it
	want := []string{"checkout", "send-email", "webhooks"}
	if len(deployer.deployed) != len(want) {
		t.Fatalf("expected all units attempted, got %v", deployer.deployed)
	}
	for i, name := range want {
		if deployer.deployed[i] != name {
			t.Errorf("deploy %d: expected %s, got %s", i, name, deployer.deployed[i])
		}
	}

	if !strings.Contains(out.String(), "send-email deployment failed") {
		t.Errorf("expected failure report in output, got:\n%s", out.String())
	}
}

func TestRedeployAll_SkipsInternalUnits(t *testing.T) {
	deployer := &fakeDeployer{}
	units := []Unit{
		{Name: "_shared", Internal: true},
		{Name: "checkout"},
	}

	var out bytes.Buffer
	tally := RedeployAll(context.Background(), deployer, units, "prodref", &out)

	if tally.Deployed != 1 || tally.Failed != 0 {
		t.Errorf("expected tally {1 0}, got %+v", tally)
	}
	for _, name := range deployer.deployed {
		if name == "_shared" {
			t.Error("internal unit must never be deployed")
		}
	}
}

func TestRedeployAll_NoUnits(t *testing.T) {
	deployer := &fakeDeployer{}

	var out bytes.Buffer
	tally := RedeployAll(context.Background(), deployer, nil, "prodref", &out)

	if tally.Deployed != 0 || tally.Failed != 0 {
		t.Errorf("expected zero tally, got %+v", tally)
	}
}
