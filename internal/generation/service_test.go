package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeService records calls and returns a canned result or error.
type fakeService struct {
	result Result
	err    error
	calls  int
}

func (f *fakeService) Generate(ctx context.Context, req Request) (Result, error) {
	f.calls++
	return f.result, f.err
}

func TestValidateRole(t *testing.T) {
	if err := ValidateRole(RoleMain); err != nil {
		t.Errorf("main should be valid: %v", err)
	}
	if err := ValidateRole(RoleResearch); err != nil {
		t.Errorf("research should be valid: %v", err)
	}
	if err := ValidateRole(Role("perplexity")); err == nil {
		t.Error("unknown role should be rejected")
	}
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &fakeService{result: Result{Text: "from first"}}
	second := &fakeService{result: Result{Text: "from second"}}
	chain := Chain{first, second}

	result, err := chain.Generate(context.Background(), Request{Role: RoleMain, Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Text != "from first" {
		t.Errorf("result = %q", result.Text)
	}
	if second.calls != 0 {
		t.Error("later services must not be called after a success")
	}
}

func TestChain_FallsBackInOrder(t *testing.T) {
	first := &fakeService{err: errors.New("provider down")}
	second := &fakeService{result: Result{Text: "fallback"}}
	chain := Chain{first, second}

	result, err := chain.Generate(context.Background(), Request{Role: RoleMain})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Text != "fallback" {
		t.Errorf("result = %q", result.Text)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d, %d; want 1, 1", first.calls, second.calls)
	}
}

func TestChain_AllFailuresJoined(t *testing.T) {
	errA := errors.New("rate limited")
	errB := errors.New("timeout")
	chain := Chain{&fakeService{err: errA}, &fakeService{err: errB}}

	_, err := chain.Generate(context.Background(), Request{Role: RoleMain})
	if err == nil {
		t.Fatal("expected an error when every service fails")
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("joined error should carry both causes, got %v", err)
	}
}

func TestChain_Empty(t *testing.T) {
	_, err := Chain{}.Generate(context.Background(), Request{Role: RoleMain})
	if err == nil || !strings.Contains(err.Error(), "empty service chain") {
		t.Errorf("got %v", err)
	}
}

func TestChain_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &fakeService{result: Result{Text: "x"}}
	_, err := Chain{svc}.Generate(ctx, Request{Role: RoleMain})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
	if svc.calls != 0 {
		t.Error("cancelled context should short-circuit before calling services")
	}
}
