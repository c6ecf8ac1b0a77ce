// Package generation defines the interface to the external content
// generation service.
//
// The task core never calls a model itself: callers gather context with
// core read operations, invoke a Service, and hand the untrusted result to
// the expand package for validation. Because all mutation is deferred
// until the result has been validated, a cancelled or failed generation
// leaves nothing to roll back.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Role selects which provider configuration handles a request.
type Role string

const (
	// RoleMain is the default generation path.
	RoleMain Role = "main"
	// RoleResearch routes to a research-capable provider.
	RoleResearch Role = "research"
)

// ValidateRole returns an error if the role is not recognized.
func ValidateRole(r Role) error {
	if r != RoleMain && r != RoleResearch {
		return fmt.Errorf("invalid role %q: must be one of: main, research", r)
	}
	return nil
}

// Request is one generation call.
type Request struct {
	Role   Role
	Prompt string
	// Schema, when set, asks the provider for schema-validated
	// structured output instead of raw text.
	Schema json.RawMessage
}

// Result is what a provider returned. Structured is set when the provider
// honored the schema; otherwise Text carries raw output that downstream
// parsing must tolerate being malformed.
type Result struct {
	Structured json.RawMessage
	Text       string
}

// Service produces content for a request. Implementations live outside
// this repository; retries and backoff are their concern, never the
// core's.
type Service interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Chain is an explicit ordered list of fallback services: the first
// success wins. This replaces per-call provider sniffing — the fallback
// order is fixed when the chain is built.
type Chain []Service

// Generate tries each service in order and returns the first success.
// When every service fails, the joined errors are returned.
func (c Chain) Generate(ctx context.Context, req Request) (Result, error) {
	if len(c) == 0 {
		return Result{}, errors.New("generation: empty service chain")
	}
	var errs []error
	for _, svc := range c {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		result, err := svc.Generate(ctx, req)
		if err == nil {
			return result, nil
		}
		errs = append(errs, err)
	}
	return Result{}, errors.Join(errs...)
}
