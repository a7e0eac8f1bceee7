// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// TB is the subset of testing.TB the channel helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive reads one value from ch within timeout, or fails the
// test.
//
//	line := testutil.RequireReceive(t, backend.Lines, 5*time.Second, "waiting for eval")
func RequireReceive[T any](t TB, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", formatMessage(msgAndArgs))
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, formatMessage(msgAndArgs))
	}
	panic("unreachable")
}

// RequireNoReceive fails the test if ch delivers a value within wait.
// Use it to check that something was not sent.
func RequireNoReceive[T any](t TB, ch <-chan T, wait time.Duration, msgAndArgs ...any) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected value %v: %s", v, formatMessage(msgAndArgs))
		}
	case <-time.After(wait):
	}
}

// RequireClosed waits for ch to be closed (or receive a value) within
// timeout, or fails the test.
func RequireClosed(t TB, ch <-chan struct{}, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for channel close: %s", timeout, formatMessage(msgAndArgs))
	}
}

// formatMessage formats optional message arguments into a string.
// Accepts either a single value or a format string followed by args.
func formatMessage(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return "(no message)"
	}
	if format, ok := msgAndArgs[0].(string); ok {
		if len(msgAndArgs) == 1 {
			return format
		}
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
