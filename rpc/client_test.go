//go:build unix

package rpc

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deniskin82/goselector/selector"
)

func TestClientCallRoundTrip(t *testing.T) {
	srv := NewServer(nil)
	srv.Register("multiply", func(params json.RawMessage) (any, error) {
		var args [2]int
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, NewFault(CodeInvalidParams, err.Error())
		}
		return args[0] * args[1], nil
	})

	ts := httptest.NewServer(srv)
	defer ts.Close()

	sel, err := selector.NewSelector()
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	defer sel.Close()

	client, err := Dial(sel, "tcp", ts.Listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	result, err := client.Call("/calc", "multiply", []int{2, 3}, 2000)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	var got int
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
}

func TestClientPipelinedCallsCompleteInOrder(t *testing.T) {
	srv := NewServer(nil)
	srv.Register("echo", func(params json.RawMessage) (any, error) {
		var s string
		if err := json.Unmarshal(params, &s); err != nil {
			return nil, err
		}
		return s, nil
	})

	ts := httptest.NewServer(srv)
	defer ts.Close()

	sel, err := selector.NewSelector()
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	defer sel.Close()

	client, err := Dial(sel, "tcp", ts.Listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	calls := make([]*PendingCall, 0, 3)
	for _, word := range []string{"a", "b", "c"} {
		call, err := client.Go("/echo", "echo", word)
		if err != nil {
			t.Fatalf("Go: %v", err)
		}
		calls = append(calls, call)
	}

	deadline := time.Now().Add(2 * time.Second)
	for _, call := range calls {
		waitForCall(t, sel, call, deadline)
	}

	for i, call := range calls {
		if call.Err != nil {
			t.Fatalf("call %d failed: %v", i, call.Err)
		}
		var got string
		if err := json.Unmarshal(call.Result, &got); err != nil {
			t.Fatalf("decode result %d: %v", i, err)
		}
		want := []string{"a", "b", "c"}[i]
		if got != want {
			t.Fatalf("call %d: expected %q, got %q", i, want, got)
		}
	}
}

func waitForCall(t *testing.T, sel *selector.Selector, call *PendingCall, deadline time.Time) {
	t.Helper()
	for {
		select {
		case <-call.Done():
			return
		default:
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for call %s", call.Method)
		}
		if _, err := sel.Wait(200); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
}

func TestClientMethodNotFoundSurfacesFault(t *testing.T) {
	srv := NewServer(nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	sel, err := selector.NewSelector()
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	defer sel.Close()

	client, err := Dial(sel, "tcp", ts.Listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	_, err = client.Call("/calc", "nope", nil, 2000)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
	fault, ok := err.(*Fault)
	if !ok {
		t.Fatalf("expected *Fault, got %T: %v", err, err)
	}
	if fault.Code != CodeMethodNotFound {
		t.Fatalf("expected CodeMethodNotFound, got %d", fault.Code)
	}
}
