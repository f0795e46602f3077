//go:build unix

package rpc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/deniskin82/goselector/selector"
)

// TestListenerRoundTripThroughSelector drives both ends of a connection —
// Listener/pipelinedConn on the server side, Client on the client side —
// through the same Selector.Wait loop, with no net/http or runtime
// netpoller involved anywhere on the server path. pipelinedConn is the
// PollSize()==2 composite Selectable (connection socket plus notify pipe)
// this exercises: CheckPollEvent must service both slab slots across the
// lifetime of a single call.
func TestListenerRoundTripThroughSelector(t *testing.T) {
	srv := NewServer(nil)
	srv.Register("multiply", func(params json.RawMessage) (any, error) {
		var args [2]int
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, NewFault(CodeInvalidParams, err.Error())
		}
		return args[0] * args[1], nil
	})
	defer srv.Close()

	sel, err := selector.NewSelector()
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	defer sel.Close()

	ln, err := Listen(sel, srv, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	client, err := Dial(sel, "tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	result, err := client.Call("/calc", "multiply", []int{6, 7}, 2000)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	var got int
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

// TestListenerPipelinedCallsCompleteInOrder sends several pipelined calls
// over one connection accepted by Listener, exercising pipelinedConn's
// notify-pipe slot (slot 1) repeatedly as each handler result arrives from
// the worker pool out of band with the reactor goroutine.
func TestListenerPipelinedCallsCompleteInOrder(t *testing.T) {
	srv := NewServer(nil)
	srv.Register("echo", func(params json.RawMessage) (any, error) {
		var s string
		if err := json.Unmarshal(params, &s); err != nil {
			return nil, err
		}
		return s, nil
	})
	defer srv.Close()

	sel, err := selector.NewSelector()
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	defer sel.Close()

	ln, err := Listen(sel, srv, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	client, err := Dial(sel, "tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	calls := make([]*PendingCall, 0, 3)
	for _, word := range []string{"x", "y", "z"} {
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
		want := []string{"x", "y", "z"}[i]
		if got != want {
			t.Fatalf("call %d: expected %q, got %q", i, want, got)
		}
	}
}
