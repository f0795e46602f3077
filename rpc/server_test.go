package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

var errSentinel = errors.New("boom")

func TestServerDispatchesRegisteredMethod(t *testing.T) {
	s := NewServer(nil)
	s.Register("multiply", func(params json.RawMessage) (any, error) {
		var args [2]int
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, NewFault(CodeInvalidParams, err.Error())
		}
		return args[0] * args[1], nil
	})

	body, _ := json.Marshal(Request{JSONRPC: "2.0", Method: "multiply", Params: json.RawMessage(`[2,3]`), ID: 1})
	req := httptest.NewRequest(http.MethodPost, "/calc", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	var result int
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result != 6 {
		t.Fatalf("expected 6, got %d", result)
	}
}

func TestServerUnknownMethod(t *testing.T) {
	s := NewServer(nil)
	body, _ := json.Marshal(Request{JSONRPC: "2.0", Method: "nope", ID: 1})
	req := httptest.NewRequest(http.MethodPost, "/calc", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("expected CodeMethodNotFound, got %+v", resp.Error)
	}
}

func TestServerHandlerFault(t *testing.T) {
	s := NewServer(nil)
	s.Register("fail", func(params json.RawMessage) (any, error) {
		return nil, NewFault(7, "Fault")
	})
	body, _ := json.Marshal(Request{JSONRPC: "2.0", Method: "fail", ID: 1})
	req := httptest.NewRequest(http.MethodPost, "/calc", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != 7 || resp.Error.Message != "Fault" {
		t.Fatalf("expected Fault{7,\"Fault\"}, got %+v", resp.Error)
	}
}

func TestServerHandlerInternalErrorHidesDetails(t *testing.T) {
	s := NewServer(nil)
	s.Register("boom", func(params json.RawMessage) (any, error) {
		return nil, errSentinel
	})
	body, _ := json.Marshal(Request{JSONRPC: "2.0", Method: "boom", ID: 1})
	req := httptest.NewRequest(http.MethodPost, "/calc", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != CodeInternalError {
		t.Fatalf("expected CodeInternalError, got %+v", resp.Error)
	}
}
