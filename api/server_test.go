package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckVersionRejectsOldServer(t *testing.T) {
	err := CheckVersion("0.1.0")
	if !errors.Is(err, ErrIncompatibleServer) {
		t.Fatalf("err=%v want ErrIncompatibleServer", err)
	}
}

func TestCheckVersionAcceptsCompatibleServer(t *testing.T) {
	if err := CheckVersion("0.2.3"); err != nil {
		t.Fatalf("CheckVersion(0.2.3) err = %v", err)
	}
}

func TestCheckVersionRejectsGarbage(t *testing.T) {
	err := CheckVersion("not-a-version")
	if !errors.Is(err, ErrIncompatibleServer) {
		t.Fatalf("err=%v want ErrIncompatibleServer", err)
	}
}

func TestCheckServerAcceptsWellFormedIndex(t *testing.T) {
	srv := newIndexServer(t, `{
		"current_user_url": "/api/accounts/user",
		"network_status_url": "/status/network",
		"accounting_report_url": "/status/accounting",
		"tokens_url": "/api/tokens/",
		"users_url": "/api/users",
		"version": "0.2.5"
	}`)
	defer srv.Close()

	client := New(Config{URL: srv.URL})
	version, err := client.CheckServer(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("CheckServer() err = %v", err)
	}
	if version != "0.2.5" {
		t.Fatalf("version=%q want 0.2.5", version)
	}
}

func TestCheckServerRejectsMissingIndexKey(t *testing.T) {
	srv := newIndexServer(t, `{
		"current_user_url": "/api/accounts/user",
		"network_status_url": "/status/network",
		"accounting_report_url": "/status/accounting",
		"tokens_url": "/api/tokens/",
		"version": "0.2.5"
	}`)
	defer srv.Close()

	client := New(Config{URL: srv.URL})
	_, err := client.CheckServer(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotHub20Server) {
		t.Fatalf("err=%v want ErrNotHub20Server", err)
	}
}

func TestCheckServerRejectsExtraIndexKey(t *testing.T) {
	srv := newIndexServer(t, `{
		"current_user_url": "/api/accounts/user",
		"network_status_url": "/status/network",
		"accounting_report_url": "/status/accounting",
		"tokens_url": "/api/tokens/",
		"users_url": "/api/users",
		"version": "0.2.5",
		"surprise": true
	}`)
	defer srv.Close()

	client := New(Config{URL: srv.URL})
	_, err := client.CheckServer(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotHub20Server) {
		t.Fatalf("err=%v want ErrNotHub20Server", err)
	}
}

func TestCheckServerRejectsIncompatibleVersion(t *testing.T) {
	srv := newIndexServer(t, `{
		"current_user_url": "/api/accounts/user",
		"network_status_url": "/status/network",
		"accounting_report_url": "/status/accounting",
		"tokens_url": "/api/tokens/",
		"users_url": "/api/users",
		"version": "0.1.0"
	}`)
	defer srv.Close()

	client := New(Config{URL: srv.URL})
	_, err := client.CheckServer(context.Background(), srv.URL)
	if !errors.Is(err, ErrIncompatibleServer) {
		t.Fatalf("err=%v want ErrIncompatibleServer", err)
	}
}

func newIndexServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}
