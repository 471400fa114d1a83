package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/ghettovoice/doorphone/httpapi"
	"github.com/ghettovoice/doorphone/linphone"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePhone struct {
	state     linphone.State
	lifecycle linphone.Lifecycle
}

func (p fakePhone) State() linphone.State         { return p.state }
func (p fakePhone) Lifecycle() linphone.Lifecycle { return p.lifecycle }

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v, want nil", err)
	}
	return rec.Code, string(body)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	sess := uuid.MustParse("0b5e6f4c-2a4d-4c39-9a53-2d9c1f8e7a10")
	phone := fakePhone{
		state:     linphone.State{Session: sess, Registered: linphone.True, Dialing: linphone.False},
		lifecycle: linphone.LifecycleRunning,
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "doorphone_sessions_total 1\n") //nolint:errcheck
	})
	h := httpapi.NewHandler(phone, metrics, nil)

	code, body := get(t, h, "/state")
	if code != http.StatusOK {
		t.Errorf("GET /state status = %d, want %d", code, http.StatusOK)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, want nil", err)
	}
	want := map[string]any{
		"lifecycle": "running",
		"state": map[string]any{
			"session":    sess.String(),
			"registered": "true",
			"dialing":    "false",
			"in_call":    "unknown",
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("GET /state body mismatch\ndiff (-got +want):\n%v", diff)
	}

	if code, _ := get(t, h, "/healthz"); code != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", code, http.StatusOK)
	}
	if code, body := get(t, h, "/metrics"); code != http.StatusOK || body != "doorphone_sessions_total 1\n" {
		t.Errorf("GET /metrics = %d %q, want %d with the metrics body", code, body, http.StatusOK)
	}
	if code, _ := get(t, h, "/nope"); code != http.StatusNotFound {
		t.Errorf("GET /nope status = %d, want %d", code, http.StatusNotFound)
	}
}

func TestHandler_Unhealthy(t *testing.T) {
	t.Parallel()

	h := httpapi.NewHandler(fakePhone{lifecycle: linphone.LifecycleRestarting}, nil, nil)
	if code, _ := get(t, h, "/healthz"); code != http.StatusServiceUnavailable {
		t.Errorf("GET /healthz status = %d, want %d", code, http.StatusServiceUnavailable)
	}
	if code, _ := get(t, h, "/metrics"); code != http.StatusNotFound {
		t.Errorf("GET /metrics without metrics status = %d, want %d", code, http.StatusNotFound)
	}
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v, want nil", err)
	}
	h := httpapi.NewHandler(fakePhone{lifecycle: linphone.LifecycleRunning}, nil, nil)
	srv := httpapi.NewServer(ln.Addr().String(), h, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("client.Get() error = %v, want nil", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("server.Serve() error = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for Serve to return")
	}
}
