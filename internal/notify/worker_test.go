package notify

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"routelab/internal/model"
)

func maxTime() time.Time { return time.Now().Add(24 * time.Hour) }

func TestWorkerProcessOnce_SuccessAndSignature(t *testing.T) {
	var gotSig, gotJob string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotJob = r.Header.Get("X-Job-Id")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	w := &Worker{HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 3}
	w.EnqueueCompleted("j1", srv.URL, "secret", &model.Solution{})

	w.processOnce()

	if gotJob != "j1" {
		t.Fatalf("job header = %q, want j1", gotJob)
	}
	if gotSig == "" || !VerifyHMAC("secret", gotBody, gotSig) {
		t.Fatalf("signature %q does not verify", gotSig)
	}
	if n := len(w.due(maxTime())); n != 0 {
		t.Fatalf("queue should be empty after success, have %d", n)
	}
}

func TestWorkerProcessOnce_RetryThenDrop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(500) }))
	defer srv.Close()

	w := &Worker{HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 2}
	w.EnqueueCompleted("j1", srv.URL, "", &model.Solution{})

	w.processOnce()
	pending := w.due(maxTime())
	if len(pending) != 1 {
		t.Fatalf("expected retry queued, have %d", len(pending))
	}
	if pending[0].Attempts != 1 || pending[0].NextAttempt.IsZero() {
		t.Fatalf("delivery not backed off: %+v", pending[0])
	}

	pending[0].NextAttempt = time.Now().Add(-time.Second)
	w.processOnce()
	if n := len(w.due(maxTime())); n != 0 {
		t.Fatalf("delivery should be dropped at max attempts, have %d", n)
	}
}

func TestWorkerMaxAttemptsDefault(t *testing.T) {
	if w := NewWorker(0); w.MaxAttempts != 10 {
		t.Fatalf("default max attempts = %d, want 10", w.MaxAttempts)
	}
	if w := NewWorker(3); w.MaxAttempts != 3 {
		t.Fatalf("max attempts = %d, want 3", w.MaxAttempts)
	}
}

func TestWorkerSkipsEmptyURL(t *testing.T) {
	w := NewWorker(0)
	w.EnqueueCompleted("j1", "", "secret", &model.Solution{})
	if n := len(w.due(maxTime())); n != 0 {
		t.Fatalf("empty URL should not enqueue, have %d", n)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"job_id":"j1"}`)
	sig := SignHMAC("s3cret", body)
	if !VerifyHMAC("s3cret", body, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifyHMAC("other", body, sig) {
		t.Fatal("wrong secret accepted")
	}
	if VerifyHMAC("s3cret", body, "zz") {
		t.Fatal("malformed signature accepted")
	}
}
