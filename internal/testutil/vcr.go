package testutil

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// secretHeaders never reach a cassette on disk.
var secretHeaders = []string{"Authorization", "API-Subscription-Key", "x-goog-api-key"}

// NewVCRRecorder creates a recorder replaying testdata/fixtures/<cassetteName>.yaml.
// Set VCR_MODE=record to hit the real upstream and rewrite the cassette.
func NewVCRRecorder(t *testing.T, cassetteName string) (*recorder.Recorder, func()) {
	t.Helper()

	mode := recorder.ModeReplaying
	if os.Getenv("VCR_MODE") == "record" {
		mode = recorder.ModeRecording
	}

	cassettePath := filepath.Join("testdata", "fixtures", cassetteName)

	r, err := recorder.NewAsMode(cassettePath, mode, nil)
	if err != nil {
		t.Fatalf("Failed to create VCR recorder: %v", err)
	}

	// Request bodies differ by defaults the client fills in, so match on method and URL only.
	r.SetMatcher(func(r *http.Request, i cassette.Request) bool {
		return r.Method == i.Method && r.URL.String() == i.URL
	})

	r.AddSaveFilter(func(i *cassette.Interaction) error {
		for _, h := range secretHeaders {
			i.Request.Headers.Del(h)
		}
		return nil
	})

	cleanup := func() {
		if err := r.Stop(); err != nil {
			t.Errorf("Failed to stop VCR recorder: %v", err)
		}
	}

	return r, cleanup
}

// VCRHTTPClient returns an HTTP client configured to use the VCR recorder.
func VCRHTTPClient(r *recorder.Recorder) *http.Client {
	return &http.Client{
		Transport: r,
	}
}
