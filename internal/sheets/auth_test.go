package sheets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// testCredentials builds a service-account JSON payload with a freshly
// generated RSA key, pointed at the given token endpoint.
func testCredentials(t *testing.T, tokenURI string) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemData := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	creds, err := json.Marshal(map[string]string{
		"client_email": "svc@project.iam.gserviceaccount.com",
		"private_key":  string(pemData),
		"token_uri":    tokenURI,
	})
	if err != nil {
		t.Fatalf("marshal credentials: %v", err)
	}
	return creds
}

// --- StaticTokenSource Tests ---

func TestStaticTokenSource_ReturnsFixedToken(t *testing.T) {
	src := &StaticTokenSource{AccessToken: "fixed"}
	token, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "fixed" {
		t.Errorf("token = %q, want %q", token, "fixed")
	}
}

// --- ServiceAccountTokenSource Tests ---

func TestNewServiceAccountTokenSource_RejectsIncompleteCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds string
	}{
		{"not json", "not-json"},
		{"missing key", `{"client_email":"svc@x"}`},
		{"missing email", `{"private_key":"---"}`},
		{"garbage pem", `{"client_email":"svc@x","private_key":"not-pem"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewServiceAccountTokenSource([]byte(tt.creds)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestServiceAccountTokenSource_ExchangesAssertion(t *testing.T) {
	var gotGrantType, gotAssertion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotGrantType = r.PostForm.Get("grant_type")
		gotAssertion = r.PostForm.Get("assertion")
		io.WriteString(w, `{"access_token":"token-1","expires_in":3600}`)
	}))
	defer srv.Close()

	src, err := NewServiceAccountTokenSource(testCredentials(t, srv.URL))
	if err != nil {
		t.Fatalf("NewServiceAccountTokenSource() error = %v", err)
	}

	token, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "token-1" {
		t.Errorf("token = %q, want token-1", token)
	}
	if gotGrantType != "urn:ietf:params:oauth:grant-type:jwt-bearer" {
		t.Errorf("grant_type = %q, want jwt-bearer grant", gotGrantType)
	}
	if gotAssertion == "" {
		t.Error("assertion missing from token request")
	}
}

func TestServiceAccountTokenSource_CachesUntilExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":3600}`, n)
	}))
	defer srv.Close()

	src, err := NewServiceAccountTokenSource(testCredentials(t, srv.URL))
	if err != nil {
		t.Fatalf("NewServiceAccountTokenSource() error = %v", err)
	}

	first, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("first Token() error = %v", err)
	}
	second, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("second Token() error = %v", err)
	}

	if first != second {
		t.Errorf("second call returned %q, want cached %q", second, first)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("token endpoint calls = %d, want 1", got)
	}
}

func TestServiceAccountTokenSource_RefreshesNearExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":3600}`, n)
	}))
	defer srv.Close()

	src, err := NewServiceAccountTokenSource(testCredentials(t, srv.URL))
	if err != nil {
		t.Fatalf("NewServiceAccountTokenSource() error = %v", err)
	}

	current := time.Now()
	src.now = func() time.Time { return current }

	if _, err := src.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	// Jump to 30s before expiry; the cached token is inside the refresh
	// margin and must be replaced.
	current = current.Add(3600*time.Second - 30*time.Second)
	token, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() near expiry error = %v", err)
	}
	if token != "token-2" {
		t.Errorf("token = %q, want refreshed token-2", token)
	}
}

func TestServiceAccountTokenSource_FailedExchangeSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	src, err := NewServiceAccountTokenSource(testCredentials(t, srv.URL))
	if err != nil {
		t.Fatalf("NewServiceAccountTokenSource() error = %v", err)
	}

	if _, err := src.Token(context.Background()); err == nil {
		t.Error("expected error from failed exchange")
	}
}
