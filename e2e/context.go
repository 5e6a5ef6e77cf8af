//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strconv"
	"strings"
	"time"
)

// TestContext holds state between the steps of one scenario.
type TestContext struct {
	BaseURL          string
	AdminUser        string
	AdminPassword    string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte
	AccessToken      string
	Saved            map[string]string
}

// NewTestContext reads the target server from BASE_URL and the bootstrap
// admin credentials from E2E_ADMIN_USER and E2E_ADMIN_PASSWORD, falling back
// to the server's BOOTSTRAP_ADMIN_* variables.
func NewTestContext() *TestContext {
	jar, _ := cookiejar.New(nil)
	return &TestContext{
		BaseURL:       envOr("BASE_URL", "http://localhost:8080"),
		AdminUser:     envOr("E2E_ADMIN_USER", os.Getenv("BOOTSTRAP_ADMIN_USER")),
		AdminPassword: envOr("E2E_ADMIN_PASSWORD", os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		Saved: make(map[string]string),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// expand replaces {name} placeholders with values saved earlier in the scenario.
func (tc *TestContext) expand(s string) string {
	for k, v := range tc.Saved {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

// Do sends a request with an optional raw JSON body and stores the response.
// The bearer token is attached when one is held.
func (tc *TestContext) Do(method, path, body string) error {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(tc.expand(body)))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+tc.expand(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.AccessToken)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// ResponseField walks a dotted path ("data.0.cedula") through the JSON body.
func (tc *TestContext) ResponseField(path string) (any, error) {
	var cur any
	if err := json.Unmarshal(tc.LastResponseBody, &cur); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("field %s not found in response", path)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %s out of range in %s", seg, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %s", path)
		}
	}
	return cur, nil
}

func (tc *TestContext) LastStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}
