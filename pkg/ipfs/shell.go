// Package ipfs is a minimal client for the DAG endpoint of an IPFS node
// API. It submits canonical git payloads and returns their content address.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/ipgrv/git-remote-ipgrv/pkg/gitipld"
)

// DefaultAPIURL is the local node API address.
const DefaultAPIURL = "http://127.0.0.1:5001"

// dag/put is pinned to git semantics: the node interprets the body as raw
// git framing and derives the address with git's own hash function, so the
// returned digest equals the native object id.
const (
	payloadFormat  = "git"
	inputEncoding  = "raw"
	digestFunction = "sha1"
)

const responseLimit = 1 << 20

// Shell talks to one node API endpoint. Submission is single-shot: a failed
// request is reported as-is, retry policy belongs to the caller.
type Shell struct {
	apiURL     string
	httpClient *http.Client
}

// NewShell creates a client for the node API at apiURL. A zero timeout
// means no client-side deadline.
func NewShell(apiURL string, timeout time.Duration) (*Shell, error) {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api url %q must include scheme and host", apiURL)
	}
	return &Shell{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// NewLocalShell creates a client for the default local node API.
func NewLocalShell() (*Shell, error) {
	return NewShell(DefaultAPIURL, 60*time.Second)
}

// DagPut submits a canonical payload and returns its content address. The
// node's answer is cross-checked against the locally derived address; a
// disagreement means the store is not content-addressing the payload bytes.
func (s *Shell) DagPut(ctx context.Context, payload []byte) (cid.Cid, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "object")
	if err != nil {
		return cid.Undef, fmt.Errorf("dag/put: %w", err)
	}
	if _, err := fw.Write(payload); err != nil {
		return cid.Undef, fmt.Errorf("dag/put: %w", err)
	}
	if err := mw.Close(); err != nil {
		return cid.Undef, fmt.Errorf("dag/put: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v0/dag/put?format=%s&input-enc=%s&hash=%s",
		s.apiURL, payloadFormat, inputEncoding, digestFunction)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return cid.Undef, fmt.Errorf("dag/put: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return cid.Undef, fmt.Errorf("dag/put: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, responseLimit))
	if err != nil {
		return cid.Undef, fmt.Errorf("dag/put: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return cid.Undef, fmt.Errorf("dag/put: %s", apiErrorMessage(resp.StatusCode, respBody))
	}

	var out struct {
		Cid struct {
			Slash string `json:"/"`
		} `json:"Cid"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return cid.Undef, fmt.Errorf("dag/put: decode response: %w", err)
	}
	got, err := cid.Decode(strings.TrimSpace(out.Cid.Slash))
	if err != nil {
		return cid.Undef, fmt.Errorf("dag/put: invalid cid in response: %w", err)
	}

	want, err := gitipld.Cid(payload)
	if err != nil {
		return cid.Undef, fmt.Errorf("dag/put: %w", err)
	}
	if !got.Equals(want) {
		return cid.Undef, fmt.Errorf("dag/put: node returned %s for payload addressed %s", got, want)
	}
	return got, nil
}

// apiErrorMessage extracts the node's error message from a failed response.
// The API reports failures as {"Message": ..., "Code": ..., "Type": "error"}.
func apiErrorMessage(status int, body []byte) string {
	var apiErr struct {
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return msg
}
