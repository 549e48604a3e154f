package signpath

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the hosted SignPath API endpoint.
	DefaultBaseURL = "https://app.signpath.io/Api"

	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	locationHeader      = "Location"
)

// Config holds the connection settings for one SignPath client.
type Config struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string

	// OrganizationID is the SignPath organization the requests belong to.
	OrganizationID string

	// APIToken is the bearer token attached to every request.
	APIToken string

	// ConnectTimeout bounds TCP connection establishment.
	ConnectTimeout time.Duration

	// HTTPTimeout bounds a single request/response exchange. It applies
	// per attempt, not across retries; the retry budget has its own
	// wall-clock bound in Retry.
	HTTPTimeout time.Duration

	// Retry bounds transient-failure retries for each exchange.
	Retry RetryPolicy
}

// SubmitOptions carries the metadata fields of one signing request.
type SubmitOptions struct {
	ProjectSlug               string
	SigningPolicySlug         string
	ArtifactConfigurationSlug string
	Description               string

	// Parameters are custom key/value pairs forwarded to the service as
	// individually named Parameters[<key>] form fields.
	Parameters map[string]string

	// ArtifactPath is the file submitted for signing.
	ArtifactPath string
}

// Client talks to the SignPath REST API. All operations go through a
// retrying transport; see RetryPolicy for the retry contract.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	organizationID string
	token          string
	log            *zap.SugaredLogger
}

// NewClient creates a client from the given configuration.
func NewClient(cfg Config, log *zap.SugaredLogger) *Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ResponseHeaderTimeout: cfg.HTTPTimeout,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: newRetryTransport(base, cfg.Retry, log),
		},
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		organizationID: cfg.OrganizationID,
		token:          cfg.APIToken,
		log:            log,
	}
}

// Submit uploads an artifact for signing and returns the request handle
// taken from the Location header. Success is exactly HTTP 201 with that
// header present; anything else is an *APIError carrying the status code
// and response body verbatim.
func (c *Client) Submit(ctx context.Context, opts SubmitOptions) (*SigningRequest, error) {
	url := c.baseURL + "/v1/" + c.organizationID + "/SigningRequests"

	// The body is buffered so the retrying transport can replay it via
	// GetBody when an attempt fails with a transient error.
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writeSubmitFields(writer, opts); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "finalize multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, errors.Wrap(err, "create submit request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(authorizationHeader, bearerPrefix+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "execute submit request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: readBody(resp)}
	}

	location := resp.Header.Get(locationHeader)
	if location == "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: "missing Location header in submit response"}
	}

	return &SigningRequest{StatusURL: location}, nil
}

// writeSubmitFields writes the metadata fields and the artifact file part.
func writeSubmitFields(writer *multipart.Writer, opts SubmitOptions) error {
	if err := writer.WriteField("ProjectSlug", opts.ProjectSlug); err != nil {
		return errors.Wrap(err, "write ProjectSlug field")
	}
	if err := writer.WriteField("SigningPolicySlug", opts.SigningPolicySlug); err != nil {
		return errors.Wrap(err, "write SigningPolicySlug field")
	}

	part, err := writer.CreateFormFile("Artifact", filepath.Base(opts.ArtifactPath))
	if err != nil {
		return errors.Wrap(err, "create Artifact part")
	}
	file, err := os.Open(opts.ArtifactPath)
	if err != nil {
		return errors.Wrap(err, "open artifact")
	}
	defer file.Close()
	if _, err := io.Copy(part, file); err != nil {
		return errors.Wrapf(err, "read artifact %s", opts.ArtifactPath)
	}

	if opts.ArtifactConfigurationSlug != "" {
		if err := writer.WriteField("ArtifactConfigurationSlug", opts.ArtifactConfigurationSlug); err != nil {
			return errors.Wrap(err, "write ArtifactConfigurationSlug field")
		}
	}
	if opts.Description != "" {
		if err := writer.WriteField("Description", opts.Description); err != nil {
			return errors.Wrap(err, "write Description field")
		}
	}

	// Sorted for a deterministic body; the service does not care about
	// field order but tests and request logs do.
	keys := make([]string, 0, len(opts.Parameters))
	for key := range opts.Parameters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := writer.WriteField("Parameters["+key+"]", opts.Parameters[key]); err != nil {
			return errors.Wrapf(err, "write parameter %s", key)
		}
	}

	return nil
}

// Status polls a signing request once. Any non-2xx response is an
// *APIError. A 2xx body is decoded into RequestStatus; unknown status
// strings survive the parse and classify as StatusUnrecognized.
func (c *Client) Status(ctx context.Context, request *SigningRequest) (*RequestStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, request.StatusURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create status request")
	}
	req.Header.Set(authorizationHeader, bearerPrefix+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "execute status request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: readBody(resp)}
	}

	var status RequestStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, errors.Wrap(err, "decode status response")
	}
	if status.Status == "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: "status response is missing the status field"}
	}

	return &status, nil
}

// DownloadSignedArtifact streams the signed artifact bytes into dst.
// A missing download link is a logic error here: callers only download
// after observing a completed status, which implies the link is present.
func (c *Client) DownloadSignedArtifact(ctx context.Context, status *RequestStatus, dst io.Writer) error {
	if status.SignedArtifactLink == "" {
		return errors.New("no signed artifact link available")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, status.SignedArtifactLink, nil)
	if err != nil {
		return errors.Wrap(err, "create download request")
	}
	req.Header.Set(authorizationHeader, bearerPrefix+c.token)

	c.log.Debugw("downloading signed artifact", "url", status.SignedArtifactLink)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "execute download request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: readBody(resp)}
	}

	written, err := io.Copy(dst, resp.Body)
	if err != nil {
		return errors.Wrap(err, "write signed artifact")
	}
	if written == 0 {
		return &APIError{StatusCode: resp.StatusCode, Body: "empty response body"}
	}

	return nil
}

// Close drains the idle connection pool. Connections are reused across
// targets within a run and released here at run end.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// readBody returns the response body for diagnostics, best effort.
func readBody(resp *http.Response) string {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(data)
}
