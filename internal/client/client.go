// Package client talks to a running resume-scorer server.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/pipeline"
	"github.com/spigell/resume-scorer/internal/server"
)

const (
	userAgent       = "spigell/resume-scorer"
	contentEncoding = "gzip"
	analyzePath     = "/api/analyze"
	healthPath      = "/healthz"

	defaultTimeout = 60 * time.Second
)

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

// StatusError is a non-200 answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bad status: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("bad status: %d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// Analyze uploads doc and returns the server's verdict. Failures reported by
// the server come back as *pipeline.Error carrying the server's message.
// Transport problems are returned as is.
func (c *Client) Analyze(ctx context.Context, doc *pipeline.Document) (*pipeline.Result, error) {
	body, contentType, err := multipartBody(doc)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+analyzePath, body)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	var result pipeline.Result
	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Health checks that the server answers on its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+healthPath, nil)
	if err != nil {
		return err
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := c.do(c.setHeaders(req), &status); err != nil {
		return err
	}

	if status.Status != "ok" {
		return fmt.Errorf("server is not healthy: %q", status.Status)
	}
	return nil
}

func multipartBody(doc *pipeline.Document) (io.Reader, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	// A missing document is sent as an empty form; the server reports it.
	if doc != nil {
		filename := doc.Filename
		if filename == "" {
			filename = "resume"
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, server.FormField, filename))
		if doc.MediaType != "" {
			header.Set("Content-Type", doc.MediaType)
		}

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}

		if _, err := io.Copy(part, bytes.NewReader(doc.Content)); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &b, w.FormDataContentType(), nil
}

func (c *Client) do(req *http.Request, target any) error {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	c.logger.Debug("got response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(data)))

	if resp.StatusCode != http.StatusOK {
		return responseError(resp, data)
	}

	return json.Unmarshal(data, target)
}

// responseError turns an error answer into a *pipeline.Error. The category
// comes from the server header and defaults to an internal failure.
func responseError(resp *http.Response, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	// Bodies that are not JSON keep an empty message.
	_ = json.Unmarshal(data, &body)

	statusErr := &StatusError{Code: resp.StatusCode, Message: body.Error}
	if body.Error == "" {
		return statusErr
	}

	category := pipeline.Category(resp.Header.Get(server.HeaderCategory))
	if category == "" {
		category = pipeline.CategoryInternalFailure
	}

	return &pipeline.Error{
		Category: category,
		Message:  body.Error,
		Err:      statusErr,
	}
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
