package facades

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/mozik-app/mozik/internal/logger"
)

// ErrUpstreamUnavailable is returned when the mosaic processor is
// unreachable or responds with a non-2xx status.
var ErrUpstreamUnavailable = errors.New("mosaic processor unavailable")

// upstreamTimeout caps the synchronous processing call.
const upstreamTimeout = 60 * time.Second

// TokenGenerator issues the service token attached to processor calls.
type TokenGenerator interface {
	Generate(ctx context.Context, subject string) (string, error)
}

// MosaicHTTPFacade forwards uploads to the image-processing endpoint and
// returns the processed bytes.
type MosaicHTTPFacade struct {
	url    string
	tokens TokenGenerator
	client *http.Client
}

// NewMosaicHTTPFacade creates a facade targeting the given processor URL.
func NewMosaicHTTPFacade(url string, tokens TokenGenerator) *MosaicHTTPFacade {
	return &MosaicHTTPFacade{
		url:    url,
		tokens: tokens,
		client: &http.Client{Timeout: upstreamTimeout},
	}
}

// Transform sends the file to the processor and returns the processed body
// and its content type.
func (f *MosaicHTTPFacade) Transform(ctx context.Context, filename string, file io.Reader) ([]byte, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, &body)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	tok, err := f.tokens.Generate(ctx, "uploader")
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Log.Errorw("mosaic processor call failed", "url", f.url, "error", err)
		return nil, "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Log.Errorw("mosaic processor returned error status", "url", f.url, "status", resp.StatusCode)
		return nil, "", fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	processed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	return processed, resp.Header.Get("Content-Type"), nil
}
