package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Download copies the body of a GET response to w and returns its content type.
// Any content type is accepted; errors are decoded the same way as for JSON calls
func (c *Client) Download(ctx context.Context, path string, w io.Writer) (string, error) {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   path,
		Header: http.Header{"Accept": {"*/*"}},
	})
	if err != nil {
		return "", err
	}

	if _, err := w.Write(resp.Body); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return resp.Header.Get("Content-Type"), nil
}
