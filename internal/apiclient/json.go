package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nkiryanov/sims/internal/apperrors"
)

const contentTypeJSON = "application/json"

// JSON sends in (if not nil) as JSON body and decodes the response into out (if not nil)
func (c *Client) JSON(ctx context.Context, method string, path string, query url.Values, in any, out any) error {
	req := Request{Method: method, Path: path, Query: query}

	if in != nil {
		body, err := marshal(in)
		if err != nil {
			return err
		}
		req.Body = body
		req.ContentType = contentTypeJSON
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return unmarshal(resp.Body, out)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.JSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in any, out any) error {
	return c.JSON(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in any, out any) error {
	return c.JSON(ctx, http.MethodPut, path, nil, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in any, out any) error {
	return c.JSON(ctx, http.MethodPatch, path, nil, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.JSON(ctx, http.MethodDelete, path, nil, nil, out)
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
	}
	return nil
}
