package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// File part of a multipart upload
type File struct {
	Field   string // form field name, "file" if empty
	Name    string
	Content io.Reader
}

// Multipart posts form fields and one file, decoding the response into out (if not nil).
// The whole form is buffered so a retry after token refresh sends the same bytes.
func (c *Client) Multipart(ctx context.Context, path string, fields map[string]string, file File, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	field := file.Field
	if field == "" {
		field = "file"
	}
	part, err := w.CreateFormFile(field, file.Name)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return fmt.Errorf("failed to read upload %s: %w", file.Name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish form: %w", err)
	}

	resp, err := c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
	})
	if err != nil {
		return err
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return unmarshal(resp.Body, out)
}
