package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync/atomic"
)

// ProgressFunc receives cumulative body bytes sent and the body total.
type ProgressFunc func(sent, total int64)

// UploadFile posts one file as multipart field "file". The request is bounded
// by ctx only; callers set the upload deadline.
func (c *Client) UploadFile(ctx context.Context, name string, content io.Reader, size int64, onProgress ProgressFunc) (UploadResult, error) {
	if c == nil {
		return UploadResult{}, fmt.Errorf("client is nil")
	}
	var head bytes.Buffer
	mw := multipart.NewWriter(&head)
	if _, err := mw.CreateFormFile("file", name); err != nil {
		return UploadResult{}, fmt.Errorf("create form file: %w", err)
	}
	headLen := head.Len()
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close multipart writer: %w", err)
	}
	tail := append([]byte(nil), head.Bytes()[headLen:]...)
	head.Truncate(headLen)

	total := int64(headLen) + size + int64(len(tail))
	body := &countingReader{
		r:          io.MultiReader(&head, io.LimitReader(content, size), bytes.NewReader(tail)),
		total:      total,
		onProgress: onProgress,
	}

	rel := &url.URL{Path: "/api/uploads"}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.ResolveReference(rel).String(), body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var payload UploadResult
	if err := c.send(req, rel.Path, &payload); err != nil {
		return UploadResult{}, err
	}
	return payload, nil
}

type countingReader struct {
	r          io.Reader
	sent       atomic.Int64
	total      int64
	onProgress ProgressFunc
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		sent := cr.sent.Add(int64(n))
		if cr.onProgress != nil {
			cr.onProgress(sent, cr.total)
		}
	}
	return n, err
}
