// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Envelope describes one request. Path is relative to the client base URL
// and is what the download exemption is matched against.
type Envelope struct {
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
	Header      http.Header
}

// Get creates a GET envelope.
func Get(path string) *Envelope {
	return &Envelope{Method: http.MethodGet, Path: path}
}

// Delete creates a DELETE envelope.
func Delete(path string) *Envelope {
	return &Envelope{Method: http.MethodDelete, Path: path}
}

// JSON creates an envelope with v encoded as the JSON body.
func JSON(method, path string, v any) (*Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return &Envelope{
		Method:      method,
		Path:        path,
		Body:        bytes.NewReader(data),
		ContentType: "application/json",
	}, nil
}

// WithHeader sets an extra header and returns e.
func (e *Envelope) WithHeader(key, value string) *Envelope {
	if e.Header == nil {
		e.Header = make(http.Header)
	}
	e.Header.Set(key, value)
	return e
}

// Op names the exchange for logs and errors.
func (e *Envelope) Op() string {
	return e.Method + " " + e.Path
}

// Response is a fully read 2xx response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// StreamResponse is a 2xx response whose body is read incrementally. Close
// must be called to release the connection.
type StreamResponse struct {
	Status int
	Header http.Header

	body   io.ReadCloser
	cancel func()
}

// Read reads from the response body.
func (s *StreamResponse) Read(p []byte) (int, error) {
	return s.body.Read(p)
}

// Close closes the body and releases the request context.
func (s *StreamResponse) Close() error {
	err := s.body.Close()
	if s.cancel != nil {
		s.cancel()
	}
	return err
}
