package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// NewMockForTests returns a *Store backed by an in-memory fake HTTP transport.
// Only the Head/Get/Put subset used by core.Writer is implemented.
func NewMockForTests(bucket string) *Store {
	rt := &mockRoundTripper{state: make(map[string]mockObj)}
	st, err := New(context.Background(), Config{
		Bucket:     bucket,
		Region:     "us-east-1",
		Endpoint:   "https://mock.s3.local",
		PathStyle:  true,
		HTTPClient: &http.Client{Transport: rt},
	}, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")))
	if err != nil {
		panic(err)
	}
	return st
}

type mockRoundTripper struct {
	mu    sync.Mutex
	state map[string]mockObj
}

type mockObj struct {
	body        []byte
	contentType string
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// path-style: /bucket/key
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch req.Method {
	case http.MethodHead:
		if st, ok := m.state[key]; ok {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: objectHeader(st)}, nil
		}
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		if _, exists := m.state[key]; !exists {
			m.state[key] = mockObj{body: body, contentType: req.Header.Get("Content-Type")}
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
	case http.MethodGet:
		if st, ok := m.state[key]; ok {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(st.body)), Header: objectHeader(st)}, nil
		}
		body := "<?xml version=\"1.0\" encoding=\"UTF-8\"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>"
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{"Content-Type": {"application/xml"}}}, nil
	}
	return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

func objectHeader(st mockObj) http.Header {
	return http.Header{
		"Content-Length": {fmt.Sprintf("%d", len(st.body))},
		"Content-Type":   {st.contentType},
		"ETag":           {"\"etag\""},
		"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
	}
}

// decodeChunked decodes a single-chunk aws-chunked payload:
// <hex>\r\n<body>\r\n0\r\n[trailers]
func decodeChunked(b []byte) ([]byte, bool) {
	s := string(b)
	head, rest, ok := strings.Cut(s, "\r\n")
	if !ok {
		return nil, false
	}
	var size int
	if _, err := fmt.Sscanf(head, "%x", &size); err != nil {
		return nil, false
	}
	if len(rest) < size+2 || rest[size:size+2] != "\r\n" || !strings.HasPrefix(rest[size+2:], "0") {
		return nil, false
	}
	return []byte(rest[:size]), true
}
