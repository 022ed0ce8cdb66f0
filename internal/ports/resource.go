package ports

import (
	"context"
	"net/http"
)

// ResourceRequest describes an upstream data call made on behalf of an
// authenticated session.
type ResourceRequest struct {
	Method string
	// Path is the upstream path, including any query string.
	Path   string
	Header http.Header
	Body   []byte
}

// ResourceResponse is the upstream's answer, passed through opaquely.
type ResourceResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// ResourceFetcher forwards data calls to the upstream API using the
// session's ambient credential. Credential rejections surface as errors so
// the call wrapper can refresh and retry; other upstream statuses pass
// through in the response.
type ResourceFetcher interface {
	FetchResource(ctx context.Context, req ResourceRequest) (ResourceResponse, error)
}
