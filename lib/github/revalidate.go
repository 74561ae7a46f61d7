// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"net/http"
	"sync"
)

// cachedResponse is the last 200 body seen for a request path together
// with the validator the server attached to it.
type cachedResponse struct {
	etag string
	body []byte
}

// revalidator turns repeat GETs into conditional requests. The dataset
// touches a bounded set of paths so nothing is evicted.
type revalidator struct {
	mu     sync.Mutex
	byPath map[string]cachedResponse
}

func newRevalidator() *revalidator {
	return &revalidator{byPath: make(map[string]cachedResponse)}
}

// prepare adds If-None-Match when a validator is known for path.
func (r *revalidator) prepare(request *http.Request, path string) {
	r.mu.Lock()
	cached, ok := r.byPath[path]
	r.mu.Unlock()
	if ok {
		request.Header.Set("If-None-Match", cached.etag)
	}
}

// notModified returns the stored body for a 304 answer.
func (r *revalidator) notModified(path string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cached, ok := r.byPath[path]
	return cached.body, ok
}

// remember stores body under the response's ETag, if it has one.
func (r *revalidator) remember(path string, header http.Header, body []byte) {
	etag := header.Get("ETag")
	if etag == "" {
		return
	}
	r.mu.Lock()
	r.byPath[path] = cachedResponse{etag: etag, body: body}
	r.mu.Unlock()
}
