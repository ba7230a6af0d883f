//go:build !js
// +build !js

package resources

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// FetchHTTP
// Fetch a resource from a remote HTTP server with optional bearer token auth.
func FetchHTTP(uri string, auth string) (io.ReadCloser, error) {
	req, reqErr := http.NewRequest("GET", uri, nil)
	if reqErr != nil {
		return nil, reqErr
	}
	if auth != "" {
		req.Header.Add("Authorization", "Bearer "+auth)
	}
	resp, remoteErr := http.DefaultClient.Do(req)
	if remoteErr != nil {
		return nil, remoteErr
	}
	if resp.StatusCode != 200 {
		resp.Body.Close()
		return nil, errors.New(fmt.Sprintf("HTTP status code %d",
			resp.StatusCode))
	}
	return resp.Body, nil
}

// SizeHTTP
// Get the size of a remote resource. Servers that do not report a length
// yield 0.
func SizeHTTP(uri string, auth string) (uint, error) {
	req, reqErr := http.NewRequest("HEAD", uri, nil)
	if reqErr != nil {
		return 0, reqErr
	}
	if auth != "" {
		req.Header.Add("Authorization", "Bearer "+auth)
	}
	resp, remoteErr := http.DefaultClient.Do(req)
	if remoteErr != nil {
		return 0, remoteErr
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		return 0, errors.New(fmt.Sprintf("HTTP status code %d",
			resp.StatusCode))
	}
	size, _ := strconv.Atoi(resp.Header.Get("Content-Length"))
	return uint(size), nil
}
