// Package api provides the JSON REST client shared by partner adapters.
//
// Requests are retried with exponential backoff on 429 and 5xx responses.
// Other 4xx responses and transport errors are returned immediately.
package api
