// Package http exposes the cached analysis dataset over a small JSON API:
// derived metrics, the correlation matrix and a health endpoint.
package http
