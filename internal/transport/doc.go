// Package transport builds the HTTP clients used to reach remote inference
// endpoints, optionally through a SOCKS5 proxy.
package transport
