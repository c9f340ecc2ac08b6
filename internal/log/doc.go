// Package log builds slog loggers that mask secrets.
//
// The remote background remover is configured with an API key that travels
// in an Authorization header. SecureHandler masks attributes whose key names
// a credential, and string values that look like bearer tokens, basic auth
// or API keys, before they reach the underlying text or JSON handler.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("calling remover", "authorization", "Bearer abc") // masked
//
// Attributes whose key contains "hash" are never value-masked, so content
// digests stay readable.
package log
