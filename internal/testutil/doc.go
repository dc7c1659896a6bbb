// Package testutil contains helper probes and utilities used across tests to
// reduce boilerplate when constructing sources and asserting concurrency
// behaviors. These helpers are intentionally minimal and avoid adding
// third-party dependencies. They are not intended for production usage.
package testutil
