// Package env holds the few lookups that happen before config is parsed.
package env

import "os"

// Get returns the environment value for key, or fallback when unset or
// empty. Typed configuration belongs in pkg/config; this is for bootstrap
// knobs only.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
