// Package instance names the running process for lock ownership and logs.
package instance

import "os"

const fallbackID = "storefront-0"

// ID returns STOREFRONT_INSTANCE_ID, then the hostname, then a fixed fallback.
func ID() string {
	if id := os.Getenv("STOREFRONT_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
