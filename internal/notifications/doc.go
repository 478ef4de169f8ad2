// Package notifications relays contact form submissions to an ntfy topic.
//
// NewService returns a no-op implementation when no topic is configured, so
// handlers can always call it. Delivery failures are returned to the caller;
// the contact form reports them as a send error.
package notifications
