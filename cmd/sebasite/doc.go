// Command sebasite is the operator CLI for the SEBA site.
//
// It runs the API daemon (serve, start, stop, status), manages projects and
// news against the configured record store with the same cache fallback the
// site uses, previews derived views (gallery, ticker, layout), compresses and
// exports images, inspects the local cache, and tails the daemon log. Every
// listing command accepts -o table|json|yaml.
package main
