// Package views derives the display models the public pages render: the
// news ticker, the project lightbox, the scattered desktop layout and the
// project and news cards. Everything here is pure and safe to call from any
// goroutine.
package views
