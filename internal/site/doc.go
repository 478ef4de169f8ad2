// Package site exposes the public pages and the admin panel as a JSON API.
//
// The router is built with chi. Public endpoints serve projects, news, the
// ticker, the gallery sample, layout and lightbox view-models, the contact
// relay and the language preference. Admin endpoints drive the admin
// controller and are guarded by the session flag or, when configured, a
// bearer API token. List responses carry the data source they were served
// from and write responses carry the degraded flag.
package site
