// Package textutil provides filename sanitization and URL-safe slugs for
// project titles, including Turkish letters.
package textutil
