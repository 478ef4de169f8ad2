// Package session holds the admin credentials and the site's default display
// language.
//
// A Session is created once, initialized from the local cache, and handed to
// request handlers through the context. Each successful login issues an
// opaque token for that client; only SHA-256 digests of live tokens are
// persisted, under the adminAuthenticated cache key, so a daemon and the CLI
// sharing one cache see each other's logins and logouts. Authentication is a
// single shared password without expiry or rate limiting; it gates the admin
// screens of a small marketing site and nothing more.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"sebasite/internal/localcache"
	"sebasite/internal/logging"
	"sebasite/internal/services"
)

// Supported display languages.
const (
	LanguageTurkish = "tr"
	LanguageEnglish = "en"
)

// maxTokens bounds the persisted token list; the oldest logins are dropped
// first.
const maxTokens = 32

var (
	supported = []language.Tag{language.Turkish, language.English}
	matcher   = language.NewMatcher(supported)
)

// Options configures a Session.
type Options struct {
	Password        string
	DefaultLanguage string
}

// Session is the explicit admin/language state shared by handlers.
type Session struct {
	cache    localcache.Store
	password string
	fallback string
	logger   *slog.Logger

	init   sync.Once
	mu     sync.RWMutex
	tokens []string
	lang   string
}

// New creates a session persisted in cache. Call Init before use.
func New(cache localcache.Store, opts Options, logger *slog.Logger) *Session {
	fallback, ok := MatchLanguage(opts.DefaultLanguage)
	if !ok {
		fallback = LanguageTurkish
	}
	return &Session{
		cache:    cache,
		password: opts.Password,
		fallback: fallback,
		lang:     fallback,
		logger:   logging.NewComponentLogger(logger, "session"),
	}
}

// Init loads the persisted token digests and language. Only the first call
// reads the cache; later calls return nil.
func (s *Session) Init(ctx context.Context) error {
	var initErr error
	s.init.Do(func() {
		authValue, _, err := s.cache.Get(ctx, localcache.KeyAdminAuthenticated)
		if err != nil {
			initErr = fmt.Errorf("read admin tokens: %w", err)
			return
		}
		langValue, _, err := s.cache.Get(ctx, localcache.KeyLanguage)
		if err != nil {
			initErr = fmt.Errorf("read language: %w", err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.tokens = s.decodeTokens(authValue)
		if lang, ok := MatchLanguage(langValue); ok {
			s.lang = lang
		}
	})
	return initErr
}

// Authenticated reports whether token was issued by Login and has not been
// logged out. The persisted digests are re-read so tokens issued or revoked
// by another process sharing the cache take effect immediately; if the cache
// cannot be read the last known set is used.
func (s *Session) Authenticated(ctx context.Context, token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	digest := digestOf(token)

	value, _, err := s.cache.Get(ctx, localcache.KeyAdminAuthenticated)
	if err != nil {
		logging.WarnWithContext(s.logger, "admin token lookup fell back to memory", "session_cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the local cache path and permissions"))
		s.mu.RLock()
		defer s.mu.RUnlock()
		return slices.Contains(s.tokens, digest)
	}

	tokens := s.decodeTokens(value)
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
	return slices.Contains(tokens, digest)
}

// Login compares password with the configured admin password and, on
// success, issues and persists a new client token. On mismatch an error
// marked services.ErrAuth is returned and no token is issued.
func (s *Session) Login(ctx context.Context, password string) (string, error) {
	if s.password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		s.logger.Info("admin login rejected", logging.String(logging.FieldEventType, "admin_login_failed"))
		return "", services.Wrap(services.ErrAuth, "session", "login", "incorrect password", nil)
	}
	token := rand.Text()
	digest := digestOf(token)
	if err := s.updateTokens(ctx, func(tokens []string) []string {
		tokens = append(tokens, digest)
		if len(tokens) > maxTokens {
			tokens = tokens[len(tokens)-maxTokens:]
		}
		return tokens
	}); err != nil {
		return "", fmt.Errorf("persist admin token: %w", err)
	}
	s.logger.Info("admin logged in", logging.String(logging.FieldEventType, "admin_login"))
	return token, nil
}

// Logout revokes token. Unknown tokens are ignored.
func (s *Session) Logout(ctx context.Context, token string) error {
	digest := digestOf(strings.TrimSpace(token))
	if err := s.updateTokens(ctx, func(tokens []string) []string {
		return slices.DeleteFunc(tokens, func(d string) bool { return d == digest })
	}); err != nil {
		return fmt.Errorf("revoke admin token: %w", err)
	}
	s.logger.Info("admin logged out", logging.String(logging.FieldEventType, "admin_logout"))
	return nil
}

// RevokeAll logs every client out.
func (s *Session) RevokeAll(ctx context.Context) error {
	if err := s.cache.Delete(ctx, localcache.KeyAdminAuthenticated); err != nil {
		return fmt.Errorf("clear admin tokens: %w", err)
	}
	s.mu.Lock()
	s.tokens = nil
	s.mu.Unlock()
	s.logger.Info("all admin sessions revoked", logging.String(logging.FieldEventType, "admin_logout_all"))
	return nil
}

func (s *Session) updateTokens(ctx context.Context, change func([]string) []string) error {
	var next []string
	err := s.cache.Update(ctx, localcache.KeyAdminAuthenticated, func(value string, _ bool) (string, error) {
		next = change(s.decodeTokens(value))
		data, err := json.Marshal(next)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tokens = next
	s.mu.Unlock()
	return nil
}

// decodeTokens parses the persisted digest list. Anything else, including
// the bare "true" flag written by older releases, yields no tokens.
func (s *Session) decodeTokens(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	var tokens []string
	if err := json.Unmarshal([]byte(value), &tokens); err != nil {
		s.logger.Debug("ignoring unrecognized admin token value", logging.Error(err))
		return nil
	}
	return tokens
}

func digestOf(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Language returns the site's default display language.
func (s *Session) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// SetLanguage switches and persists the site's default display language.
// Regional variants such as en-GB resolve to their base language.
func (s *Session) SetLanguage(ctx context.Context, value string) (string, error) {
	lang, err := ParseLanguage(value)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, localcache.KeyLanguage, lang); err != nil {
		return "", fmt.Errorf("persist language: %w", err)
	}
	s.mu.Lock()
	s.lang = lang
	s.mu.Unlock()
	return lang, nil
}

// ParseLanguage is MatchLanguage returning a validation error for
// unsupported values.
func ParseLanguage(value string) (string, error) {
	lang, ok := MatchLanguage(value)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "session", "language",
			fmt.Sprintf("unsupported language %q (want en or tr)", value), nil)
	}
	return lang, nil
}

// MatchLanguage resolves a BCP 47 tag to a supported language.
func MatchLanguage(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence < language.High {
		return "", false
	}
	return baseOf(supported[index]), true
}

// MatchAcceptLanguage picks a supported language from an Accept-Language
// header, falling back to def.
func MatchAcceptLanguage(header, def string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return def
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence < language.High {
		return def
	}
	return baseOf(supported[index])
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

type contextKey struct{}

// WithContext attaches s to ctx.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached to ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
