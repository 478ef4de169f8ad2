package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"sebasite/internal/config"
	"sebasite/internal/services"
)

const userAgent = "SEBA-Site/1.0"

// ContactTitle is the ntfy title attached to every contact submission.
const ContactTitle = "SEBA - Contact"

// Message is one contact form submission.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Normalize trims every field.
func (m Message) Normalize() Message {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Message = strings.TrimSpace(m.Message)
	return m
}

// Validate reports missing fields and malformed addresses.
func (m Message) Validate() error {
	m = m.Normalize()
	var problems []string
	if m.Name == "" {
		problems = append(problems, "name is required")
	}
	if m.Email == "" {
		problems = append(problems, "email is required")
	} else if _, err := mail.ParseAddress(m.Email); err != nil {
		problems = append(problems, "email is not a valid address")
	}
	if m.Message == "" {
		problems = append(problems, "message is required")
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "contact", "validate", strings.Join(problems, "; "), nil)
}

// Service defines the notification surface used by the site.
type Service interface {
	SendContact(ctx context.Context, msg Message) error
	TestNotification(ctx context.Context) error
	Enabled() bool
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Contact.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.ContactTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	email    string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) SendContact(ctx context.Context, msg Message) error {
	msg = msg.Normalize()
	if err := msg.Validate(); err != nil {
		return err
	}
	// Validate accepted the address; only the bare addr-spec is forwarded so a
	// display name cannot reach the headers.
	addr, err := mail.ParseAddress(msg.Email)
	if err != nil {
		return services.Wrap(services.ErrValidation, "contact", "send", "email is not a valid address", err)
	}
	data := payload{
		title:   ContactTitle,
		message: fmt.Sprintf("İletişim Formu - %s\nFrom: %s <%s>\n\n%s", msg.Name, msg.Name, addr.Address, msg.Message),
		tags:    []string{"seba", "contact"},
		email:   addr.Address,
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "SEBA - Test",
		message:  "Contact relay test",
		tags:     []string{"seba", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}
	if data.email != "" {
		req.Header.Set("Click", "mailto:"+data.email)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrRemoteUnavailable, "contact", "send", "ntfy request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrRemoteUnavailable, "contact", "send",
			fmt.Sprintf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Enabled() bool { return false }

func (noopService) SendContact(_ context.Context, msg Message) error { return msg.Validate() }

func (noopService) TestNotification(context.Context) error { return nil }
