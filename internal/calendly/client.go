// Package calendly is a read-only client for the Calendly v2 scheduling API.
package calendly

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coldlead_backend/platform/config"
	"coldlead_backend/platform/logger"
	"coldlead_backend/platform/validator"
)

const (
	defaultBaseURL = "https://api.calendly.com"
	pageSize       = "100"
)

// Client reads scheduled events and invitees from Calendly.
type Client struct {
	baseURL      string
	token        string
	user         string
	organization string
	httpClient   *http.Client
	val          *validator.Validator
	log          *logger.Logger
}

// New creates a Calendly client for the configured organizer.
func New(cfg config.CalendlyConfig, val *validator.Validator, log *logger.Logger) *Client {
	return &Client{
		baseURL:      defaultBaseURL,
		token:        cfg.GetCalendlyToken(),
		user:         cfg.GetCalendlyUser(),
		organization: cfg.GetCalendlyOrganization(),
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		val:          val,
		log:          log,
	}
}

// WithBaseURL points the client at another API host.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// ListEvents returns active events starting in [from, until).
// Pagination follows next_page until exhausted. A failing page after the
// first one truncates the listing and the events fetched so far are returned.
func (c *Client) ListEvents(ctx context.Context, from, until time.Time) ([]Event, error) {
	params := url.Values{}
	if c.user != "" {
		params.Set("user", c.user)
	}
	if c.organization != "" {
		params.Set("organization", c.organization)
	}
	params.Set("min_start_time", from.UTC().Format(time.RFC3339))
	params.Set("max_start_time", until.UTC().Format(time.RFC3339))
	params.Set("status", "active")
	params.Set("count", pageSize)

	next := fmt.Sprintf("%s/scheduled_events?%s", c.baseURL, params.Encode())
	var events []Event
	for next != "" {
		var page eventsPage
		if err := c.get(ctx, next, &page); err != nil {
			if len(events) > 0 {
				c.log.Warn("calendly pagination failed, keeping partial events", "error", err, "events", len(events))
				break
			}
			return nil, fmt.Errorf("list calendly events: %w", err)
		}

		for _, raw := range page.Collection {
			ev := raw.toEvent()
			if err := c.val.Struct(ev); err != nil {
				c.log.Warn("dropping invalid calendly event", "uri", raw.URI, "start_time", raw.StartTime, "invalid", validator.Describe(err))
				continue
			}
			events = append(events, ev)
		}
		next = nextPage(page.Pagination)
	}

	return events, nil
}

// ListInvitees returns every invitee of the event identified by eventURI.
func (c *Client) ListInvitees(ctx context.Context, eventURI string) ([]Invitee, error) {
	params := url.Values{}
	params.Set("count", pageSize)
	next := fmt.Sprintf("%s/invitees?%s", strings.TrimRight(eventURI, "/"), params.Encode())

	var invitees []Invitee
	for next != "" {
		var page inviteesPage
		if err := c.get(ctx, next, &page); err != nil {
			if len(invitees) > 0 {
				c.log.Warn("calendly invitee pagination failed, keeping partial invitees", "event", eventURI, "error", err)
				break
			}
			return nil, fmt.Errorf("list calendly invitees: %w", err)
		}
		for _, raw := range page.Collection {
			invitees = append(invitees, raw.toInvitee())
		}
		next = nextPage(page.Pagination)
	}

	return invitees, nil
}

func nextPage(p pagination) string {
	if p.NextPage == nil {
		return ""
	}
	return strings.TrimSpace(*p.NextPage)
}

func (c *Client) get(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("calendly returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
