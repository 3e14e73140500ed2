package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/timeaccount"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the provider's v2 REST API.
const DefaultBaseURL = "https://api.harvestapp.com/v2"

// Options configures a Client.
type Options struct {
	BaseURL   string // defaults to DefaultBaseURL
	AccountID string // sent as Harvest-Account-Id
	UserAgent string
}

// Client is an authenticated provider API client. The token exchange and
// refresh are owned by the TokenSource the caller supplies.
type Client struct {
	httpClient *http.Client
	opts       Options
}

// NewClient creates a client that authorizes every request through ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "timebank"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{
		httpClient: oauth2.NewClient(ctx, ts),
		opts:       opts,
	}
}

// NewTokenClient is NewClient for a personal access token.
func NewTokenClient(ctx context.Context, accessToken string, opts Options) *Client {
	return NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}), opts)
}

// TimeEntries fetches every entry of userID with a spent date in p, following
// pagination links until exhausted.
func (c *Client) TimeEntries(ctx context.Context, userID string, p calendar.Period) ([]timeaccount.TimeEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("from", p.Start.String())
	q.Set("to", p.End.String())
	if userID != "" {
		q.Set("user_id", userID)
	}
	endpoint := c.opts.BaseURL + "/time_entries?" + q.Encode()

	var raw []RawTimeEntry
	for endpoint != "" {
		page, err := c.fetchPage(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		raw = append(raw, page.TimeEntries...)
		endpoint = page.Links.Next
	}
	return ToTimeEntries(raw)
}

func (c *Client) fetchPage(ctx context.Context, endpoint string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if c.opts.AccountID != "" {
		req.Header.Set("Harvest-Account-Id", c.opts.AccountID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("time entries request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("time entries API error %d: %s", resp.StatusCode, string(body))
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decoding time entries response: %w", err)
	}
	return &page, nil
}
