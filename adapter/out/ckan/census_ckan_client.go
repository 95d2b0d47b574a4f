// Package ckan implements the CKAN Action API survey adapter.
package ckan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"census_server/core/domain"
	"census_server/pkg/httputil"
	"census_server/pkg/logger"
	"census_server/pkg/metrics"
	"census_server/pkg/ratelimit"
	"census_server/pkg/resilience"
)

const (
	actionPath = "/api/3/action/"

	// Responses past this size are truncated rather than parsed fully.
	maxBodyBytes = 4 << 20
)

// Client surveys live CKAN portals through the Action API. All probes
// degrade: a portal that refuses to answer produces empty metadata, never
// an error that would abort the pipeline.
type Client struct {
	http      *http.Client
	protector *ratelimit.SurveyProtector
	breaker   *resilience.CircuitBreaker
	retry     *resilience.RetryConfig
	log       *logger.Logger
}

// NewClient creates a survey client. protector may be nil, in which case
// requests are not rate limited (useful in tests).
func NewClient(protector *ratelimit.SurveyProtector) *Client {
	return &Client{
		http:      httputil.CKANClient(),
		protector: protector,
		breaker:   resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("ckan")),
		retry:     resilience.DefaultRetryConfig(),
		log:       logger.NewLogger("ckan-client"),
	}
}

// NewClientWithHTTP creates a client using the given HTTP client, for tests
// against httptest servers.
func NewClientWithHTTP(httpClient *http.Client) *Client {
	c := NewClient(nil)
	c.http = httpClient
	return c
}

// actionEnvelope is the standard CKAN Action API response wrapper.
type actionEnvelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// statusResult is the payload of status_show.
type statusResult struct {
	SiteTitle       string   `json:"site_title"`
	SiteDescription string   `json:"site_description"`
	CKANVersion     string   `json:"ckan_version"`
	ErrorEmailTo    string   `json:"error_emails_to"`
	LocaleDefault   string   `json:"locale_default"`
	Extensions      []string `json:"extensions"`
}

// NormalizeURL turns whatever appears in the input into a base URL the
// Action API can be appended to. Trailing slashes and a trailing /api
// segment are stripped; a missing scheme defaults to https.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Path = strings.TrimSuffix(u.Path, "/api")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// Survey probes the portal and assembles its metadata. Individual probe
// failures are logged and skipped; the zero-value metadata is a valid
// answer for a portal that is down.
func (c *Client) Survey(ctx context.Context, rawURL string) (domain.PortalMetadata, error) {
	var meta domain.PortalMetadata

	base := NormalizeURL(rawURL)
	if base == "" {
		return meta, fmt.Errorf("unusable portal url %q", rawURL)
	}

	host := hostOf(base)
	if c.protector != nil {
		result, release := c.protector.AcquireWithWait(ctx, host, 5*time.Second)
		if !result.Allowed {
			return meta, fmt.Errorf("survey of %s skipped: %s", host, result.Reason)
		}
		defer release()
	}

	start := time.Now()
	defer func() {
		metrics.RecordLatency("ckan.survey", time.Since(start))
	}()

	if status, err := c.statusShow(ctx, base); err == nil {
		meta.SiteTitle = status.SiteTitle
		meta.SiteDescription = status.SiteDescription
		meta.CKANVersion = status.CKANVersion
		meta.ContactEmail = status.ErrorEmailTo
		meta.PrimaryLanguage = status.LocaleDefault
		meta.Extensions = status.Extensions
	} else {
		c.log.WithError(err).WithPortal(base).Debug("status_show failed")
	}

	meta.NumGroups = c.countList(ctx, base, "group_list")
	meta.NumOrganizations = c.countList(ctx, base, "organization_list")
	meta.NumDatasets = c.countList(ctx, base, "package_list")

	return meta, nil
}

// Alive reports whether the portal answers status_show.
func (c *Client) Alive(ctx context.Context, rawURL string) bool {
	base := NormalizeURL(rawURL)
	if base == "" {
		return false
	}
	_, err := c.statusShow(ctx, base)
	return err == nil
}

func (c *Client) statusShow(ctx context.Context, base string) (*statusResult, error) {
	raw, err := c.action(ctx, base, "status_show")
	if err != nil {
		return nil, err
	}

	var status statusResult
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("status_show: %w", err)
	}
	return &status, nil
}

// countList runs a list action (group_list, organization_list, package_list)
// and returns the element count, 0 on any failure.
func (c *Client) countList(ctx context.Context, base, action string) int {
	raw, err := c.action(ctx, base, action)
	if err != nil {
		c.log.WithError(err).WithPortal(base).Debug("%s failed", action)
		return 0
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return 0
	}
	return len(names)
}

// action performs one Action API GET with retry and breaker protection.
func (c *Client) action(ctx context.Context, base, action string) (json.RawMessage, error) {
	endpoint := base + actionPath + action

	var result json.RawMessage
	err := resilience.Retry(ctx, c.retry, func() error {
		return c.breaker.ExecuteContext(ctx, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%s returned %d", action, resp.StatusCode)
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if err != nil {
				return err
			}

			var envelope actionEnvelope
			if err := json.Unmarshal(body, &envelope); err != nil {
				return fmt.Errorf("%s: bad envelope: %w", action, err)
			}
			if !envelope.Success {
				return fmt.Errorf("%s: success=false", action)
			}

			result = envelope.Result
			return nil
		})
	})

	return result, err
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
