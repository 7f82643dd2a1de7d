package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// provider hostname statuses
const (
	StatusActive  = "active"
	StatusPending = "pending"
	StatusBlocked = "blocked"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// codeDuplicate is returned when the hostname already exists in the zone
const codeDuplicate = 1406

// APIError is a 4xx or 5xx response from the provider
type APIError struct {
	Status   int
	Messages []apiMessage
	Body     string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("cloudflare: %d %s", e.Status, e.Messages[0].Message)
	}
	return fmt.Sprintf("cloudflare: http %d", e.Status)
}

// HTTPStatus exposes the response status
func (e *APIError) HTTPStatus() int { return e.Status }

// Duplicate reports whether the provider rejected the create because the hostname exists
func (e *APIError) Duplicate() bool {
	for _, m := range e.Messages {
		if m.Code == codeDuplicate || strings.Contains(strings.ToLower(m.Message), "already exists") {
			return true
		}
	}
	return false
}

// Outcome is a classified provider response
// Final is false only for a pending hostname without verification errors
type Outcome struct {
	Status             string
	HostnameID         string
	VerificationErrors []string
	Detail             string
	Final              bool
}

// Classify turns a provider response or failure into an Outcome
func Classify(h Hostname, err error) Outcome {
	if err != nil {
		var ae *APIError
		if errors.As(err, &ae) && len(ae.Messages) > 0 {
			return Outcome{Status: StatusError, Detail: ae.Messages[0].Message, Final: true}
		}
		return Outcome{Status: StatusError, Detail: err.Error(), Final: true}
	}
	if h.ID == "" {
		// nothing to poll without an id
		if strings.TrimSpace(h.Raw) == "" {
			return Outcome{Status: StatusError, Detail: "empty response from provider", Final: true}
		}
		return Outcome{Status: StatusError, Detail: "no hostname id in provider response: " + h.Raw, Final: true}
	}

	o := Outcome{Status: h.Status, HostnameID: h.ID, Final: true}
	switch h.Status {
	case StatusActive, StatusBlocked:
	case StatusPending:
		if len(h.VerificationErrors) == 0 {
			o.Final = false
		} else {
			o.VerificationErrors = append([]string(nil), h.VerificationErrors...)
		}
	default:
		o.Detail = h.Status
	}
	return o
}

// Start creates the hostname, or adopts an existing one with the same name
func (c *Client) Start(ctx context.Context, domain, tlsVersion string) Outcome {
	h, err := c.CreateHostname(ctx, domain, tlsVersion)
	var ae *APIError
	if errors.As(err, &ae) && ae.Duplicate() {
		found, ok, ferr := c.FindHostname(ctx, domain)
		switch {
		case ferr != nil:
			err = ferr
		case ok:
			c.log.Info().Str("hostname", found.Hostname).Str("id", found.ID).Msg("adopting existing custom hostname")
			h, err = found, nil
		}
	}
	return Classify(h, err)
}

// Poll fetches the hostname once and classifies it
func (c *Client) Poll(ctx context.Context, id string) Outcome {
	o := Classify(c.Hostname(ctx, id))
	if o.HostnameID == "" {
		o.HostnameID = id
	}
	return o
}

// Provision creates the hostname then polls until it leaves pending,
// reports verification errors, or MaxPolls is reached
func (c *Client) Provision(ctx context.Context, domain, tlsVersion string) Outcome {
	o := c.Start(ctx, domain, tlsVersion)
	for polls := 0; !o.Final; polls++ {
		if polls >= c.opts.MaxPolls {
			return Outcome{Status: StatusTimeout, HostnameID: o.HostnameID, Final: true}
		}
		if err := c.sleep(ctx, c.opts.PollInterval); err != nil {
			return Outcome{Status: StatusError, HostnameID: o.HostnameID, Detail: err.Error(), Final: true}
		}
		o = c.Poll(ctx, o.HostnameID)
	}
	return o
}
