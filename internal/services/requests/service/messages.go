package service

import (
	"fmt"
	"strings"

	"wikidomains/internal/services/requests/domain"
)

const (
	msgPointed        = "Domain is pointed via CNAME."
	msgNotPointed     = "Domain is not pointed via CNAME. It is possible it is pointed via other means."
	msgIndeterminate  = "%s could not determine whether or not this domain is pointed: DNS returned no data during CNAME check."
	msgReopened       = "Request reopened by %s with the following changes:\n\n%s"
	msgEdited         = "Request edited by %s with the following changes:\n\n%s"
	msgStatusUpdated  = "Status updated to %s."
	msgStatusComment  = "\n\nComment given by %s: %s"
	msgProvActive     = "SSL certificate for %s is now active and the wiki server name has been updated."
	msgProvError      = "%s encountered an error while provisioning the certificate: %s"
	msgProvVerify     = "The provider reported verification errors for %s:\n\n%s"
	msgProvBlocked    = "The provider blocked the custom hostname %s. Manual review is required."
	msgProvOther      = "The provider reported an unexpected status for %s: %s"
	msgProvTimeout    = "Provisioning for %s did not become active in time. Please check the provider dashboard."
	msgProvPermission = "%s could not provision %s: the requester is no longer a bureaucrat on %s."
)

func checkComment(p domain.Policy, v domain.CheckVerdict) string {
	switch v {
	case domain.VerdictPointed:
		return msgPointed
	case domain.VerdictNotPointed:
		return msgNotPointed
	}
	return fmt.Sprintf(msgIndeterminate, p.Label)
}

// change is one edited field, rendered into the reopen or edit comment
type change struct {
	field    string
	from, to string
}

func changeLines(cs []change) string {
	lines := make([]string, 0, len(cs))
	for _, c := range cs {
		lines = append(lines, fmt.Sprintf("Changed %s from %q to %q", c.field, c.from, c.to))
	}
	return strings.Join(lines, "\n")
}

func editComment(reopened bool, by string, cs []change) string {
	if reopened {
		return fmt.Sprintf(msgReopened, by, changeLines(cs))
	}
	return fmt.Sprintf(msgEdited, by, changeLines(cs))
}

func statusComment(st domain.Status, by, comment string) string {
	s := fmt.Sprintf(msgStatusUpdated, st)
	if comment != "" {
		s += fmt.Sprintf(msgStatusComment, by, comment)
	}
	return s
}

// provisionComment renders a provider outcome for the request trail
func provisionComment(p domain.Policy, host string, res domain.ProvisionResult) string {
	switch {
	case res.Active():
		return fmt.Sprintf(msgProvActive, host)
	case len(res.VerificationErrors) > 0:
		return fmt.Sprintf(msgProvVerify, host, strings.Join(res.VerificationErrors, "\n"))
	case res.Status == domain.ProvisionBlocked:
		return fmt.Sprintf(msgProvBlocked, host)
	case res.Status == domain.ProvisionTimeout:
		return fmt.Sprintf(msgProvTimeout, host)
	case res.Status == domain.ProvisionError:
		return fmt.Sprintf(msgProvError, p.Label, res.Detail)
	}
	detail := res.Status
	if res.Detail != "" {
		detail += ": " + res.Detail
	}
	return fmt.Sprintf(msgProvOther, host, detail)
}
