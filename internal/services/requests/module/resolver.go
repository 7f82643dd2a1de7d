package module

import (
	"context"
	"strconv"
	"strings"

	perr "wikidomains/internal/platform/errors"
	pnet "wikidomains/internal/platform/net"
	"wikidomains/internal/services/requests/domain"
)

// tokenResolver maps "Bearer <user id>" onto a directory user
type tokenResolver struct {
	users domain.UserDirectory
}

func (t tokenResolver) resolve(ctx context.Context, token string) (pnet.Principal, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
	if err != nil || id <= 0 {
		return pnet.Principal{}, perr.Unauthorizedf("bearer token is not a user id")
	}
	a, ok, err := t.users.ByID(ctx, id)
	if err != nil {
		return pnet.Principal{}, err
	}
	if !ok {
		return pnet.Principal{}, perr.Unauthorizedf("unknown user %d", id)
	}
	return pnet.Principal{ID: a.ID, Name: a.Name}, nil
}
