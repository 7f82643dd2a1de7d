package middleware

import perr "wikidomains/internal/platform/errors"

var errMissingCredentials = perr.Unauthorizedf("missing bearer token")
