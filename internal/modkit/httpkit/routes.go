package httpkit

import "net/http"

// Get mounts fn on GET path
func Get(r Router, path string, fn func(*http.Request) (any, error)) { r.Get(path, Call(fn)) }

// Post mounts a bodiless fn on POST path, for actions like close or recheck
func Post(r Router, path string, fn func(*http.Request) (any, error)) { r.Post(path, Call(fn)) }

// PostJSON mounts fn on POST path with a decoded T body
func PostJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Post(path, JSON(fn))
}

// PatchJSON mounts fn on PATCH path with a decoded T body
func PatchJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Patch(path, JSON(fn))
}
