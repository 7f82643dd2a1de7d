// Package http holds the return-style handler model and the router seam modules mount on
package http

import (
	stdhttp "net/http"

	pnet "wikidomains/internal/platform/net"
)

// Envelope is the JSON body shape, see pnet.Envelope
type Envelope = pnet.Envelope

// Page is list pagination, Cursor is set when the listing is keyset paged
type Page struct {
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Cursor   string `json:"cursor,omitempty"`
}

// JSON writes v with status
func JSON(w stdhttp.ResponseWriter, status int, v any) { pnet.WriteJSON(w, status, v) }

// Response is what a return-style handler produces
// an error Body is rendered through the error envelope and Status is ignored
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// Handle adapts a return-style handler to net/http
func Handle(h func(*stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) { h(r).render(w, r) }
}

func (resp Response) render(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	reqID := pnet.RequestID(r.Context())

	if err, ok := resp.Body.(error); ok && err != nil {
		env := pnet.ErrorEnvelope(err, reqID)
		JSON(w, env.StatusCode, env)
		return
	}
	status := resp.Status
	switch status {
	case 0:
		status = stdhttp.StatusOK
	case stdhttp.StatusNoContent:
		w.WriteHeader(status)
		return
	}
	JSON(w, status, pnet.DataEnvelope(status, resp.Body, reqID))
}

// OK is a 200 with data
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Created is a 201 with the new resource
func Created(data any) Response { return Response{Status: stdhttp.StatusCreated, Body: data} }

// Accepted is a 202 for work handed to the job queue
func Accepted(data any) Response { return Response{Status: stdhttp.StatusAccepted, Body: data} }

// NoContent is a bodyless 204
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error renders err through the error envelope
func Error(err error) Response { return Response{Body: err} }

// List is a 200 carrying one page of items
func List(items any, total, page, size int, cursor string) Response {
	type listing struct {
		Items any  `json:"items"`
		Page  Page `json:"page"`
	}
	return OK(listing{Items: items, Page: Page{Total: total, Page: page, PageSize: size, Cursor: cursor}})
}
