// Package http provides http transport for domain requests
package http

import (
	stdhttp "net/http"
	"strings"

	"wikidomains/internal/modkit/httpkit"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/net/middleware"
	"wikidomains/internal/services/requests/domain"
	svc "wikidomains/internal/services/requests/service"
)

// Register mounts the routes; reads accept anonymous callers, writes need a bearer token
func Register(r httpkit.Router, s svc.Service, auth middleware.AuthPort) {
	h := &handlers{svc: s}

	httpkit.Public(r, auth, func(pub httpkit.Router) {
		httpkit.Get(pub, "/", h.list)
		httpkit.Get(pub, "/{id}", h.get)
		httpkit.Get(pub, "/{id}/comments", h.comments)
	})
	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.PostJSON[domain.SubmitInput](pr, "/", h.submit)
		httpkit.PatchJSON[domain.EditInput](pr, "/{id}", h.edit)
		httpkit.PostJSON[domain.CommentInput](pr, "/{id}/comments", h.comment)
		httpkit.PostJSON[domain.HandleInput](pr, "/{id}/handle", h.handle)
		httpkit.Post(pr, "/{id}/provision", h.provision)
		httpkit.Post(pr, "/{id}/check", h.check)
		httpkit.Get(pr, "/{id}/command", h.command)
	})
}

type handlers struct{ svc svc.Service }

func kindOf(r *stdhttp.Request) (domain.Kind, error) {
	return domain.ParseKind(httpkit.Param(r, "kind"))
}

// viewer is the caller when known, the zero actor otherwise
func viewer(r *stdhttp.Request) domain.Actor {
	p := httpkit.MaybePrincipal(r)
	if p.Anonymous() {
		return domain.Actor{}
	}
	return domain.UserActor(p.ID, p.Name)
}

func actor(r *stdhttp.Request) (domain.Actor, error) {
	p, err := httpkit.Principal(r)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.UserActor(p.ID, p.Name), nil
}

// target resolves kind, actor and request id for a write
func target(r *stdhttp.Request) (domain.Kind, domain.Actor, int64, error) {
	kind, err := kindOf(r)
	if err != nil {
		return "", domain.Actor{}, 0, err
	}
	who, err := actor(r)
	if err != nil {
		return "", domain.Actor{}, 0, err
	}
	id, err := httpkit.ParamInt64(r, "id")
	if err != nil {
		return "", domain.Actor{}, 0, err
	}
	return kind, who, id, nil
}

// swagger:route POST /{kind}/requests Requests submit
// @Summary Submit a domain request
// @Tags requests
// @Accept json
// @Produce json
// @Param kind path string true "Request kind" Enums(ssl, customdomain)
// @Param payload body domain.SubmitInput true "Request"
// @Success 201 {object} domain.SubmitResult "created"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Failure 409 {object} httpkit.Envelope "pending request exists"
// @Router /{kind}/requests [post]
func (h *handlers) submit(r *stdhttp.Request, in domain.SubmitInput) (any, error) {
	kind, err := kindOf(r)
	if err != nil {
		return nil, err
	}
	who, err := actor(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.Submit(r.Context(), kind, who, in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}

// swagger:route GET /{kind}/requests Requests list
// @Summary List the request queue
// @Tags requests
// @Produce json
// @Param kind path string true "Request kind" Enums(ssl, customdomain)
// @Param status query string false "Status filter"
// @Param target query string false "Target wiki"
// @Param requester query int false "Requester user id"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} domain.ListResult "ok"
// @Router /{kind}/requests [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	kind, err := kindOf(r)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	f := domain.Filter{Target: strings.TrimSpace(q.Get("target"))}
	if s := q.Get("status"); s != "" {
		if f.Status, err = domain.ParseStatus(s); err != nil {
			return nil, err
		}
	}
	requester, err := httpkit.QueryInt(r, "requester", 0)
	if err != nil {
		return nil, err
	}
	f.RequesterID = int64(requester)
	if f.Limit, err = httpkit.QueryInt(r, "limit", 0); err != nil {
		return nil, err
	}
	if f.Offset, err = httpkit.QueryInt(r, "offset", 0); err != nil {
		return nil, err
	}
	return h.svc.List(r.Context(), kind, viewer(r), f)
}

// swagger:route GET /{kind}/requests/{id} Requests get
// @Summary Get one request
// @Tags requests
// @Produce json
// @Param kind path string true "Request kind" Enums(ssl, customdomain)
// @Param id path int true "Request id"
// @Success 200 {object} domain.Request "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /{kind}/requests/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	kind, err := kindOf(r)
	if err != nil {
		return nil, err
	}
	id, err := httpkit.ParamInt64(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), kind, viewer(r), id)
}

// swagger:route GET /{kind}/requests/{id}/comments Requests comments
// @Summary List comments, newest first
// @Tags requests
// @Produce json
// @Param kind path string true "Request kind" Enums(ssl, customdomain)
// @Param id path int true "Request id"
// @Success 200 {array} domain.Comment "ok"
// @Router /{kind}/requests/{id}/comments [get]
func (h *handlers) comments(r *stdhttp.Request) (any, error) {
	kind, err := kindOf(r)
	if err != nil {
		return nil, err
	}
	id, err := httpkit.ParamInt64(r, "id")
	if err != nil {
		return nil, err
	}
	out, err := h.svc.Comments(r.Context(), kind, viewer(r), id)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Comment{}
	}
	return out, nil
}

// swagger:route PATCH /{kind}/requests/{id} Requests edit
// @Summary Edit a request, reopening it when declined
// @Tags requests
// @Accept json
// @Produce json
// @Param kind path string true "Request kind" Enums(ssl, customdomain)
// @Param id path int true "Request id"
// @Param payload body domain.EditInput true "Changes"
// @Success 200 {object} domain.EditResult "ok"
// @Failure 409 {object} httpkit.Envelope "no changes"
// @Failure 423 {object} httpkit.Envelope "locked"
// @Router /{kind}/requests/{id} [patch]
func (h *handlers) edit(r *stdhttp.Request, in domain.EditInput) (any, error) {
	kind, who, id, err := target(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Edit(r.Context(), kind, who, id, in)
}

// swagger:route POST /{kind}/requests/{id}/comments Requests comment
// @Summary Comment on a request
// @Tags requests
// @Accept json
// @Produce json
// @Param kind path string true "Request kind" Enums(ssl, customdomain)
// @Param id path int true "Request id"
// @Param payload body domain.CommentInput true "Comment"
// @Success 201 {object} domain.Comment "created"
// @Failure 423 {object} httpkit.Envelope "locked"
// @Router /{kind}/requests/{id}/comments [post]
func (h *handlers) comment(r *stdhttp.Request, in domain.CommentInput) (any, error) {
	kind, who, id, err := target(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.AddComment(r.Context(), kind, who, id, in.Text)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}

// swagger:route POST /{kind}/requests/{id}/handle Requests handle
// @Summary Moderate a request: status, lock and privacy
// @Tags requests
// @Accept json
// @Produce json
// @Param kind path string true "Request kind" Enums(ssl, customdomain)
// @Param id path int true "Request id"
// @Param payload body domain.HandleInput true "Action"
// @Success 200 {object} domain.HandleResult "ok"
// @Failure 403 {object} httpkit.Envelope "forbidden"
// @Failure 409 {object} httpkit.Envelope "no changes"
// @Router /{kind}/requests/{id}/handle [post]
func (h *handlers) handle(r *stdhttp.Request, in domain.HandleInput) (any, error) {
	kind, who, id, err := target(r)
	if err != nil {
		return nil, err
	}
	if in.Status == "" && in.Locked == nil && in.Private == nil {
		return nil, perr.NoChangef("nothing to do")
	}
	return h.svc.Handle(r.Context(), kind, who, id, in)
}

// swagger:route POST /{kind}/requests/{id}/provision Requests provision
// @Summary Queue certificate provisioning
// @Tags requests
// @Produce json
// @Param kind path string true "Request kind" Enums(ssl, customdomain)
// @Param id path int true "Request id"
// @Success 202 {object} domain.Enqueued "queued"
// @Failure 503 {object} httpkit.Envelope "provider not configured"
// @Router /{kind}/requests/{id}/provision [post]
func (h *handlers) provision(r *stdhttp.Request) (any, error) {
	kind, who, id, err := target(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.Provision(r.Context(), kind, who, id)
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(out), nil
}

// swagger:route POST /{kind}/requests/{id}/check Requests check
// @Summary Queue a CNAME check
// @Tags requests
// @Produce json
// @Param kind path string true "Request kind" Enums(ssl, customdomain)
// @Param id path int true "Request id"
// @Success 202 {object} domain.Enqueued "queued"
// @Router /{kind}/requests/{id}/check [post]
func (h *handlers) check(r *stdhttp.Request) (any, error) {
	kind, who, id, err := target(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.RequestCheck(r.Context(), kind, who, id)
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(out), nil
}

// swagger:route GET /{kind}/requests/{id}/command Requests command
// @Summary Render the operator command for a request
// @Tags requests
// @Produce json
// @Param kind path string true "Request kind" Enums(ssl, customdomain)
// @Param id path int true "Request id"
// @Success 200 {object} domain.CommandOutput "ok"
// @Router /{kind}/requests/{id}/command [get]
func (h *handlers) command(r *stdhttp.Request) (any, error) {
	kind, who, id, err := target(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Command(r.Context(), kind, who, id)
}
