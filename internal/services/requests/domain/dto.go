package domain

// SubmitInput files a new request
type SubmitInput struct {
	CustomDomain string `json:"custom_domain" validate:"required,max=255"  example:"https://example.org"`
	Target       string `json:"target"        validate:"required,max=64"   example:"examplewiki"`
	Reason       string `json:"reason"        validate:"max=4096"          example:"our community owns example.org"`
	Private      bool   `json:"private,omitempty"`
}

// SubmitResult echoes the created request and the help link
type SubmitResult struct {
	Request Request `json:"request"`
	HelpURL string  `json:"help_url,omitempty" example:"https://meta.example.net/wiki/Custom_domains"`
}

// EditInput changes request fields, omitted fields are left alone
type EditInput struct {
	CustomDomain *string `json:"custom_domain,omitempty" validate:"omitempty,max=255"  example:"https://example.org"`
	Target       *string `json:"target,omitempty"        validate:"omitempty,max=64"   example:"examplewiki"`
	Reason       *string `json:"reason,omitempty"        validate:"omitempty,max=4096" example:"updated reason"`
}

// CommentInput posts a comment
type CommentInput struct {
	Text string `json:"text" validate:"required,max=4096" example:"Any update on this?"`
}

// HandleInput is a moderator action, every field is optional
type HandleInput struct {
	Status  string `json:"status,omitempty"  validate:"omitempty,oneof=pending inprogress notpointed complete declined" example:"complete"`
	Locked  *bool  `json:"locked,omitempty"`
	Private *bool  `json:"private,omitempty"`
	Comment string `json:"comment,omitempty" validate:"max=4096" example:"Certificate issued"`
}

// HandleResult reports what a moderator action changed
type HandleResult struct {
	Request        Request `json:"request"`
	StatusChanged  bool    `json:"status_changed"`
	LockChanged    bool    `json:"lock_changed"`
	PrivateChanged bool    `json:"private_changed"`

	// Warnings carries non fatal notes, e.g. a status that was already set
	Warnings []string `json:"warnings,omitempty"`
}

// EditResult reports an edit
type EditResult struct {
	Request  Request  `json:"request"`
	Changed  []string `json:"changed" example:"reason"`
	Reopened bool     `json:"reopened"`
}

// ListResult is one page of the queue
type ListResult struct {
	Items  []Request `json:"items"`
	Limit  int       `json:"limit"  example:"50"`
	Offset int       `json:"offset" example:"0"`
}

// CommandOutput is the rendered operator command
type CommandOutput struct {
	Command string `json:"command" example:"sudo -u www-data php renewssl.php --domain example.org --wiki examplewiki"`
}

// Enqueued acknowledges a job request
type Enqueued struct {
	RequestID int64   `json:"request_id" example:"7"`
	Job       JobType `json:"job"        example:"domaincheck"`
}
