// Package middleware holds the ordered request stages every route passes
// through: recover, log, trace, authenticate, admit, burst and, on protected
// routes, require an identity.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/quota"
)

// Stage is one named step of the pipeline
type Stage struct {
	Name    string
	Handler gin.HandlerFunc
}

// Pipeline builds the stage chains for public and protected routes
type Pipeline struct {
	Logger *logging.Logger
	Tracer opentracing.Tracer
	Auth   Authenticator
	Quota  *quota.Tracker
	Burst  *RateLimiter
}

func (p *Pipeline) stages(protected bool) []Stage {
	tracer := p.Tracer
	if tracer == nil {
		tracer = opentracing.NoopTracer{}
	}

	stages := []Stage{
		{Name: "recover", Handler: Recover(p.Logger)},
		{Name: "log", Handler: RequestLogger(p.Logger)},
		{Name: "trace", Handler: Trace(tracer)},
		{Name: "authenticate", Handler: Authenticate(p.Auth, protected, p.Logger)},
		{Name: "admit", Handler: Admit(p.Quota, p.Logger)},
	}
	if p.Burst != nil {
		stages = append(stages, Stage{Name: "burst", Handler: Burst(p.Burst)})
	}
	if protected {
		stages = append(stages, Stage{Name: "require_identity", Handler: RequireIdentity(p.Logger)})
	}
	return stages
}

// Public returns the chain for routes open to anonymous callers
func (p *Pipeline) Public() []gin.HandlerFunc {
	return handlers(p.stages(false))
}

// Protected returns the chain for routes that need an authenticated identity
func (p *Pipeline) Protected() []gin.HandlerFunc {
	return handlers(p.stages(true))
}

// Stages lists the stage names of the public or protected chain in order
func (p *Pipeline) Stages(protected bool) []string {
	stages := p.stages(protected)
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	return names
}

func handlers(stages []Stage) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, len(stages))
	for i, s := range stages {
		out[i] = s.Handler
	}
	return out
}
