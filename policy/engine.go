// Package policy evaluates a PolicyProfile's tool, path, and network rules
// against a precompiled glob matcher, with composition across multiple
// profiles and an audit trail of every decision made.
package policy

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
)

// Decision is the outcome of a single policy check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns an allowing Decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denying Decision with the given reason.
func Deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Engine evaluates a single PolicyProfile's precompiled glob rules.
type Engine struct {
	allowedTools       globSet
	disallowedTools    globSet
	denyRead           globSet
	denyWrite          globSet
	allowNetwork       globSet
	denyNetwork        globSet
	requireApprovalFor globSet
}

// globSet is a precompiled, possibly-empty set of glob matchers.
type globSet struct {
	globs []glob.Glob
}

func (s globSet) isEmpty() bool { return len(s.globs) == 0 }

func (s globSet) matches(value string) bool {
	for _, g := range s.globs {
		if g.Match(value) {
			return true
		}
	}
	return false
}

func buildGlobSet(patterns []string) (globSet, error) {
	if len(patterns) == 0 {
		return globSet{}, nil
	}
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return globSet{}, abperrors.Wrap(abperrors.PolicyInvalid, fmt.Sprintf("invalid glob: %s", p), err)
		}
		globs = append(globs, g)
	}
	return globSet{globs: globs}, nil
}

// NewEngine pre-compiles profile's glob lists into an Engine.
func NewEngine(profile contract.PolicyProfile) (*Engine, error) {
	allowedTools, err := buildGlobSet(profile.AllowedTools)
	if err != nil {
		return nil, err
	}
	disallowedTools, err := buildGlobSet(profile.DisallowedTools)
	if err != nil {
		return nil, err
	}
	denyRead, err := buildGlobSet(profile.DenyRead)
	if err != nil {
		return nil, err
	}
	denyWrite, err := buildGlobSet(profile.DenyWrite)
	if err != nil {
		return nil, err
	}
	allowNetwork, err := buildGlobSet(profile.AllowNetwork)
	if err != nil {
		return nil, err
	}
	denyNetwork, err := buildGlobSet(profile.DenyNetwork)
	if err != nil {
		return nil, err
	}
	requireApprovalFor, err := buildGlobSet(profile.RequireApprovalFor)
	if err != nil {
		return nil, err
	}
	return &Engine{
		allowedTools:       allowedTools,
		disallowedTools:    disallowedTools,
		denyRead:           denyRead,
		denyWrite:          denyWrite,
		allowNetwork:       allowNetwork,
		denyNetwork:        denyNetwork,
		requireApprovalFor: requireApprovalFor,
	}, nil
}

// CanUseTool reports whether name may be invoked: a disallowed-list match
// denies outright; otherwise a non-empty allow-list denies anything absent
// from it; otherwise the tool is allowed.
func (e *Engine) CanUseTool(name string) Decision {
	if e.disallowedTools.matches(name) {
		return Deny(fmt.Sprintf("tool '%s' is disallowed", name))
	}
	if !e.allowedTools.isEmpty() && !e.allowedTools.matches(name) {
		return Deny(fmt.Sprintf("tool '%s' not in allowlist", name))
	}
	return Allow()
}

// CanReadPath reports whether relPath (forward-slash, relative) may be read.
func (e *Engine) CanReadPath(relPath string) Decision {
	s := toSlash(relPath)
	if e.denyRead.matches(s) {
		return Deny(fmt.Sprintf("read denied for '%s'", s))
	}
	return Allow()
}

// CanWritePath reports whether relPath (forward-slash, relative) may be written.
func (e *Engine) CanWritePath(relPath string) Decision {
	s := toSlash(relPath)
	if e.denyWrite.matches(s) {
		return Deny(fmt.Sprintf("write denied for '%s'", s))
	}
	return Allow()
}

// CanAccessHost reports whether host may be reached over the network: a
// deny-list match denies outright; otherwise a non-empty allow-list denies
// anything absent from it; otherwise network access is allowed.
func (e *Engine) CanAccessHost(host string) Decision {
	if e.denyNetwork.matches(host) {
		return Deny(fmt.Sprintf("network access denied for '%s'", host))
	}
	if !e.allowNetwork.isEmpty() && !e.allowNetwork.matches(host) {
		return Deny(fmt.Sprintf("network access for '%s' not in allowlist", host))
	}
	return Allow()
}

// RequiresApproval reports whether invoking the named tool must be held for
// human approval before it runs.
func (e *Engine) RequiresApproval(name string) bool {
	return e.requireApprovalFor.matches(name)
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
