// Package registry assembles the default projection matrix with every
// recognised dialect registered. It is kept separate from package dialect
// itself so the vendor dialect packages can depend on dialect's Adapter
// interface without a cycle.
package registry

import (
	"github.com/agent-backplane/abp/dialect"
	"github.com/agent-backplane/abp/dialect/claude"
	"github.com/agent-backplane/abp/dialect/codex"
	"github.com/agent-backplane/abp/dialect/copilot"
	"github.com/agent-backplane/abp/dialect/gemini"
	"github.com/agent-backplane/abp/dialect/kimi"
	"github.com/agent-backplane/abp/dialect/mock"
	"github.com/agent-backplane/abp/dialect/openai"
)

// NewDefaultMatrix returns a ProjectionMatrix with the canonical "abp"
// dialect and every vendor dialect registered.
func NewDefaultMatrix() *dialect.ProjectionMatrix {
	m := dialect.NewProjectionMatrix()
	m.Register(dialect.NewCanonicalAdapter())
	m.Register(claude.New())
	m.Register(openai.New())
	m.Register(gemini.New())
	m.Register(codex.New())
	m.Register(kimi.New())
	m.Register(copilot.New())
	m.Register(mock.New())
	return m
}
