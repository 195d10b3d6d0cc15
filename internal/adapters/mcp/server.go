// Package mcp exposes the advisor as Model Context Protocol tools over stdio.
package mcp

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/masters-advisor/internal/core/ports"
)

const (
	serverName = "masters-advisor"
	Version    = "0.1.0"
)

var (
	ErrMissingAnswerer    = errors.New("mcp: question answerer is required")
	ErrMissingRecommender = errors.New("mcp: elective recommender is required")
	ErrMissingCatalog     = errors.New("mcp: program catalog is required")
)

// Ports aggregates the core services the tools call.
type Ports struct {
	Answerer    ports.QuestionAnswerer
	Recommender ports.ElectiveRecommender
	Catalog     ports.ProgramCatalog
}

func (p *Ports) Validate() error {
	switch {
	case p.Answerer == nil:
		return ErrMissingAnswerer
	case p.Recommender == nil:
		return ErrMissingRecommender
	case p.Catalog == nil:
		return ErrMissingCatalog
	}
	return nil
}

// Defaults carries the configured top-k and limit values.
type Defaults struct {
	RecommendTopK int
	CompareTopK   int
	CompareLimit  int
}

// RecommendRecorder receives one event per recommendation tool call.
type RecommendRecorder interface {
	RecordRecommend(endpoint, kind string)
}

type Server struct {
	ports    *Ports
	defaults Defaults
	recorder RecommendRecorder
	server   *server.MCPServer
}

// NewServer registers the advisor tools. recorder may be nil.
func NewServer(p *Ports, defaults Defaults, recorder RecommendRecorder) (*Server, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		ports:    p,
		defaults: defaults,
		recorder: recorder,
		server:   server.NewMCPServer(serverName, Version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

// ServeStdio blocks until stdin closes or the process receives a signal.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}
