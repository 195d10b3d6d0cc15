package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/core/usecase"
)

const endpoint = "mcp"

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool("ask_question",
		mcp.WithDescription("Answer a question about the master's programs from the indexed materials"),
		mcp.WithString("question", mcp.Required(), mcp.Description("question in natural language")),
		mcp.WithString("program", mcp.Description("selected program title, boosts its passages")),
	), s.handleAsk)

	s.server.AddTool(mcp.NewTool("recommend_electives",
		mcp.WithDescription("Rank a program's electives against the student's background"),
		mcp.WithString("background", mcp.Required(), mcp.Description("free-text background and interests")),
		mcp.WithString("program", mcp.Required(), mcp.Description("program title")),
		mcp.WithNumber("top_k", mcp.Description("number of electives to return")),
	), s.handleRecommend)

	s.server.AddTool(mcp.NewTool("compare_programs",
		mcp.WithDescription("Compare programs by how well their electives fit the background"),
		mcp.WithString("background", mcp.Required(), mcp.Description("free-text background and interests")),
		mcp.WithArray("programs", mcp.Description("program titles; all programs when omitted"), mcp.WithStringItems()),
		mcp.WithNumber("top_k", mcp.Description("electives per program used for the score")),
		mcp.WithNumber("limit", mcp.Description("number of programs to return")),
	), s.handleCompare)

	s.server.AddTool(mcp.NewTool("list_programs",
		mcp.WithDescription("List the programs the advisor knows about"),
	), s.handleListPrograms)
}

func (s *Server) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var programTitle string
	if title := req.GetString("program", ""); strings.TrimSpace(title) != "" {
		program, err := s.ports.Catalog.Get(title)
		if err != nil {
			return toolError(err)
		}
		programTitle = program.Title
	}

	answer, err := s.ports.Answerer.Ask(ctx, domain.AskRequest{Question: question, Program: programTitle})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(answer.Text), nil
}

func (s *Server) handleRecommend(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	background, err := req.RequireString("background")
	if err != nil || strings.TrimSpace(background) == "" {
		return mcp.NewToolResultError("background is required"), nil
	}
	title, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	program, err := s.ports.Catalog.Get(title)
	if err != nil {
		return toolError(err)
	}

	topK := positiveOr(req.GetInt("top_k", 0), s.defaults.RecommendTopK, usecase.DefaultRecommendTopK)
	score, electives := s.ports.Recommender.ScoreProgram(background, program, topK)
	s.record("electives")
	if electives == nil {
		electives = []domain.Elective{}
	}
	return jsonResult(map[string]any{
		"program":   program.Title,
		"score":     score,
		"electives": electives,
	})
}

func (s *Server) handleCompare(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	background, err := req.RequireString("background")
	if err != nil || strings.TrimSpace(background) == "" {
		return mcp.NewToolResultError("background is required"), nil
	}

	programs := s.ports.Catalog.List()
	if titles := req.GetStringSlice("programs", nil); len(titles) > 0 {
		programs = make([]domain.Program, 0, len(titles))
		for _, title := range titles {
			p, err := s.ports.Catalog.Get(title)
			if err != nil {
				return toolError(err)
			}
			programs = append(programs, p)
		}
	}

	topK := positiveOr(req.GetInt("top_k", 0), s.defaults.CompareTopK, usecase.DefaultCompareTopK)
	limit := positiveOr(req.GetInt("limit", 0), s.defaults.CompareLimit, usecase.DefaultCompareLimit)
	fits := s.ports.Recommender.ComparePrograms(background, programs, topK, limit)
	s.record("programs")
	return jsonResult(map[string]any{"programs": fits})
}

func (s *Server) handleListPrograms(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programs := s.ports.Catalog.List()
	lines := make([]string, 0, len(programs))
	for _, p := range programs {
		if p.URL != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", p.Title, p.URL))
			continue
		}
		lines = append(lines, p.Title)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) record(kind string) {
	if s.recorder != nil {
		s.recorder.RecordRecommend(endpoint, kind)
	}
}

// toolError reports caller mistakes as tool results and everything else as
// protocol errors.
func toolError(err error) (*mcp.CallToolResult, error) {
	if domain.IsKind(err, domain.ErrInvalidInput) || domain.IsKind(err, domain.ErrProgramNotFound) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func positiveOr(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
