// Package mcp exposes case operations as MCP tools over stdio, so agent
// hosts can drive investigations with the same gates and audit trail the
// CLI enforces.
package mcp

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"fathom/internal/agent"
	"fathom/internal/casefile"
	"fathom/internal/consult"
	"fathom/internal/lifecycle"
	"fathom/internal/logging"
	"fathom/internal/orchestrate"
	"fathom/internal/store"
)

// Server wraps the MCP SDK server around a workspace's store and
// orchestrator.
type Server struct {
	MCPServer    *sdkmcp.Server
	Store        store.Store
	Orchestrator *orchestrate.Orchestrator
	Consultant   consult.Consultant
}

// NewServer creates the MCP server and registers the case tools.
func NewServer(st store.Store, orch *orchestrate.Orchestrator, consultant consult.Consultant) *Server {
	s := &Server{Store: st, Orchestrator: orch, Consultant: consultant}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "fathom", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	logging.New("mcp").Info("starting fathom MCP server over stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_cases",
		Description: "List all cases with their lifecycle state and classification.",
	}, s.handleListCases)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "case_status",
		Description: "Full status of one case: state, open required questions, hypotheses, recommended next state.",
	}, s.handleCaseStatus)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "case_next",
		Description: "Advance the case through the lifecycle. Auto-progresses until the Plan checkpoint; a blocked gate fails with its reason.",
	}, s.handleCaseNext)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "answer_question",
		Description: "Answer one intake question. Resumes a pending-external case back to Plan.",
	}, s.handleAnswerQuestion)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "agent_run",
		Description: "Start a bounded autonomous session on a case and run it to a stop condition. Only low-impact actions apply unless auto_approve is set.",
	}, s.handleAgentRun)
}

// --- Tool input/output types ---

type caseSummary struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	State          string `json:"state"`
	Classification string `json:"classification,omitempty"`
}

type listCasesInput struct{}

type listCasesOutput struct {
	Cases []caseSummary `json:"cases"`
	Total int           `json:"total"`
}

type caseStatusInput struct {
	CaseID string `json:"case_id" jsonschema:"case ID from list_cases"`
}

type questionStatus struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	Required bool   `json:"required"`
	Status   string `json:"status"`
	Answer   string `json:"answer,omitempty"`
}

type hypothesisStatus struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type caseStatusOutput struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	State            string             `json:"state"`
	Classification   string             `json:"classification,omitempty"`
	RecommendedState string             `json:"recommended_state,omitempty"`
	OpenRequired     int                `json:"open_required_questions"`
	Questions        []questionStatus   `json:"questions,omitempty"`
	Hypotheses       []hypothesisStatus `json:"hypotheses,omitempty"`
	EvidenceCount    int                `json:"evidence_count"`
	EventCount       int                `json:"event_count"`
}

type caseNextInput struct {
	CaseID string `json:"case_id" jsonschema:"case ID from list_cases"`
}

type caseNextOutput struct {
	State          string `json:"state"`
	AutoProgressed bool   `json:"auto_progressed"`
	Report         string `json:"report,omitempty"`
}

type answerQuestionInput struct {
	CaseID     string `json:"case_id" jsonschema:"case ID"`
	QuestionID string `json:"question_id" jsonschema:"question ID from case_status"`
	Answer     string `json:"answer" jsonschema:"answer text"`
}

type answerQuestionOutput struct {
	OK    string `json:"ok"`
	State string `json:"state"`
}

type agentRunInput struct {
	CaseID        string `json:"case_id" jsonschema:"case ID to investigate"`
	MaxIterations int    `json:"max_iterations,omitempty" jsonschema:"iteration cap (default 50)"`
	AutoApprove   bool   `json:"auto_approve,omitempty" jsonschema:"apply medium and high impact actions without an approver"`
}

type agentRunOutput struct {
	SessionID  string `json:"session_id"`
	Status     string `json:"status"`
	Iterations int    `json:"iterations"`
	Reason     string `json:"reason"`
}

// --- Tool handlers ---

func (s *Server) handleListCases(_ context.Context, _ *sdkmcp.CallToolRequest, _ listCasesInput) (*sdkmcp.CallToolResult, listCasesOutput, error) {
	cases, err := s.Store.ListCases()
	if err != nil {
		return nil, listCasesOutput{}, fmt.Errorf("list cases: %w", err)
	}
	out := listCasesOutput{Total: len(cases)}
	for _, c := range cases {
		out.Cases = append(out.Cases, caseSummary{
			ID: c.ID, Title: c.Title, State: string(c.State), Classification: c.Classification,
		})
	}
	return nil, out, nil
}

func (s *Server) handleCaseStatus(_ context.Context, _ *sdkmcp.CallToolRequest, input caseStatusInput) (*sdkmcp.CallToolResult, caseStatusOutput, error) {
	c, err := s.Store.LoadCase(input.CaseID)
	if err != nil {
		return nil, caseStatusOutput{}, err
	}
	out := caseStatusOutput{
		ID:             c.ID,
		Title:          c.Title,
		State:          string(c.State),
		Classification: c.Classification,
		OpenRequired:   len(c.OpenRequiredQuestions()),
		EvidenceCount:  len(c.Evidence),
		EventCount:     len(c.Events),
	}
	if next := lifecycle.Recommended(c); next != c.State {
		out.RecommendedState = string(next)
	}
	for _, q := range c.Questions {
		out.Questions = append(out.Questions, questionStatus{
			ID: q.ID, Prompt: q.Prompt, Required: q.Required,
			Status: string(q.Status), Answer: q.Answer,
		})
	}
	for _, h := range c.Hypotheses {
		out.Hypotheses = append(out.Hypotheses, hypothesisStatus{
			ID: h.ID, Description: h.Description, Status: string(h.Status),
		})
	}
	return nil, out, nil
}

func (s *Server) handleCaseNext(ctx context.Context, _ *sdkmcp.CallToolRequest, input caseNextInput) (*sdkmcp.CallToolResult, caseNextOutput, error) {
	res, err := s.Orchestrator.Next(ctx, input.CaseID)
	if err != nil {
		var gateErr *lifecycle.GateError
		if errors.As(err, &gateErr) {
			return nil, caseNextOutput{}, fmt.Errorf("transition rejected: %s", gateErr.Reason)
		}
		return nil, caseNextOutput{}, err
	}
	return nil, caseNextOutput{
		State:          string(res.State),
		AutoProgressed: res.AutoProgressed,
		Report:         res.Report,
	}, nil
}

func (s *Server) handleAnswerQuestion(_ context.Context, _ *sdkmcp.CallToolRequest, input answerQuestionInput) (*sdkmcp.CallToolResult, answerQuestionOutput, error) {
	if err := s.Orchestrator.AddAnswer(input.CaseID, input.QuestionID, input.Answer); err != nil {
		return nil, answerQuestionOutput{}, err
	}
	c, err := s.Store.LoadCase(input.CaseID)
	if err != nil {
		return nil, answerQuestionOutput{}, err
	}
	return nil, answerQuestionOutput{OK: "answered", State: string(c.State)}, nil
}

func (s *Server) handleAgentRun(ctx context.Context, _ *sdkmcp.CallToolRequest, input agentRunInput) (*sdkmcp.CallToolResult, agentRunOutput, error) {
	c, err := s.Store.LoadCase(input.CaseID)
	if err != nil {
		return nil, agentRunOutput{}, err
	}

	cfg := agent.DefaultConfig()
	if input.MaxIterations > 0 {
		cfg.MaxIterations = input.MaxIterations
	}
	cfg.AutoApprove = input.AutoApprove

	sess := agent.CreateSession(c, nil, cfg)
	if err := s.Store.SaveSession(sess); err != nil {
		return nil, agentRunOutput{}, fmt.Errorf("save session: %w", err)
	}
	if err := s.Store.AppendEvent(c.ID, casefile.EventAgentAction,
		"agent session started: "+sess.ID, "mcp"); err != nil {
		return nil, agentRunOutput{}, err
	}

	runner := &agent.Runner{
		Cases:      s.Store,
		Sessions:   s.Store,
		Consultant: s.Consultant,
		// No interactive approver over MCP: anything above low impact is
		// skipped unless auto_approve was requested.
		Approver: agent.DenyAll(),
	}
	res, err := runner.Run(ctx, sess.ID, false)
	if err != nil {
		return nil, agentRunOutput{}, fmt.Errorf("agent run: %w", err)
	}
	return nil, agentRunOutput{
		SessionID:  sess.ID,
		Status:     string(res.Status),
		Iterations: res.Iterations,
		Reason:     res.Reason,
	}, nil
}
