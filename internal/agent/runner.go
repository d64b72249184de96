package agent

import (
	"context"
	"fmt"
	"slices"
	"time"

	"fathom/internal/casefile"
	"fathom/internal/consult"
	"fathom/internal/lifecycle"
	"fathom/internal/logging"
)

// CaseStore is the slice of the persistence contract the runner needs.
// Every iteration reloads the case; the runner keeps no case cache.
type CaseStore interface {
	LoadCase(id string) (*casefile.Case, error)
	SaveCase(c *casefile.Case) error
	AppendEvent(caseID string, typ casefile.EventType, detail, actor string) error
}

// SessionStore persists sessions between and during runs.
type SessionStore interface {
	SaveSession(s *Session) error
	LoadSession(id string) (*Session, error)
}

// Runner drives one session's iteration loop.
type Runner struct {
	Cases      CaseStore
	Sessions   SessionStore
	Consultant consult.Consultant
	Approver   Approver
}

// RunResult summarizes one Run call.
type RunResult struct {
	Status     Status
	Iterations int
	Reason     string // why the loop stopped
}

// Run executes iterations until a safety limit is reached, the session is
// paused or terminated externally, or the error threshold is exceeded.
// Reaching an iteration or duration limit is a designed outcome and ends
// the session completed, not failed. Pause and terminate requests are
// honored cooperatively at the next iteration boundary, never mid-action.
func (r *Runner) Run(ctx context.Context, sessionID string, autoApproveOverride bool) (*RunResult, error) {
	log := logging.New("agent")
	approver := r.Approver
	if approver == nil {
		approver = DenyAll()
	}

	sess, err := r.Sessions.LoadSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.Status == StatusPaused {
		return &RunResult{Status: sess.Status, Iterations: sess.Metrics.Iterations,
			Reason: "session is paused; resume it first"}, nil
	}
	if sess.Status.Terminal() {
		return &RunResult{Status: sess.Status, Iterations: sess.Metrics.Iterations,
			Reason: fmt.Sprintf("session already %s", sess.Status)}, nil
	}

	autoApprove := sess.Config.AutoApprove || autoApproveOverride

	for {
		// Iteration boundary: observe external pause/terminate first.
		fresh, err := r.Sessions.LoadSession(sessionID)
		if err != nil {
			return nil, fmt.Errorf("reload session: %w", err)
		}
		if fresh.Status != StatusActive {
			return &RunResult{Status: fresh.Status, Iterations: fresh.Metrics.Iterations,
				Reason: fmt.Sprintf("stopped externally: session is %s", fresh.Status)}, nil
		}
		sess = fresh

		if ctx.Err() != nil {
			// Caller cancellation pauses rather than kills: history and
			// metrics are already persisted, so resume loses nothing.
			sess.Status = StatusPaused
			sess.record("system", "run interrupted; session paused")
			if err := r.Sessions.SaveSession(sess); err != nil {
				return nil, fmt.Errorf("save session: %w", err)
			}
			return &RunResult{Status: sess.Status, Iterations: sess.Metrics.Iterations,
				Reason: "context canceled"}, nil
		}

		// Hard stops come before any work.
		if sess.Metrics.Iterations >= sess.Config.MaxIterations {
			return r.finish(sess, StatusCompleted, "iteration limit reached")
		}
		if time.Since(sess.Metrics.StartTime) >= sess.Config.MaxDuration {
			return r.finish(sess, StatusCompleted, "duration limit reached")
		}

		if err := r.iterate(ctx, sess, autoApprove, approver); err != nil {
			sess.Metrics.ErrorsEncountered++
			sess.record("system", fmt.Sprintf("iteration error: %v", err))
			log.Warn("iteration error", "session", sess.ID, "error", err)
			if sess.Metrics.ErrorsEncountered > sess.Config.ErrorThreshold {
				return r.finish(sess, StatusFailed,
					fmt.Sprintf("error threshold exceeded (%d)", sess.Metrics.ErrorsEncountered))
			}
		}

		sess.Metrics.Iterations++
		if err := r.Sessions.SaveSession(sess); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
}

// finish persists the terminal status and returns the result.
func (r *Runner) finish(sess *Session, status Status, reason string) (*RunResult, error) {
	sess.Status = status
	sess.record("system", reason)
	if err := r.Sessions.SaveSession(sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &RunResult{Status: status, Iterations: sess.Metrics.Iterations, Reason: reason}, nil
}

// iterate performs one propose/approve/apply cycle. A returned error is
// recorded against the error threshold but does not end the session.
func (r *Runner) iterate(ctx context.Context, sess *Session, autoApprove bool, approver Approver) error {
	c, err := r.Cases.LoadCase(sess.CaseID)
	if err != nil {
		return fmt.Errorf("load case: %w", err)
	}

	req := &consult.ActionRequest{
		Case:           c,
		Specialization: sess.Personality.Specialization,
		DomainTerms:    sess.Personality.DomainTerms,
		Plan:           sess.Personality.Plan,
		Theories:       sess.Personality.Theories,
		History:        historyLines(sess.Context.History),
	}
	action, err := r.Consultant.ProposeAction(ctx, req)
	if err != nil {
		return fmt.Errorf("propose action: %w", err)
	}
	// Validate on receipt even when the consultant claims it already did.
	if err := action.Validate(); err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}

	if slices.Contains(sess.Config.DeniedActions, action.Kind) {
		sess.record("system", fmt.Sprintf("denied action %s: on session deny-list", action.Kind))
		return nil
	}

	impact := Classify(action.Kind)
	if impact.NeedsApproval() && !autoApprove {
		granted, err := approver.Approve(action, impact)
		if err != nil {
			return fmt.Errorf("approval: %w", err)
		}
		if !granted {
			// Not an error: record the skip and move on.
			sess.record("approver", fmt.Sprintf("skipped %s (%s impact): approval not granted",
				action.Kind, impact))
			return nil
		}
		sess.record("approver", fmt.Sprintf("approved %s (%s impact)", action.Kind, impact))
	}

	outcome, err := r.apply(sess, c, action)
	if err != nil {
		return err
	}
	sess.record("agent", fmt.Sprintf("%s: %s", action.Kind, outcome))
	return nil
}

// apply executes an approved action against the case. State transitions
// route through the lifecycle gate exactly as the orchestrator does; a
// blocked transition is recorded with its verbatim reason and is not an
// error.
func (r *Runner) apply(sess *Session, c *casefile.Case, action *consult.ProposedAction) (string, error) {
	actor := "agent:" + sess.ID

	switch action.Kind {
	case consult.ActionAnswerQuestion:
		q := c.Question(action.QuestionID)
		if q == nil {
			return "", fmt.Errorf("question %s not found", action.QuestionID)
		}
		q.Status = casefile.QuestionAnswered
		q.Answer = action.Answer
		if err := r.Cases.SaveCase(c); err != nil {
			return "", fmt.Errorf("save case: %w", err)
		}
		if err := r.Cases.AppendEvent(c.ID, casefile.EventQuestionAnswered,
			fmt.Sprintf("%s: %s", q.ID, action.Answer), actor); err != nil {
			return "", err
		}
		sess.Metrics.QuestionsAnswered++
		sess.Context.AnsweredQuestions = append(sess.Context.AnsweredQuestions, q.ID)
		return fmt.Sprintf("answered %s", q.ID), nil

	case consult.ActionTestHypothesis:
		h := c.Hypothesis(action.HypothesisID)
		if h == nil {
			return "", fmt.Errorf("hypothesis %s not found", action.HypothesisID)
		}
		h.Status = action.HypothesisStatus
		h.EvidenceIDs = append(h.EvidenceIDs, action.EvidenceIDs...)
		if err := r.Cases.SaveCase(c); err != nil {
			return "", fmt.Errorf("save case: %w", err)
		}
		if err := r.Cases.AppendEvent(c.ID, casefile.EventAgentAction,
			fmt.Sprintf("hypothesis %s marked %s", h.ID, h.Status), actor); err != nil {
			return "", err
		}
		sess.Metrics.HypothesesTested++
		return fmt.Sprintf("hypothesis %s %s", h.ID, h.Status), nil

	case consult.ActionRequestEvidence:
		// A pending need only; evidence still arrives through the
		// evidence collaborator, supplied by a human.
		sess.Context.PendingEvidence = append(sess.Context.PendingEvidence, action.EvidenceNeeded)
		if err := r.Cases.AppendEvent(c.ID, casefile.EventAgentAction,
			"requested evidence: "+action.EvidenceNeeded, actor); err != nil {
			return "", err
		}
		return "recorded evidence request", nil

	case consult.ActionTransitionState:
		d := lifecycle.CanTransition(c, action.TargetState)
		if !d.Allowed {
			if err := r.Cases.AppendEvent(c.ID, casefile.EventTransitionBlocked,
				fmt.Sprintf("%s -> %s: %s", c.State, action.TargetState, d.Reason), actor); err != nil {
				return "", err
			}
			sess.record("system", fmt.Sprintf("transition to %s blocked: %s", action.TargetState, d.Reason))
			return fmt.Sprintf("transition blocked: %s", d.Reason), nil
		}
		from := c.State
		c.State = action.TargetState
		if err := r.Cases.SaveCase(c); err != nil {
			return "", fmt.Errorf("save case: %w", err)
		}
		if err := r.Cases.AppendEvent(c.ID, casefile.EventStateTransition,
			fmt.Sprintf("%s -> %s", from, action.TargetState), actor); err != nil {
			return "", err
		}
		sess.Metrics.StateTransitions++
		return fmt.Sprintf("transitioned %s -> %s", from, action.TargetState), nil
	}

	return "", fmt.Errorf("unrecognized action kind %q", action.Kind)
}

func historyLines(entries []HistoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Role+": "+e.Content)
	}
	return out
}
