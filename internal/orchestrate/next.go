package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fathom/internal/casefile"
	"fathom/internal/consult"
	"fathom/internal/lifecycle"
	"fathom/internal/logging"
)

// Next advances the case toward the Plan checkpoint. It loops while the
// state is outside {Plan, Execute}: recommend, validate, apply, consult,
// merge. The loop stops at Plan (checkpoint before consequential action),
// at a fixed point, or after maxAutoProgressSteps. Reaching Plan
// synthesizes the full troubleshooting report.
func (o *Orchestrator) Next(ctx context.Context, caseID string) (*StepResult, error) {
	log := logging.New("orchestrate")

	c, err := o.Store.LoadCase(caseID)
	if err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}

	res := &StepResult{State: c.State}
	var reasoning []string

	for i := 0; i < maxAutoProgressSteps && c.State != casefile.StatePlan && c.State != casefile.StateExecute; i++ {
		target := lifecycle.Recommended(c)
		if target == c.State {
			// Fixed point; nothing further to recommend.
			break
		}

		d := lifecycle.CanTransition(c, target)
		if !d.Allowed {
			if err := o.Store.AppendEvent(c.ID, casefile.EventTransitionBlocked,
				fmt.Sprintf("%s: %s", eventDetail(c.State, target), d.Reason), actorOrchestrator); err != nil {
				return nil, err
			}
			// A strict-mode case blocked on required questions parks at
			// PendingExternal instead of failing; AddAnswer resumes it.
			if c.StrictMode && c.State != casefile.StatePendingExternal &&
				len(c.OpenRequiredQuestions()) > 0 {
				from := c.State
				c.State = casefile.StatePendingExternal
				if err := o.Store.SaveCase(c); err != nil {
					return nil, fmt.Errorf("save case: %w", err)
				}
				if err := o.Store.AppendEvent(c.ID, casefile.EventStateTransition,
					eventDetail(from, casefile.StatePendingExternal), actorOrchestrator); err != nil {
					return nil, err
				}
				log.Info("parked pending external input", "case", c.ID, "from", string(from))
				res.State = c.State
				res.AutoProgressed = true
				return res, nil
			}
			// No partial progress is swallowed: the whole call fails with
			// the gate's verbatim reason.
			return nil, &lifecycle.GateError{From: c.State, To: target, Reason: d.Reason}
		}

		from := c.State
		c.State = target
		if err := o.Store.SaveCase(c); err != nil {
			return nil, fmt.Errorf("save case: %w", err)
		}
		if err := o.Store.AppendEvent(c.ID, casefile.EventStateTransition,
			eventDetail(from, target), actorOrchestrator); err != nil {
			return nil, err
		}
		res.AutoProgressed = true
		log.Info("auto-progressed", "case", c.ID, "from", string(from), "to", string(target))

		if target != casefile.StatePendingExternal && target != casefile.StateResolve {
			sug, err := o.Consultant.Analyze(ctx, c, consult.ModeAnalysis)
			if err != nil {
				// Collaborator failure never crashes progression; the
				// stage simply gains no suggestions.
				log.Warn("consultation failed", "case", c.ID, "state", string(target), "error", err)
			} else {
				mergeSuggestions(c, sug)
				if sug.Reasoning != "" {
					reasoning = append(reasoning, fmt.Sprintf("[%s] %s", target, sug.Reasoning))
				}
				if err := o.Store.SaveCase(c); err != nil {
					return nil, fmt.Errorf("save case: %w", err)
				}
				if err := o.Store.AppendEvent(c.ID, casefile.EventAgentAction,
					fmt.Sprintf("consulted at %s: +%d hypotheses, +%d questions",
						target, len(sug.Hypotheses), len(sug.Questions)), actorOrchestrator); err != nil {
					return nil, err
				}
			}
		}
	}

	res.State = c.State
	if c.State == casefile.StatePlan {
		report, err := o.synthesizeReport(ctx, c, reasoning)
		if err != nil {
			return nil, err
		}
		res.Report = report
	}
	return res, nil
}

// AddAnswer marks a question answered. A case waiting on external input
// resumes to Plan.
func (o *Orchestrator) AddAnswer(caseID, questionID, answer string) error {
	c, err := o.Store.LoadCase(caseID)
	if err != nil {
		return fmt.Errorf("load case: %w", err)
	}
	q := c.Question(questionID)
	if q == nil {
		return fmt.Errorf("question %s not found in case %s", questionID, caseID)
	}
	q.Status = casefile.QuestionAnswered
	q.Answer = answer
	resumed := resumeFromPending(c)
	if err := o.Store.SaveCase(c); err != nil {
		return fmt.Errorf("save case: %w", err)
	}
	if err := o.Store.AppendEvent(caseID, casefile.EventQuestionAnswered,
		fmt.Sprintf("%s: %s", questionID, answer), "human"); err != nil {
		return err
	}
	if resumed {
		return o.Store.AppendEvent(caseID, casefile.EventStateTransition,
			eventDetail(casefile.StatePendingExternal, casefile.StatePlan), actorOrchestrator)
	}
	return nil
}

// ApplyAnswerSuggestions applies a batch of extracted answers, skipping
// any question that is no longer open. Re-applying the same batch is a
// no-op.
func (o *Orchestrator) ApplyAnswerSuggestions(caseID string, suggestions []consult.AnswerSuggestion) (int, error) {
	c, err := o.Store.LoadCase(caseID)
	if err != nil {
		return 0, fmt.Errorf("load case: %w", err)
	}
	applied := 0
	var details []string
	for _, s := range suggestions {
		q := c.Question(s.QuestionID)
		if q == nil || q.Status != casefile.QuestionOpen {
			continue
		}
		q.Status = casefile.QuestionAnswered
		q.Answer = s.Answer
		applied++
		details = append(details, fmt.Sprintf("%s (%s confidence)", s.QuestionID, s.Confidence))
	}
	if applied == 0 {
		return 0, nil
	}
	resumed := resumeFromPending(c)
	if err := o.Store.SaveCase(c); err != nil {
		return 0, fmt.Errorf("save case: %w", err)
	}
	if err := o.Store.AppendEvent(caseID, casefile.EventQuestionAnswered,
		"batch: "+strings.Join(details, ", "), actorOrchestrator); err != nil {
		return 0, err
	}
	if resumed {
		if err := o.Store.AppendEvent(caseID, casefile.EventStateTransition,
			eventDetail(casefile.StatePendingExternal, casefile.StatePlan), actorOrchestrator); err != nil {
			return 0, err
		}
	}
	return applied, nil
}

// AddConstraint records an explicit, reasoned override of a required
// question's gate. The only sanctioned escape hatch; always audited.
func (o *Orchestrator) AddConstraint(caseID string, con casefile.Constraint) error {
	c, err := o.Store.LoadCase(caseID)
	if err != nil {
		return fmt.Errorf("load case: %w", err)
	}
	if c.Question(con.QuestionID) == nil {
		return fmt.Errorf("question %s not found in case %s", con.QuestionID, caseID)
	}
	if con.Description == "" {
		return errors.New("a constraint requires a description")
	}
	switch con.Reason {
	case casefile.ReasonInfoUnavailable, casefile.ReasonNotApplicable,
		casefile.ReasonAcceptedRisk, casefile.ReasonDeferredFollowup:
	default:
		return fmt.Errorf("unknown constraint reason %q", con.Reason)
	}
	if con.CreatedAt.IsZero() {
		con.CreatedAt = time.Now().UTC()
	}
	c.Constraints = append(c.Constraints, con)
	if err := o.Store.SaveCase(c); err != nil {
		return fmt.Errorf("save case: %w", err)
	}
	return o.Store.AppendEvent(caseID, casefile.EventConstraintAdded,
		fmt.Sprintf("question %s overridden (%s): %s", con.QuestionID, con.Reason, con.Description), "human")
}
