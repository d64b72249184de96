package orchestrate

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"fathom/internal/casefile"
	"fathom/internal/consult"
	"fathom/internal/logging"
)

// maxExtractBatch bounds how many open questions one AutoExtractAnswers
// call consults for.
const maxExtractBatch = 10

// AutoExtractAnswers asks the consultation service to answer each open
// question strictly from the case's stored evidence. Questions the
// evidence cannot answer come back with a not-found sentinel and are
// dropped, never turned into low-confidence guesses. The returned
// suggestions are not applied; callers review them and then use
// ApplyAnswerSuggestions.
func (o *Orchestrator) AutoExtractAnswers(ctx context.Context, caseID string) ([]consult.AnswerSuggestion, error) {
	c, err := o.Store.LoadCase(caseID)
	if err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}

	var open []casefile.Question
	for _, q := range c.Questions {
		if q.Status == casefile.QuestionOpen {
			open = append(open, q)
		}
		if len(open) == maxExtractBatch {
			break
		}
	}
	if len(open) == 0 {
		return nil, nil
	}

	evidenceText := ""
	if o.Evidence != nil {
		evidenceText = o.Evidence.ReadExcerpts(c)
	}
	if evidenceText == "" {
		return nil, fmt.Errorf("case %s has no readable evidence to extract from", caseID)
	}

	log := logging.New("orchestrate")
	workers := o.ExtractWorkers
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	var out []consult.AnswerSuggestion

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, q := range open {
		g.Go(func() error {
			ans, err := o.Consultant.ExtractAnswer(gctx, c, q, evidenceText)
			if err != nil {
				// One failed extraction does not sink the batch.
				log.Warn("extraction failed", "case", caseID, "question", q.ID, "error", err)
				return nil
			}
			if !ans.Found {
				log.Debug("no answer in evidence", "case", caseID, "question", q.ID)
				return nil
			}
			mu.Lock()
			out = append(out, consult.AnswerSuggestion{
				QuestionID:  q.ID,
				Answer:      ans.Answer,
				Confidence:  ans.Confidence,
				EvidenceIDs: ans.EvidenceIDs,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stable order: same as the questions appear on the case.
	ordered := make([]consult.AnswerSuggestion, 0, len(out))
	for _, q := range open {
		for _, s := range out {
			if s.QuestionID == q.ID {
				ordered = append(ordered, s)
				break
			}
		}
	}
	return ordered, nil
}
