package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fathom/internal/casefile"
)

var answerFlags struct {
	question string
	skip     bool
}

var answerCmd = &cobra.Command{
	Use:   "answer <case> [text...]",
	Short: "Answer or skip an intake question",
	Long: "Records an answer for one question. Answering a pending-external case\n" +
		"resumes it to Plan. With --skip the question is marked skipped instead\n" +
		"(strict-mode cases require a constraint instead of a skip).",
	Args: cobra.MinimumNArgs(1),
	RunE: runAnswer,
}

func init() {
	f := answerCmd.Flags()
	f.StringVar(&answerFlags.question, "question", "", "Question ID or unique prefix (required)")
	f.BoolVar(&answerFlags.skip, "skip", false, "Mark the question skipped instead of answering")
	_ = answerCmd.MarkFlagRequired("question")
}

func runAnswer(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := resolveCaseID(st, args[0])
	if err != nil {
		return err
	}
	c, err := st.LoadCase(id)
	if err != nil {
		return err
	}

	q := findQuestion(c, answerFlags.question)
	if q == nil {
		return fmt.Errorf("no question matches %q on case %s", answerFlags.question, shortID(id))
	}

	if answerFlags.skip {
		if c.StrictMode && q.Required {
			return fmt.Errorf("case is in strict mode: required questions need a constraint ('fathom constraint'), not a skip")
		}
		q.Status = casefile.QuestionSkipped
		if err := st.SaveCase(c); err != nil {
			return err
		}
		if err := st.AppendEvent(id, casefile.EventQuestionSkipped, q.ID, "human"); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Skipped: %s\n", q.Prompt)
		return nil
	}

	text := strings.Join(args[1:], " ")
	if text == "" {
		return fmt.Errorf("no answer text given")
	}
	if err := newOrchestrator(st).AddAnswer(id, q.ID, text); err != nil {
		return err
	}

	c, err = st.LoadCase(id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Answered: %s\n", q.Prompt)
	if open := c.OpenRequiredQuestions(); len(open) > 0 {
		fmt.Fprintf(out, "%d required question(s) still open.\n", len(open))
	} else {
		fmt.Fprintf(out, "All required questions resolved. State: %s\n", c.State)
	}
	return nil
}

// findQuestion matches a question by full ID or unique prefix.
func findQuestion(c *casefile.Case, ref string) *casefile.Question {
	if q := c.Question(ref); q != nil {
		return q
	}
	var match *casefile.Question
	for i := range c.Questions {
		if strings.HasPrefix(c.Questions[i].ID, ref) {
			if match != nil {
				return nil
			}
			match = &c.Questions[i]
		}
	}
	return match
}
