package template

// builtin returns the compiled-in template set. Workspace templates
// loaded from disk rank ahead of these only by keyword score.
func builtin() []*Template {
	return []*Template{
		{
			Name:           "service-outage",
			Description:    "A running service stopped responding or returns errors",
			Keywords:       []string{"outage", "down", "unavailable", "502", "503", "timeout"},
			Classification: "availability",
			Questions: []TemplateQuestion{
				{Prompt: "When did the outage start?", Required: true},
				{Prompt: "What changed most recently (deploy, config, infra)?", Required: true},
				{Prompt: "Is the failure total or partial?", Guidance: "error rate, affected endpoints"},
			},
			Hypotheses: []string{
				"a recent deployment introduced the failure",
				"an upstream dependency is unhealthy",
			},
		},
		{
			Name:           "crash-loop",
			Description:    "A process or pod restarts repeatedly",
			Keywords:       []string{"crash", "crashloop", "restart", "oom", "panic", "exit code"},
			Classification: "stability",
			Questions: []TemplateQuestion{
				{Prompt: "What does the process log immediately before exiting?", Required: true, RequiresEvidence: true},
				{Prompt: "Did resource limits or the runtime image change?", Required: true},
			},
			Hypotheses: []string{
				"the process exceeds its memory limit",
				"a bad config value fails validation at startup",
			},
		},
		{
			Name:           "performance-regression",
			Description:    "Latency or throughput degraded without hard failures",
			Keywords:       []string{"slow", "latency", "regression", "p99", "throughput", "degraded"},
			Classification: "performance",
			Questions: []TemplateQuestion{
				{Prompt: "Which percentiles degraded and by how much?", Required: true},
				{Prompt: "Does the degradation correlate with load?"},
			},
			Hypotheses: []string{
				"a query plan or cache behavior changed",
				"resource saturation on a shared dependency",
			},
		},
		{
			Name:           "data-inconsistency",
			Description:    "Stored or reported data disagrees with expectations",
			Keywords:       []string{"inconsistent", "mismatch", "corrupt", "missing data", "duplicate"},
			Classification: "data-integrity",
			Questions: []TemplateQuestion{
				{Prompt: "Which records disagree, and between which systems?", Required: true},
				{Prompt: "Is the inconsistency growing or stable?"},
			},
			Hypotheses: []string{
				"a migration or backfill wrote partial data",
				"two writers race on the same records",
			},
		},
	}
}
