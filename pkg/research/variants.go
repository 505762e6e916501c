package research

import "deep-research-be/pkg/agents"

// Variant bundles the agents and pacing of one research flavor.
// The pipeline itself is variant-agnostic; only the agent set, the
// writing phase labels, and the presence of verification differ.
type Variant struct {
	Name          string
	Planner       agents.Agent
	Searcher      agents.Agent
	Writer        agents.Agent
	Verifier      agents.Agent
	WritingLabels []string
	Verify        bool
}

const (
	VariantGeneral   = "general"
	VariantFinancial = "financial"
)

const planOutputShape = `Respond with JSON only: {"searches": [{"query": "...", "reason": "..."}]}`

const reportOutputShape = `Respond with JSON only: {"short_summary": "...", "markdown_report": "...", "follow_up_questions": ["..."]}`

// GeneralResearch mirrors the plain web research flow: plan, search,
// write. No verification stage.
func GeneralResearch() Variant {
	return Variant{
		Name: VariantGeneral,
		Planner: agents.Agent{
			Name: "PlannerAgent",
			Instructions: "You are a research planner. Given a query, produce 5 to 20 web searches " +
				"that together answer it, each with the reason it matters. " + planOutputShape,
		},
		Searcher: agents.Agent{
			Name: "SearchAgent",
			Instructions: "You are a research assistant. Given a search term, summarize the key " +
				"findings in 2-3 concise paragraphs of plain text.",
		},
		Writer: agents.Agent{
			Name: "WriterAgent",
			Instructions: "You are a senior researcher writing a cohesive markdown report from " +
				"summarized search results. Aim for 5-10 pages. " + reportOutputShape,
		},
		WritingLabels: []string{
			"Thinking about report...",
			"Planning report structure...",
			"Writing outline...",
			"Creating sections...",
			"Cleaning up formatting...",
			"Finalizing report...",
			"Finishing report...",
		},
		Verify: false,
	}
}

// FinancialResearch mirrors the financial analyst flow: same shape plus
// a verification pass over the finished report.
func FinancialResearch() Variant {
	return Variant{
		Name: VariantFinancial,
		Planner: agents.Agent{
			Name: "FinancialPlannerAgent",
			Instructions: "You are a financial research planner. Given a request about a company " +
				"or market, produce up to 15 searches covering recent financials, filings, and " +
				"analyst commentary, each with a reason. " + planOutputShape,
		},
		Searcher: agents.Agent{
			Name: "FinancialSearchAgent",
			Instructions: "You are a financial research assistant. Given a search term, summarize " +
				"the relevant financial facts and figures in at most 300 words of plain text.",
		},
		Writer: agents.Agent{
			Name: "FinancialWriterAgent",
			Instructions: "You are a senior financial analyst writing a markdown report from " +
				"summarized search results. Include an executive summary and follow-up questions. " +
				reportOutputShape,
		},
		Verifier: agents.Agent{
			Name: "VerificationAgent",
			Instructions: "You audit a financial report for internal consistency and unsourced " +
				"claims. Respond with JSON only: {\"verified\": true|false, \"issues\": \"...\"}",
		},
		WritingLabels: []string{
			"Planning report structure...",
			"Writing sections...",
			"Finalizing report...",
		},
		Verify: true,
	}
}

// VariantByName resolves a variant preset, defaulting to general research.
func VariantByName(name string) Variant {
	switch name {
	case VariantFinancial:
		return FinancialResearch()
	default:
		return GeneralResearch()
	}
}
