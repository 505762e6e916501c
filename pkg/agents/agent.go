package agents

// Agent is a named capability backed by an LLM prompt.
// The instructions describe the task and the exact output shape expected.
type Agent struct {
	Name         string
	Instructions string
	Model        string // Optional model override
}
