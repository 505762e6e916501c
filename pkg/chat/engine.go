package chat

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"

	"deep-research-be/pkg/agents"
	"deep-research-be/pkg/llm"
	"deep-research-be/pkg/research/progress"
)

const maxHopsPerTurn = 3

// turnOutput is the JSON contract every support agent replies with.
type turnOutput struct {
	Reply   string `json:"reply"`
	Handoff string `json:"handoff,omitempty"`
	Tool    *struct {
		Name string            `json:"name"`
		Args map[string]string `json:"args"`
	} `json:"tool,omitempty"`
}

const turnOutputShape = `Respond with JSON only: {"reply": "...", "handoff": "<agent name or empty>", "tool": {"name": "...", "args": {...}} or null}`

// Engine runs the triage / FAQ / seat-booking agent loop for support
// conversations, appending message, handoff, tool_call, and tool_output
// records to the conversation's progress log.
type Engine struct {
	runner agents.IRunner
	logger *log.Logger
	agents map[string]agents.Agent
}

func NewEngine(runner agents.IRunner, logger *log.Logger) *Engine {
	return &Engine{
		runner: runner,
		logger: logger,
		agents: supportAgents(),
	}
}

func supportAgents() map[string]agents.Agent {
	return map[string]agents.Agent{
		AgentTriage: {
			Name: AgentTriage,
			Instructions: "You are a helpful airline triage agent. Delegate the customer to the " +
				"right specialist: hand off to \"" + AgentFAQ + "\" for questions about the " +
				"airline, or to \"" + AgentSeatBooking + "\" for seat changes. " + turnOutputShape,
		},
		AgentFAQ: {
			Name: AgentFAQ,
			Instructions: "You are an airline FAQ agent. Identify the customer's question and call " +
				"the faq_lookup tool with it; never answer from your own knowledge. If the " +
				"question is out of scope, hand off to \"" + AgentTriage + "\". " + turnOutputShape,
		},
		AgentSeatBooking: {
			Name: AgentSeatBooking,
			Instructions: "You are a seat booking agent. Collect the confirmation number and the " +
				"desired seat, then call the update_seat tool with args confirmation_number and " +
				"new_seat. For anything else, hand off to \"" + AgentTriage + "\". " + turnOutputShape,
		},
	}
}

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`my name is ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`name is ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`I am ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`I'm ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`this is ([A-Z][a-z]+ [A-Z][a-z]+)`),
}

// HandleMessage runs one customer turn to completion, following at most
// maxHopsPerTurn handoffs. The final assistant reply is returned and also
// appended to the log as a `message` record.
func (e *Engine) HandleMessage(ctx context.Context, conv *Conversation, message string) (string, error) {
	conv.Mu.Lock()
	defer conv.Mu.Unlock()

	if conv.Context.PassengerName == "" {
		for _, p := range namePatterns {
			if m := p.FindStringSubmatch(message); m != nil {
				conv.Context.PassengerName = m[1]
				break
			}
		}
	}

	conv.History = append(conv.History, llm.Message{Role: "user", Content: message})

	input := message
	for hop := 0; hop < maxHopsPerTurn; hop++ {
		agent := e.agents[conv.CurrentAgent]
		out, err := e.runAgent(ctx, agent, conv, input)
		if err != nil {
			return "", err
		}

		if out.Tool != nil && out.Tool.Name != "" {
			conv.Log.Append(progress.KindToolCall,
				fmt.Sprintf("Calling tool: %s", out.Tool.Name), false)

			result, err := e.executeTool(conv, out.Tool.Name, out.Tool.Args, message)
			if err != nil {
				e.logger.Printf("[WARN] Tool %s failed: %v", out.Tool.Name, err)
				result = fmt.Sprintf("Tool error: %v", err)
			}
			conv.Log.Append(progress.KindToolOutput,
				fmt.Sprintf("Tool result: %s", result), false)

			// One more pass so the agent can phrase the tool result.
			followUp, err := e.runAgent(ctx, agent, conv,
				fmt.Sprintf("Tool result: %s\nAnswer the customer using this result.", result))
			if err != nil {
				return "", err
			}
			out = followUp
		}

		if out.Handoff != "" && out.Handoff != conv.CurrentAgent {
			if _, known := e.agents[out.Handoff]; !known {
				e.logger.Printf("[WARN] Agent %s requested handoff to unknown agent %s",
					conv.CurrentAgent, out.Handoff)
			} else {
				conv.Log.Append(progress.KindHandoff,
					fmt.Sprintf("Handed off from %s to %s", conv.CurrentAgent, out.Handoff), false)
				if out.Handoff == AgentSeatBooking {
					e.onSeatBookingHandoff(&conv.Context)
				}
				conv.CurrentAgent = out.Handoff
				input = message
				continue
			}
		}

		reply := out.Reply
		if reply == "" {
			reply = "I'm sorry, could you rephrase that?"
		}
		conv.History = append(conv.History, llm.Message{Role: "assistant", Content: reply})
		conv.Log.Append(progress.KindMessage, reply, false)
		return reply, nil
	}

	return "", fmt.Errorf("conversation %s exceeded %d handoffs in one turn", conv.ID, maxHopsPerTurn)
}

func (e *Engine) runAgent(ctx context.Context, agent agents.Agent, conv *Conversation, input string) (*turnOutput, error) {
	result, err := e.runner.Run(ctx, agent, e.buildInput(conv, input))
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", agent.Name, err)
	}

	var out turnOutput
	if err := agents.DecodeJSON(result.FinalOutput, &out); err != nil {
		// Treat non-JSON output as a plain reply rather than failing the turn.
		return &turnOutput{Reply: result.FinalOutput}, nil
	}
	return &out, nil
}

func (e *Engine) buildInput(conv *Conversation, input string) string {
	prompt := fmt.Sprintf("Passenger context: %+v\n", conv.Context)
	for _, msg := range conv.History {
		prompt += fmt.Sprintf("%s: %s\n", msg.Role, msg.Content)
	}
	prompt += fmt.Sprintf("Current input: %s", input)
	return prompt
}

func (e *Engine) executeTool(conv *Conversation, name string, args map[string]string, message string) (string, error) {
	switch name {
	case "faq_lookup":
		question := args["question"]
		if question == "" {
			question = message
		}
		return faqLookup(question), nil
	case "update_seat":
		return updateSeat(&conv.Context, args["confirmation_number"], args["new_seat"])
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// onSeatBookingHandoff assigns a flight number, mirroring what a booking
// system lookup would return.
func (e *Engine) onSeatBookingHandoff(ctx *AirlineContext) {
	ctx.FlightNumber = fmt.Sprintf("FLT-%d", 100+rand.Intn(900))
}
