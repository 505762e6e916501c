package main

import (
	"context"
	"flag"
	"log"
	"os"

	"deep-research-be/internal/config"
	"deep-research-be/pkg/agents"
	"deep-research-be/pkg/llm/factory"
	"deep-research-be/pkg/research"
	"deep-research-be/pkg/research/progress"
	"deep-research-be/pkg/research/session"

	"github.com/fatih/color"
)

// Runs a research pipeline against the configured LLM provider and
// prints every progress record to the terminal as it lands. Useful for
// exercising the pipeline without the HTTP surface.
func main() {
	query := flag.String("query", "", "research question to run")
	variantName := flag.String("variant", "general", "pipeline variant: general or financial")
	flag.Parse()

	if *query == "" {
		color.Red("usage: simulate -query \"...\" [-variant general|financial]")
		os.Exit(1)
	}

	cfg := config.Load()

	provider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFaceKey,
	)
	if err != nil {
		log.Fatalf("LLM provider: %v", err)
	}

	runner := agents.NewRunner(provider, log.Default())
	variant := research.VariantByName(*variantName)

	registry := session.NewRegistry()
	sess := registry.Create(*query, variant.Name)
	sess.Log.SetNotifier(printRecord)

	color.Cyan("== %s pipeline: %s", variant.Name, *query)

	orchestrator := research.NewOrchestrator(runner, variant, log.Default())
	if err := orchestrator.Run(context.Background(), sess); err != nil {
		color.Red("pipeline failed at stage %q: %v", sess.Stage, err)
		os.Exit(1)
	}

	color.Green("== done (%d records)", sess.Log.Len())
}

func printRecord(record progress.UpdateRecord) {
	label := color.YellowString("[%s]", record.Kind)
	if record.Done {
		label = color.GreenString("[%s]", record.Kind)
	}

	switch record.Kind {
	case progress.KindFullReport:
		// The full markdown dwarfs everything else; keep the feed readable.
		color.White("%s (%d bytes of markdown)", label, len(record.Content))
	default:
		color.White("%s %s", label, record.Content)
	}
}
