// Command app is a terminal front end for the completion pipeline.
// It resolves accounts from the environment, warms the engine registry,
// and runs a line-oriented chat loop with streamed output.
//
// Examples:
//
//	export OPENAI_API_KEY=...
//	go run ./cmd/app -provider openai -model gpt-4o-mini
//
//	go run ./cmd/app -provider dummy          # no network, echo engine
//	go run ./cmd/app -system "Be brief" -no-stream
//
// A /stop line cancels the in-flight completion; /quit exits.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	parakeet "github.com/parakeet-chat/parakeet"
	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/config"
	"github.com/parakeet-chat/parakeet/src/engine"
	"github.com/parakeet-chat/parakeet/src/provider"
)

var (
	flagProvider = flag.String("provider", "dummy", "provider id: openai|mistralai|openrouter|anthropic|gemini|ollama|dummy")
	flagModel    = flag.String("model", "", "model id (defaults to the first catalog entry)")
	flagSystem   = flag.String("system", "", "optional system message")
	flagConfig   = flag.String("config", "parakeet.toml", "settings file")
	flagNoStream = flag.Bool("no-stream", false, "disable streaming")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	settings, err := config.Load(*flagConfig)
	if err != nil {
		log.Printf("settings: %v (using defaults)", err)
	}

	ctx := context.Background()
	eng, err := resolveEngine(ctx)
	if err != nil {
		fail(err)
	}

	models, err := eng.Models(ctx)
	if err != nil {
		// Degrade to an empty catalog; the failure is only a warning.
		log.Printf("warning: %v", err)
	}
	model, err := pickModel(models, *flagModel)
	if err != nil {
		fail(err)
	}
	fmt.Printf("%s / %s\n", eng.Provider().Name, model.DisplayName())

	conv := chat.NewConversation()
	if *flagSystem != "" {
		m := chat.NewMessage(chat.RoleSystem, *flagSystem)
		conv.SetSystem(&m)
	}

	// The drained channel plays the interactive thread: adapter calls are
	// marshaled here in order, never invoked from the worker goroutine.
	events := make(chan func(), 64)
	done := make(chan struct{}, 1)
	orch, err := parakeet.New(parakeet.Options{
		Conversation: conv,
		Adapter:      &consoleAdapter{done: done},
		CallAfter:    func(fn func()) { events <- fn },
	})
	if err != nil {
		fail(err)
	}

	params := chat.BlockParams{
		Temperature: settings.Defaults.Temperature,
		TopP:        settings.Defaults.TopP,
		MaxTokens:   settings.Defaults.MaxTokens,
		Stream:      settings.Defaults.Stream && !*flagNoStream,
	}

	lines := make(chan string)
	go readLines(lines)

	for {
		fmt.Print("> ")
		line, ok := <-lines
		if !ok {
			return
		}
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/quit":
			return
		case "/stop":
			continue
		}

		if _, err := orch.Submit(ctx, eng, model, params, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		// Pump marshaled events until this completion reaches a terminal
		// notification, keeping the loop responsive to /stop.
	pump:
		for {
			select {
			case fn := <-events:
				fn()
			case <-done:
				break pump
			case next, open := <-lines:
				trimmed := ""
				if open {
					trimmed = strings.TrimSpace(next)
				}
				if !open || trimmed == "/quit" {
					orch.Stop()
					drainEvents(events, done)
					return
				}
				if trimmed == "/stop" {
					orch.Stop()
				}
			}
		}
	}
}

// drainEvents flushes pending marshaled events until the terminal
// notification lands, so cancellation output is not lost on exit.
func drainEvents(events chan func(), done chan struct{}) {
	for {
		select {
		case fn := <-events:
			fn()
		case <-done:
			return
		}
	}
}

// resolveEngine builds the selected engine from environment accounts.
func resolveEngine(ctx context.Context) (engine.Engine, error) {
	if *flagProvider == "dummy" {
		return engine.NewDummyEngine(), nil
	}
	accounts := provider.AccountsFromEnv()
	registry := engine.NewRegistry()
	if err := registry.WarmUp(ctx, accounts, 4); err != nil {
		log.Printf("warm-up: %v", err)
	}
	for _, acc := range accounts {
		if acc.Provider.ID == *flagProvider {
			return registry.Get(ctx, acc)
		}
	}
	return nil, fmt.Errorf("no account for provider %q (is its API key set?)", *flagProvider)
}

func pickModel(models []provider.AIModel, id string) (provider.AIModel, error) {
	if id == "" {
		if len(models) == 0 {
			return provider.AIModel{}, fmt.Errorf("empty model catalog; pass -model")
		}
		return models[0], nil
	}
	for _, m := range models {
		if m.ID == id {
			return m, nil
		}
	}
	// Not in the catalog; trust the user and inherit engine capabilities.
	return provider.AIModel{ID: id}, nil
}

func readLines(out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

// consoleAdapter renders completion events on stdout.
type consoleAdapter struct {
	done chan struct{}
}

func (c *consoleAdapter) OnFragment(blockID uuid.UUID, text string) {
	fmt.Print(text)
}

func (c *consoleAdapter) OnCompleted(blockID uuid.UUID, final chat.Message) {
	if final.Content != "" && !strings.HasSuffix(final.Content, "\n") {
		fmt.Println()
	}
	c.done <- struct{}{}
}

func (c *consoleAdapter) OnCancelled(blockID uuid.UUID, partial chat.Message) {
	fmt.Println("\n[cancelled]")
	c.done <- struct{}{}
}

func (c *consoleAdapter) OnError(blockID uuid.UUID, kind engine.Kind, message string) {
	fmt.Fprintf(os.Stderr, "\n[%s] %s\n", kind, message)
	c.done <- struct{}{}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
