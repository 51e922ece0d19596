// Interactive project assistant. Reads user messages from STDIN, runs each
// one as a full agent turn (tool calls included), and prints the reply.
//
// Examples:
//
//	export GOOGLE_API_KEY=...
//	go run ./cmd/app -project "My Project" -repos octo/demo
//
//	export OPENAI_API_KEY=... TASKWEAVE_GIT_TOKEN=ghp_...
//	go run ./cmd/app -config config.yaml -provider openai -model gpt-4o-mini
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	runtime "github.com/taskweave/go-assistant"
	"github.com/taskweave/go-assistant/src/cache"
	"github.com/taskweave/go-assistant/src/commit"
	"github.com/taskweave/go-assistant/src/config"
	"github.com/taskweave/go-assistant/src/gitremote"
	"github.com/taskweave/go-assistant/src/models"
	"github.com/taskweave/go-assistant/src/project"
	"github.com/taskweave/go-assistant/src/store"
)

var (
	flagConfig   = flag.String("config", "config.yaml", "Path to the YAML config file")
	flagProvider = flag.String("provider", "", "LLM provider: openai|gemini|anthropic|ollama|dummy (overrides config)")
	flagModel    = flag.String("model", "", "Model ID for the selected provider (overrides config)")
	flagProject  = flag.String("project", "Scratch project", "Project name for this session")
	flagRepos    = flag.String("repos", "", "Comma-separated owner/name repositories linked to the project")
	flagSystem   = flag.String("system", "", "Optional system prompt override")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *flagProvider != "" {
		cfg.Model.Provider = *flagProvider
	}
	if *flagModel != "" {
		cfg.Model.Name = *flagModel
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel(cfg.Log.Level),
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	model, err := models.NewLLMProvider(ctx, cfg.Model.Provider, cfg.Model.Name)
	if err != nil {
		logger.Error("provider setup failed", "error", err)
		os.Exit(1)
	}

	st, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	p := project.New(*flagProject)
	if *flagRepos != "" {
		for _, repo := range strings.Split(*flagRepos, ",") {
			if repo = strings.TrimSpace(repo); repo != "" {
				p.Repositories = append(p.Repositories, repo)
			}
		}
	}
	if err := st.Save(ctx, p); err != nil {
		logger.Error("initial save failed", "error", err)
		os.Exit(1)
	}

	token := cfg.Git.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	var gatewayOpts []gitremote.ClientOption
	if cfg.Git.BaseURL != "" {
		gatewayOpts = append(gatewayOpts, gitremote.WithBaseURL(cfg.Git.BaseURL))
	}
	gatewayOpts = append(gatewayOpts, gitremote.WithLogger(logger))
	gateway := gitremote.NewClient(gatewayOpts...)
	coordinator := commit.NewCoordinator(gateway, cache.NewDigestCache(0, 0), logger)

	dispatcher := runtime.NewToolDispatcher(runtime.NewToolCatalog(), p, st, token, logger)
	if err := dispatcher.RegisterBuiltins(gateway, coordinator); err != nil {
		logger.Error("tool registration failed", "error", err)
		os.Exit(1)
	}

	assistant := runtime.NewAssistant(model, dispatcher,
		runtime.WithModelName(cfg.Model.Name),
		runtime.WithSystemPrompt(*flagSystem),
		runtime.WithLogger(logger),
	)
	assistant.Invoker().WithRetryPolicy(cfg.Retry.MaxAttempts,
		time.Duration(cfg.Retry.BaseBackoffMS)*time.Millisecond)

	logger.Info("session ready",
		"provider", cfg.Model.Provider, "model", cfg.Model.Name,
		"store", cfg.Store.Backend, "project", p.Name)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	fmt.Print("> ")
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			fmt.Print("> ")
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		reply, err := assistant.Turn(ctx, input)
		if err != nil {
			// The turn failed; the user's message stays in the
			// transcript so it can be resent.
			fmt.Printf("request failed: %v\n> ", err)
			continue
		}
		fmt.Printf("%s\n> ", reply)
	}
	if err := scanner.Err(); err != nil {
		logger.Error("stdin read failed", "error", err)
	}
}

func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.ProjectStore, func(), error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return store.NewMemoryStore(), func() {}, nil
	case "mongo":
		ms, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDB, "projects")
		if err != nil {
			return nil, nil, err
		}
		return ms, func() {
			if err := ms.Close(); err != nil {
				logger.Warn("mongo close failed", "error", err)
			}
		}, nil
	case "postgres":
		ps, err := store.NewPostgresStore(ctx, cfg.Store.PostgresURI)
		if err != nil {
			return nil, nil, err
		}
		if err := ps.CreateSchema(ctx); err != nil {
			ps.Close()
			return nil, nil, err
		}
		return ps, ps.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
