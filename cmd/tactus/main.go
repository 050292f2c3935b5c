// Command tactus runs the conversational orchestration engine.
//
// Usage:
//
//	tactus serve --config config.yaml
//	tactus validate --config config.yaml
//	tactus version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/redis/go-redis/v9"

	"github.com/tactus-ai/tactus/pkg/config"
	"github.com/tactus-ai/tactus/pkg/llms"
	"github.com/tactus-ai/tactus/pkg/logger"
	"github.com/tactus-ai/tactus/pkg/observability"
	"github.com/tactus-ai/tactus/pkg/reasoning"
	"github.com/tactus-ai/tactus/pkg/skills"
	"github.com/tactus-ai/tactus/pkg/subagents"
	"github.com/tactus-ai/tactus/pkg/todo"
	"github.com/tactus-ai/tactus/pkg/tools"
	"github.com/tactus-ai/tactus/pkg/transport"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP server."`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path" default:"config.yaml"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stdout)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("tactus version %s\n", version)
	return nil
}

// ValidateCmd loads the config and reports whether it is usable.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if err := config.LoadEnvFiles(); err != nil {
		return err
	}
	if _, err := config.Load(cli.Config); err != nil {
		return err
	}
	fmt.Printf("%s is valid\n", cli.Config)
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Port int `help:"Port to listen on (overrides config)." default:"0"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	if err := config.LoadEnvFiles(); err != nil {
		return err
	}
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if c.Port > 0 {
		cfg.Server.Port = c.Port
	}

	if err := setupLogging(cli, cfg); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		if _, err := observability.SetupPrometheus("tactus"); err != nil {
			return fmt.Errorf("metrics setup failed: %w", err)
		}
	}

	router, err := buildRouter(cfg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := transport.New(router, addr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
		cancel()
	}()

	if err := server.ListenAndServe(); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func setupLogging(cli *CLI, cfg *config.Config) error {
	levelStr := cli.LogLevel
	if levelStr == "" {
		levelStr = cfg.Logging.Level
	}
	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		return err
	}

	output := os.Stdout
	if cli.LogFile != "" {
		file, _, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			return err
		}
		output = file
	}

	logger.Init(level, output, cli.LogFormat)
	return nil
}

// buildRouter assembles the full execution stack: the LLM client, the
// catalogs, the tool registry with its meta-tools, and the two engines.
func buildRouter(cfg *config.Config) (*reasoning.Router, error) {
	llm := llms.NewOpenAIProvider(llms.OpenAIConfig{
		Host:        cfg.LLM.Host,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		MaxRetries:  cfg.LLM.MaxRetries,
	})

	var todoStore todo.Store
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		todoStore = todo.NewRedisStore(client)
	} else {
		todoStore = todo.NewMemoryStore()
	}

	skillRegistry, err := skills.FromDirectories(cfg.Skills.Dirs)
	if err != nil {
		return nil, fmt.Errorf("skill loading failed: %w", err)
	}
	agentRegistry, err := subagents.FromDirectories(cfg.Agents.Dirs)
	if err != nil {
		return nil, fmt.Errorf("sub-agent loading failed: %w", err)
	}

	toolRegistry := tools.NewRegistry()
	toolRegistry.MustRegister(tools.NewWebSearchTool(cfg.Search.Endpoint, cfg.Search.APIKey))
	toolRegistry.MustRegister(tools.NewWebFetchTool())
	toolRegistry.MustRegister(tools.NewTodoWriteTool(todoStore))
	toolRegistry.MustRegister(tools.NewTodoReadTool(todoStore))
	toolRegistry.MustRegister(tools.NewSkillCallTool(skillRegistry))
	toolRegistry.MustRegister(tools.NewSkillExecTool(skillRegistry))
	toolRegistry.MustRegister(subagents.NewSubAgentCallTool(agentRegistry, toolRegistry, llm, todoStore))

	l1 := reasoning.NewL1FastTrack(llm, toolRegistry, cfg.L1.BasePrompt)
	l3 := reasoning.NewL3ReActEngine(llm, toolRegistry, todoStore, reasoning.L3Config{
		MaxIterations: cfg.L3.MaxIterations,
		Timeout:       cfg.L3.Timeout(),
		MaxLLMCalls:   cfg.L3.MaxLLMCalls,
	})

	slog.Info("Execution stack ready",
		"tools", toolRegistry.Count(),
		"skills", skillRegistry.Count(),
		"agents", agentRegistry.Count())
	return reasoning.NewRouter(l1, l3), nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("tactus"),
		kong.Description("Conversational AI orchestration engine."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
