package commands

import (
	"errors"
	"fmt"

	"github.com/taskhive/taskhive/internal/ai"
	"github.com/taskhive/taskhive/internal/assign"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/engine"
	"github.com/taskhive/taskhive/internal/logging"
	"github.com/taskhive/taskhive/internal/store"
)

// loadConfig loads the merged project/global configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// initLogging sets up the global logger from config.
func initLogging(cfg *config.Config) error {
	return logging.Init(cfg.LogConfig())
}

func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newAIClient builds the Gemini client. The client is safe to construct
// without an API key; calls then fail with ai.ErrNotConfigured and the
// engine falls back to deterministic behavior.
func newAIClient(cfg *config.Config) *ai.Client {
	return ai.NewClient(cfg.ProviderConfig(), ai.WithLogger(logging.Component("ai")))
}

// newEngine wires the store, provider, and recommender into an engine.
func newEngine(cfg *config.Config, st *store.Store) *engine.Engine {
	client := newAIClient(cfg)
	rec := assign.New(client, logging.Component("assign"))
	return engine.New(st,
		engine.WithProvider(client),
		engine.WithRecommender(rec),
		engine.WithLogger(logging.Component("engine")),
	)
}

// actingUser resolves the acting user's name and email, flags taking
// precedence over config.
func actingUser(cfg *config.Config) (name, email string, err error) {
	name = cfg.User.Name
	email = cfg.User.Email
	if userNameFlag != "" {
		name = userNameFlag
	}
	if userEmailFlag != "" {
		email = userEmailFlag
	}
	if email == "" {
		return "", "", fmt.Errorf("no acting user (set user.email in taskhive.yaml or pass --email)")
	}
	return name, email, nil
}

// presentAIError rewrites classified provider failures into guidance the
// user can act on. Transient failures carry a wait hint; unparseable
// responses ask for a rephrase. Other errors pass through unchanged.
func presentAIError(err error) error {
	if err == nil {
		return nil
	}
	var pe *ai.ProviderError
	if errors.As(err, &pe) {
		return errors.New(pe.UserMessage())
	}
	if errors.Is(err, ai.ErrIncompleteResponse) {
		return errors.New("the AI response could not be parsed; rephrase your request or ask for fewer tasks")
	}
	return err
}

// shortID abbreviates a UUID for table output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
