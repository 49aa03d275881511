package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/guardian"
	"github.com/praetorian-inc/guardian/pkg/config"
	"github.com/praetorian-inc/guardian/pkg/logger"
	"github.com/praetorian-inc/guardian/pkg/rule"
	"github.com/praetorian-inc/guardian/pkg/scanner"
)

// loadSettings resolves the configuration of cmd from its flags, the config
// file, and the environment, and builds the logger it asks for.
func loadSettings(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	v := config.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, nil, fmt.Errorf("binding flags: %w", err)
	}

	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}

	log, err := logger.New(logger.Config{
		Level:  level,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, log, nil
}

// newScanner compiles the catalogs selected by cfg. Custom rule files are
// evaluated after the bundled categories.
func newScanner(cfg *config.Config, log *logger.Logger) (*scanner.Scanner, error) {
	categories, err := parseCategories(cfg.Categories)
	if err != nil {
		return nil, err
	}

	g, err := guardian.New(
		guardian.WithCategories(categories...),
		guardian.WithCatalogFiles(cfg.Rules...),
		guardian.WithRuleFilter(rule.ParsePatterns(cfg.RulesInclude), rule.ParsePatterns(cfg.RulesExclude)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	return scanner.New(g.Matchers(), scanner.Config{
		Concurrency:    cfg.Concurrency,
		IncludeComment: cfg.IncludeComment,
		Logger:         log,
	})
}

// parseCategories resolves category identifiers, ignoring case and blanks.
func parseCategories(values []string) ([]rule.Category, error) {
	var categories []rule.Category
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		c, err := rule.ParseCategory(value)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}
