//go:build wasm

package main

import (
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/praetorian-inc/guardian"
	"github.com/praetorian-inc/guardian/pkg/rule"
	"github.com/praetorian-inc/guardian/pkg/scanner"
	"github.com/praetorian-inc/guardian/pkg/types"
)

var (
	scanners   = make(map[int]*scanner.Scanner)
	scannersMu sync.RWMutex
	nextID     int
)

// bindingConfig selects the catalogs of a handle. Catalogs holds YAML
// catalog definitions, evaluated after the bundled categories.
type bindingConfig struct {
	Categories   []string `json:"categories"`
	Catalogs     []string `json:"catalogs"`
	RulesInclude []string `json:"rules_include"`
	RulesExclude []string `json:"rules_exclude"`
}

// newScanner compiles the catalogs described by configJSON.
// An empty string selects the PII catalog.
func newScanner(configJSON string) (*scanner.Scanner, error) {
	var cfg bindingConfig
	if configJSON != "" {
		if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	opts := []guardian.Option{guardian.WithRuleFilter(cfg.RulesInclude, cfg.RulesExclude)}
	for _, c := range cfg.Categories {
		category, err := rule.ParseCategory(c)
		if err != nil {
			return nil, err
		}
		opts = append(opts, guardian.WithCategories(category))
	}

	loader := rule.NewLoader()
	for i, definition := range cfg.Catalogs {
		catalog, err := loader.LoadCatalog([]byte(definition), fmt.Sprintf("catalogs[%d]", i))
		if err != nil {
			return nil, err
		}
		opts = append(opts, guardian.WithCatalogs(catalog))
	}

	g, err := guardian.New(opts...)
	if err != nil {
		return nil, err
	}
	return scanner.New(g.Matchers(), scanner.Config{Concurrency: 1})
}

// newGuardian creates a handle with the given config JSON.
// JS: GuardianNew(configJSON) -> {handle} or {error}
func newGuardian(this js.Value, args []js.Value) interface{} {
	configJSON := ""
	if len(args) > 0 {
		configJSON = args[0].String()
	}

	sc, err := newScanner(configJSON)
	if err != nil {
		return map[string]interface{}{"error": "failed to create matcher: " + err.Error()}
	}

	// Register scanner
	scannersMu.Lock()
	id := nextID
	nextID++
	scanners[id] = sc
	scannersMu.Unlock()

	return map[string]interface{}{"handle": id}
}

func lookup(handle int) (*scanner.Scanner, bool) {
	scannersMu.RLock()
	defer scannersMu.RUnlock()
	sc, ok := scanners[handle]
	return sc, ok
}

// matchWords matches a list of words.
// JS: GuardianMatchWords(handle, wordsJSON) -> JSON results or {error}
func matchWords(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and wordsJSON arguments required"}
	}

	sc, ok := lookup(args[0].Int())
	if !ok {
		return map[string]interface{}{"error": "invalid handle"}
	}

	var words []string
	if err := json.Unmarshal([]byte(args[1].String()), &words); err != nil {
		return map[string]interface{}{"error": "failed to parse words JSON: " + err.Error()}
	}

	return marshal(sc.MatchWords(words))
}

// scanBatch scans several named word lists.
// JS: GuardianScanBatch(handle, itemsJSON) -> JSON report or {error}
func scanBatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and itemsJSON arguments required"}
	}

	sc, ok := lookup(args[0].Int())
	if !ok {
		return map[string]interface{}{"error": "invalid handle"}
	}

	// Parse items
	var items []scanner.Item
	if err := json.Unmarshal([]byte(args[1].String()), &items); err != nil {
		return map[string]interface{}{"error": "failed to parse items JSON: " + err.Error()}
	}

	return marshal(sc.ScanBatch(items))
}

// closeGuardian releases a handle.
// JS: GuardianClose(handle)
func closeGuardian(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "handle argument required"}
	}

	handle := args[0].Int()

	scannersMu.Lock()
	_, ok := scanners[handle]
	delete(scanners, handle)
	scannersMu.Unlock()

	if !ok {
		return map[string]interface{}{"error": "invalid handle"}
	}
	return nil
}

type catalogJSON struct {
	Category string        `json:"category"`
	Rules    []*types.Rule `json:"data_rules"`
}

// getBuiltinCatalogs returns the bundled catalogs as JSON.
// JS: GuardianGetBuiltinCatalogs() -> JSON catalog array
func getBuiltinCatalogs(this js.Value, args []js.Value) interface{} {
	catalogs, err := rule.NewLoader().LoadBuiltinCatalogs()
	if err != nil {
		return map[string]interface{}{"error": "failed to load builtin catalogs: " + err.Error()}
	}

	out := make([]catalogJSON, 0, len(catalogs))
	for _, c := range catalogs {
		out = append(out, catalogJSON{Category: c.Category(), Rules: c.Rules()})
	}
	return marshal(out)
}

func marshal(v any) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal results: " + err.Error()}
	}
	return string(jsonBytes)
}
