package worker

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/KBNLresearch/frame-generator/corpus"
	"github.com/KBNLresearch/frame-generator/types"
	jsonpatch "github.com/evanphx/json-patch"
)

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}

// jobSettings applies the job's JSON merge patch to the default settings.
func jobSettings(patch json.RawMessage) (types.Settings, error) {
	settings := types.DefaultSettings()
	if len(patch) == 0 || string(patch) == "null" {
		return settings, nil
	}
	defaults, err := json.Marshal(settings)
	if err != nil {
		return settings, err
	}
	merged, err := jsonpatch.MergePatch(defaults, patch)
	if err != nil {
		return settings, fmt.Errorf("%w: settings patch: %v", types.ErrInvalidConfig, err)
	}
	settings = types.Settings{}
	if err := json.Unmarshal(merged, &settings); err != nil {
		return settings, fmt.Errorf("%w: settings patch: %v", types.ErrInvalidConfig, err)
	}
	return settings, settings.Validate()
}

// inputPath maps an object key under inputPrefix to its path below the staging directory. Keys
// outside the regex, docs and stop directories are skipped.
func inputPath(inputPrefix string, key string) (string, bool) {
	rel := strings.TrimPrefix(key, strings.TrimSuffix(inputPrefix, "/")+"/")
	if rel == key {
		return "", false
	}
	dir, name := path.Split(rel)
	switch strings.TrimSuffix(dir, "/") {
	case corpus.RegexDir, corpus.DocsDir, corpus.StopDir:
	default:
		return "", false
	}
	if name == "" {
		return "", false
	}
	return path.Join(strings.TrimSuffix(dir, "/"), name), true
}

func diagnosticMessages(diagnostics []corpus.Diagnostic) []string {
	messages := make([]string, len(diagnostics))
	for i, diagnostic := range diagnostics {
		messages[i] = diagnostic.Message
	}
	return messages
}
