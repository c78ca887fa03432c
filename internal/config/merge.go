package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyOutput    = "output"
	keyLogging   = "logging"
	keyStore     = "store"
	keyBenchmark = "benchmark"
	keyDashboard = "dashboard"
	keyMetrics   = "metrics"
	keyEvents    = "events"
	keyBackup    = "backup"
)

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// target. Keys present in the overlay replace entire sections; absent keys
// and unknown keys leave target unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]any
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, value := range overlay {
		// Re-marshal the single section so it can be decoded onto the typed field.
		sectionBytes, marshalErr := yaml.Marshal(value)
		if marshalErr != nil {
			return fmt.Errorf("re-marshalling overlay section %q: %w", key, marshalErr)
		}
		if err = unmarshalSection(target, key, sectionBytes); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// unmarshalSection decodes data into a fresh zero value of the section named
// key and replaces that section of target. Unknown keys are ignored.
func unmarshalSection(target *Config, key string, data []byte) error {
	switch key {
	case keyOutput:
		return replaceSection(data, &target.Output)
	case keyLogging:
		return replaceSection(data, &target.Logging)
	case keyStore:
		return replaceSection(data, &target.Store)
	case keyBenchmark:
		return replaceSection(data, &target.Benchmark)
	case keyDashboard:
		return replaceSection(data, &target.Dashboard)
	case keyMetrics:
		return replaceSection(data, &target.Metrics)
	case keyEvents:
		return replaceSection(data, &target.Events)
	case keyBackup:
		return replaceSection(data, &target.Backup)
	default:
		return nil
	}
}

func replaceSection[T any](data []byte, dst *T) error {
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}
