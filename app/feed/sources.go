package feed

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSources reads the YAML source list. Each source needs a valid URL;
// a missing name falls back to the feed host.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	seen := make(map[string]bool, len(file.Sources))
	sources := make([]Source, 0, len(file.Sources))
	for i, src := range file.Sources {
		parsed, err := url.Parse(src.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("source %d has invalid url %q", i, src.URL)
		}
		if src.Name == "" {
			src.Name = parsed.Host
		}
		if seen[src.URL] {
			continue
		}
		seen[src.URL] = true
		sources = append(sources, src)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("sources file %s contains no sources", path)
	}

	return sources, nil
}

// TrustedSources returns the names of sources flagged as trusted, used as
// the allow-list for the raw digest tier.
func TrustedSources(sources []Source) map[string]bool {
	trusted := make(map[string]bool)
	for _, src := range sources {
		if src.Trusted {
			trusted[src.Name] = true
		}
	}
	return trusted
}
