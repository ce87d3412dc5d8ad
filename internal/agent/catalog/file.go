package catalog

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/negotiation-sim/server/internal/agent/model"
)

type catalogFile struct {
	Scenarios []model.Scenario `json:"scenarios"`
}

// LoadFile reads a YAML catalog of the form `scenarios: [...]` using the same
// field names as the JSON API.
func LoadFile(path string) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	var f catalogFile
	if err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("catalog %s has no scenarios", path)
	}
	return New(f.Scenarios)
}
