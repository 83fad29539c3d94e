package service

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// FactorDef — one tracked factor and its ETF basket, loaded from the
// factors file at startup.
type FactorDef struct {
	ID   string   `yaml:"id"`
	Name string   `yaml:"name"`
	ETFs []string `yaml:"etfs"`
}

type factorsFile struct {
	Factors []FactorDef `yaml:"factors"`
}

func LoadFactorDefs(path string) ([]FactorDef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open factors file")
	}
	defer func() {
		_ = f.Close()
	}()

	var parsed factorsFile
	if err := yaml.NewDecoder(f).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decode factors file")
	}
	if len(parsed.Factors) == 0 {
		return nil, errors.New("factors file lists no factors")
	}
	return parsed.Factors, nil
}
