package format

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"t12insight/internal/model"
)

//go:embed formats.toml
var formatsTOML []byte

type descriptorFile struct {
	Formats []model.FormatDescriptor `toml:"format"`
}

// LoadDescriptors parses the embedded format configuration. Called once
// at startup; the result is treated as immutable.
func LoadDescriptors() (map[string]*model.FormatDescriptor, error) {
	var file descriptorFile
	if err := toml.Unmarshal(formatsTOML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse formats.toml: %w", err)
	}

	descriptors := make(map[string]*model.FormatDescriptor, len(file.Formats))
	for i := range file.Formats {
		d := &file.Formats[i]
		if d.Name == "" {
			return nil, fmt.Errorf("format entry %d has no name", i)
		}
		if _, dup := descriptors[d.Name]; dup {
			return nil, fmt.Errorf("duplicate format descriptor %q", d.Name)
		}
		descriptors[d.Name] = d
	}
	return descriptors, nil
}

// MustLoadDescriptors is LoadDescriptors for startup paths where a bad
// embedded config is unrecoverable.
func MustLoadDescriptors() map[string]*model.FormatDescriptor {
	descriptors, err := LoadDescriptors()
	if err != nil {
		panic(err)
	}
	return descriptors
}
