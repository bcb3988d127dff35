package course

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DecodeYAML reads one course document.
func DecodeYAML(r io.Reader) (Course, error) {
	var c Course
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Course{}, errors.Wrap(err, "decoding course yaml")
	}
	return c, nil
}

// ReadYAMLFile reads the course document at path.
func ReadYAMLFile(path string) (Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return Course{}, errors.Wrap(err, "opening course file")
	}
	defer func() { _ = f.Close() }()
	return DecodeYAML(f)
}
