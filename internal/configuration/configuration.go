// Package configuration loads the stage file and builds one Stage per entry,
// each with the deploy strategy its settings (or the global default) name.
package configuration

import (
	"errors"
	"fmt"
	"io/fs"

	log "github.com/sirupsen/logrus"

	"github.com/reviewapps-dev/san/internal/deploy"
	"github.com/reviewapps-dev/san/internal/stage"
	"github.com/reviewapps-dev/san/internal/stagesyml"
)

// DeployOption is the option key naming the default deploy strategy.
const DeployOption = "deploy"

type Configuration struct {
	file      string
	options   map[string]string
	stageOpts []stage.Option

	// nil until parsed
	stages map[string]stagesyml.Settings
}

// New prepares a loader for file. options are merged over the defaults, and
// stageOpts are applied to every Stage built.
func New(file string, options map[string]string, stageOpts ...stage.Option) *Configuration {
	merged := map[string]string{DeployOption: deploy.DefaultStrategy}
	for k, v := range options {
		merged[k] = v
	}
	return &Configuration{
		file:      file,
		options:   merged,
		stageOpts: stageOpts,
	}
}

func (c *Configuration) File() string { return c.file }

func (c *Configuration) Options() map[string]string {
	out := make(map[string]string, len(c.options))
	for k, v := range c.options {
		out[k] = v
	}
	return out
}

// Configured reports whether the stage file has been parsed.
func (c *Configuration) Configured() bool {
	return c.stages != nil
}

// Parse reads the stage file. A missing file parses as no stages.
func (c *Configuration) Parse() error {
	parsed, err := stagesyml.Parse(c.file)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warnf("%s does not exist, no stages configured", c.file)
		parsed, err = map[string]stagesyml.Settings{}, nil
	}
	if err != nil {
		return err
	}
	c.stages = parsed
	return nil
}

// Stages builds the stages, parsing the file first if that has not happened
// yet. Every call builds new Stage values.
func (c *Configuration) Stages() (map[string]*stage.Stage, error) {
	if !c.Configured() {
		if err := c.Parse(); err != nil {
			return nil, err
		}
	}

	out := make(map[string]*stage.Stage, len(c.stages))
	for name, settings := range c.stages {
		ref := settings.Deploy
		if ref == "" {
			ref = c.options[DeployOption]
		}
		strategy, err := deploy.Lookup(ref)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		settings.Deploy = strategy.Name()

		opts := append([]stage.Option{stage.WithStrategy(strategy)}, c.stageOpts...)
		out[name] = stage.New(name, settings, opts...)
	}
	return out, nil
}

// Generate writes the example stage file unless the file already exists,
// reporting whether it did.
func (c *Configuration) Generate() (bool, error) {
	return stagesyml.Generate(c.file)
}
