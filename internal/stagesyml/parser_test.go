package stagesyml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBytes(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		assertions func(map[string]Settings, error)
	}{
		{
			name: "all recognized keys",
			input: `
production:
  app: awesomeapp-demo
  stack: cedar
  tag: demo/*
  repo: git@example.com:demo.git
  deploy: sinatra
  config:
    BUNDLE_WITHOUT: development:test
    PORT: 3000
  addons:
    - one:addon
    - two:addons
`,
			assertions: func(stages map[string]Settings, err error) {
				require.NoError(t, err)
				require.Equal(t, Settings{
					App:    "awesomeapp-demo",
					Stack:  "cedar",
					Tag:    "demo/*",
					Repo:   "git@example.com:demo.git",
					Deploy: "sinatra",
					Config: map[string]string{
						"BUNDLE_WITHOUT": "development:test",
						"PORT":           "3000",
					},
					Addons: AddonList{"one:addon", "two:addons"},
				}, stages["production"])
			},
		},
		{
			name: "nested addons from an alias are flattened",
			input: `
default_addons: &default_addons
  - a
  - b
env:
  app: awesomeapp
  addons:
    - *default_addons
    - other
`,
			assertions: func(stages map[string]Settings, err error) {
				require.NoError(t, err)
				require.Len(t, stages, 1)
				require.Equal(t, AddonList{"a", "b", "other"}, stages["env"].Addons)
			},
		},
		{
			name: "inline nested addons are flattened",
			input: `
env:
  addons: [[a, b], other]
`,
			assertions: func(stages map[string]Settings, err error) {
				require.NoError(t, err)
				require.Equal(t, AddonList{"a", "b", "other"}, stages["env"].Addons)
			},
		},
		{
			name: "missing addons stay nil",
			input: `
env:
  app: awesomeapp
  addons:
`,
			assertions: func(stages map[string]Settings, err error) {
				require.NoError(t, err)
				require.Nil(t, stages["env"].Addons)
			},
		},
		{
			name: "mapping addons are rejected",
			input: `
env:
  addons:
    - {name: one}
`,
			assertions: func(_ map[string]Settings, err error) {
				require.Error(t, err)
				require.Contains(t, err.Error(), "env")
			},
		},
		{
			name:  "empty document",
			input: "",
			assertions: func(stages map[string]Settings, err error) {
				require.NoError(t, err)
				require.Empty(t, stages)
			},
		},
		{
			name:  "invalid yaml",
			input: "production: [",
			assertions: func(_ map[string]Settings, err error) {
				require.Error(t, err)
				require.Contains(t, err.Error(), "stages parse")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testCase.assertions(ParseBytes([]byte(testCase.input)))
		})
	}
}

func TestTemplateParses(t *testing.T) {
	stages, err := ParseBytes(Template)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	require.Equal(t,
		AddonList{"heroku-postgresql:essential-0", "papertrail:choklad", "scheduler:standard"},
		stages["production"].Addons,
	)
	require.Equal(t, "sinatra", stages["demo"].Deploy)
	require.Equal(t, stages["staging"].Config, stages["demo"].Config)
}

func TestGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heroku.yml")

	written, err := Generate(path)
	require.NoError(t, err)
	require.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, Template, data)

	require.NoError(t, os.WriteFile(path, []byte("mine"), 0o644))
	written, err = Generate(path)
	require.NoError(t, err)
	require.False(t, written)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "mine", string(data))
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
