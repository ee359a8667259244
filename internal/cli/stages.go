package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reviewapps-dev/san/internal/stage"
)

// selectStages returns the stages picked with --stage or --all, in name
// order.
func (a *app) selectStages(cmd *cobra.Command) ([]*stage.Stage, error) {
	stages, err := a.configuration(cmd).Stages()
	if err != nil {
		return nil, err
	}
	available := make([]string, 0, len(stages))
	for name := range stages {
		available = append(available, name)
	}
	sort.Strings(available)

	if a.all {
		if len(a.stageNames) > 0 {
			return nil, errors.New("--all and --stage are mutually exclusive")
		}
		out := make([]*stage.Stage, 0, len(available))
		for _, name := range available {
			out = append(out, stages[name])
		}
		return out, nil
	}

	if len(a.stageNames) == 0 {
		return nil, fmt.Errorf("no stage selected: pass --stage <name> or --all (available: %s)", strings.Join(available, ", "))
	}
	names := append([]string(nil), a.stageNames...)
	sort.Strings(names)
	out := make([]*stage.Stage, 0, len(names))
	for i, name := range names {
		if i > 0 && names[i-1] == name {
			continue
		}
		s, ok := stages[name]
		if !ok {
			return nil, fmt.Errorf("unknown stage %q (available: %s)", name, strings.Join(available, ", "))
		}
		out = append(out, s)
	}
	return out, nil
}

// eachStage runs fn on every selected stage in turn, stopping at the first
// failure.
func (a *app) eachStage(cmd *cobra.Command, fn func(*stage.Stage) error) error {
	stages, err := a.selectStages(cmd)
	if err != nil {
		return err
	}
	for _, s := range stages {
		a.header(cmd.OutOrStdout(), s)
		err := fn(s)
		if werr := a.writeTranscript(s); werr != nil && err == nil {
			err = werr
		}
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return nil
}

// writeTranscript appends the stage's recorded lines to the --transcript
// file, whether or not the operation succeeded.
func (a *app) writeTranscript(s *stage.Stage) error {
	if a.transcript == "" {
		return nil
	}
	f, err := os.OpenFile(a.transcript, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", s.Name())
	for _, line := range s.Logger().Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
