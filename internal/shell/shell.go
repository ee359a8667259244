package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

// Runner executes a command line through a local shell.
type Runner interface {
	Run(ctx context.Context, command string) error
}

// Exec runs commands with `sh -c`, streaming their output.
type Exec struct {
	Shell  string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func New() *Exec {
	return &Exec{
		Shell:  "sh",
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (e *Exec) Run(ctx context.Context, command string) error {
	sh := e.Shell
	if sh == "" {
		sh = "sh"
	}
	log.Debugf("shell: %s", command)

	cmd := exec.CommandContext(ctx, sh, "-c", command)
	cmd.Dir = e.Dir
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	return nil
}
