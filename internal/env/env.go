// Package env reads and writes config vars as dotenv files.
package env

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Format renders vars as sorted KEY="value" lines, one per var.
func Format(vars map[string]string) (string, error) {
	if len(vars) == 0 {
		return "", nil
	}
	plain := make(map[string]string, len(vars))
	var verbatim []string
	for k, v := range vars {
		// godotenv writes anything Atoi accepts as a bare integer, which
		// would turn "007" into 7.
		if n, err := strconv.Atoi(v); err == nil && strconv.Itoa(n) != v {
			verbatim = append(verbatim, fmt.Sprintf("%s=%q", k, v))
			continue
		}
		plain[k] = v
	}
	out, err := godotenv.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("env: %w", err)
	}
	lines := verbatim
	if out != "" {
		lines = append(lines, strings.Split(out, "\n")...)
	}
	sort.Slice(lines, func(i, j int) bool {
		return lineKey(lines[i]) < lineKey(lines[j])
	})
	return strings.Join(lines, "\n") + "\n", nil
}

func lineKey(line string) string {
	k, _, _ := strings.Cut(line, "=")
	return k
}

// WriteFile writes vars to path readable only by the owner.
func WriteFile(path string, vars map[string]string) error {
	out, err := Format(vars)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0600); err != nil {
		return fmt.Errorf("env: %w", err)
	}
	return nil
}

// Parse reads dotenv content. Comments, "export " prefixes and single or
// double quoted values are understood.
func Parse(data []byte) (map[string]string, error) {
	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("env: %w", err)
	}
	return vars, nil
}

func ReadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("env: %w", err)
	}
	return Parse(data)
}
