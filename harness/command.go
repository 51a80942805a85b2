package harness

import (
	"path/filepath"
	"strings"
)

// CommandConfig holds the resolved command, extra arguments, and
// environment variables needed to run a benchmark binary.
type CommandConfig struct {
	Binary    string
	ExtraArgs []string
	Env       []string
}

// WrapCommand returns the exec configuration needed to run a benchmark.
// Most benchmarks are executables and run directly, but JARs need
// java -jar and scripts are handed to their interpreter.
func WrapCommand(binPath string, env []string) CommandConfig {
	switch strings.ToLower(filepath.Ext(binPath)) {
	case ".jar":
		return CommandConfig{
			Binary:    "java",
			ExtraArgs: []string{"-jar", binPath},
			Env:       env,
		}
	case ".py":
		return CommandConfig{
			Binary:    "python3",
			ExtraArgs: []string{binPath},
			Env:       env,
		}
	case ".sh":
		return CommandConfig{
			Binary:    "sh",
			ExtraArgs: []string{binPath},
			Env:       env,
		}
	default:
		return CommandConfig{Binary: binPath, Env: env}
	}
}
