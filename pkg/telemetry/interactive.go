package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/docker/usage-telemetry/pkg/environment"
)

// ciEnvVars are variables set by common CI systems. The presence of any of
// them, even empty, marks the run as non-interactive.
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"BUILD_NUMBER",
	"GITHUB_ACTIONS",
	"TEAMCITY_VERSION",
	"TRAVIS",
}

// TerminalCheck reports whether both standard input and standard output are
// attached to a terminal.
type TerminalCheck func() bool

// StreamsAreTerminal returns a TerminalCheck for the given prompt streams.
// Streams that are not files, such as buffers and pipes, never count.
func StreamsAreTerminal(in io.Reader, out io.Writer) TerminalCheck {
	return func() bool {
		inFile, ok := in.(*os.File)
		if !ok {
			return false
		}
		outFile, ok := out.(*os.File)
		if !ok {
			return false
		}
		return isTerminal(inFile) && isTerminal(outFile)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func isCIEnvironment(ctx context.Context, env environment.Provider) bool {
	return environment.Has(ctx, env, ciEnvVars...)
}

func (s *Store) isInteractive(ctx context.Context) bool {
	return s.isTerminal() && !isCIEnvironment(ctx, s.env)
}
