package telemetry

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/docker/usage-telemetry/pkg/input"
)

var bold = color.New(color.Bold).SprintFunc()

const consentQuestion = "Would you like to enable telemetry?"

func printDisclosure(w io.Writer, appName string) {
	fmt.Fprintf(w, "Help us improve %s by sending anonymous usage data.\n", bold(appName))
	fmt.Fprintln(w, bold("We collect:"))
	fmt.Fprintln(w, "  - Basic usage statistics")
	fmt.Fprintln(w, "  - Error reports")
	fmt.Fprintln(w, "  - Platform information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("We DO NOT collect:"))
	fmt.Fprintln(w, "  - Personal information")
	fmt.Fprintln(w, "  - Sensitive configuration")
	fmt.Fprintln(w, "  - Private keys or addresses")
}

// promptYesNo asks question and reads one answer line. Anything that does not
// start with "y" or "Y", including a closed or failing input, is a no.
func promptYesNo(ctx context.Context, in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/n)\n", question)

	answer, err := input.ReadLine(ctx, in)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
}
