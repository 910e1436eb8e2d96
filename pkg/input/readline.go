package input

import (
	"bufio"
	"context"
	"errors"
	"io"
)

type result struct {
	line string
	err  error
}

// ReadLine reads a single line from rd, without the trailing newline. A final
// line that is not newline-terminated is returned as-is; an empty stream
// yields io.EOF. The read is abandoned when ctx is done.
func ReadLine(ctx context.Context, rd io.Reader) (string, error) {
	results := make(chan result, 1)

	go func() {
		reader := bufio.NewReader(rd)
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		results <- result{line: trimNewline(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-results:
		return res.line, res.err
	}
}

func trimNewline(line string) string {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
	}
	return line
}
