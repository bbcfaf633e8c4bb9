package wallet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptFunc asks the user for a secret.
type PromptFunc func(prompt string) (string, error)

// TerminalPrompt reads a passphrase from stdin without echo.
func TerminalPrompt(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReaderPrompt asks through r, the reader the caller already uses for its
// own input. Input already buffered in r, or a stdin that is not a terminal,
// is read as a line from r; otherwise fd is read without echo.
func ReaderPrompt(r *bufio.Reader, out io.Writer, fd int) PromptFunc {
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if r.Buffered() == 0 && term.IsTerminal(fd) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
		line, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

func readPasswordFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
