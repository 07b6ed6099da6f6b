package app

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ReadPassphrase returns $LAI_PASSPHRASE when it is set. Otherwise it prompts
// on stderr and reads from the terminal without echo.
func ReadPassphrase(prompt string) (string, error) {
	if p, ok := os.LookupEnv(EnvPassphrase); ok {
		return p, nil
	}
	return readTerminal(os.Stdin, os.Stderr, prompt)
}

// ReadNewPassphrase is ReadPassphrase for a passphrase being chosen: the
// terminal prompt asks twice and the entries must match.
func ReadNewPassphrase() (string, error) {
	if p, ok := os.LookupEnv(EnvPassphrase); ok {
		if p == "" {
			return "", fmt.Errorf("%s is set but empty", EnvPassphrase)
		}
		return p, nil
	}

	first, err := readTerminal(os.Stdin, os.Stderr, "New passphrase: ")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", fmt.Errorf("passphrase must not be empty")
	}
	second, err := readTerminal(os.Stdin, os.Stderr, "Repeat passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passphrases do not match")
	}
	return first, nil
}

func readTerminal(in *os.File, out io.Writer, prompt string) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot read passphrase: stdin is not a terminal (set %s)", EnvPassphrase)
	}

	fmt.Fprint(out, prompt)
	p, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(p), nil
}
