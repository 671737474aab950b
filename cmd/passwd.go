package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"goftpd/internal/command"
)

// runPasswd reads a password and prints a users-table entry for it.
// On a terminal the password is read without echo and asked twice.
func runPasswd(args []string, stdin io.Reader, stdout io.Writer) error {
	user := "user"
	switch len(args) {
	case 0:
	case 1:
		user = strings.ToLower(args[0])
	default:
		return fmt.Errorf("usage: goftpd passwd [user]")
	}

	pass, err := readPassword(stdin, "Password: ")
	if err != nil {
		return err
	}
	if isTerminal(stdin) {
		again, err := readPassword(stdin, "Again: ")
		if err != nil {
			return err
		}
		if again != pass {
			return errors.New("passwords do not match")
		}
	}
	if pass == "" {
		return errors.New("empty password")
	}

	hash, err := command.HashPassword(pass)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	fmt.Fprintf(stdout, "users:\n  %s: %q\n", user, hash)
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func readPassword(r io.Reader, prompt string) (string, error) {
	if isTerminal(r) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(int(r.(*os.File).Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
