// File: internal/prompt/prompt.go
// Description: Interactive credential input. The password never echoes and
// never travels through the logger.
package prompt

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Credentials fills whichever of login and password is missing by asking on
// the terminal. Values already present pass through untouched.
func Credentials(login, password string) (string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	if login == "" {
		fmt.Fprint(os.Stderr, "Login (e-mail): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read login: %w", err)
		}
		login = strings.TrimSpace(line)
	}

	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		if term.IsTerminal(int(os.Stdin.Fd())) {
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return "", "", fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimSpace(string(raw))
		} else {
			// Piped stdin; echo suppression is impossible and unneeded.
			line, err := reader.ReadString('\n')
			if err != nil {
				return "", "", fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimSpace(line)
		}
	}

	if login == "" || password == "" {
		return "", "", fmt.Errorf("login and password must not be empty")
	}
	return login, password, nil
}
