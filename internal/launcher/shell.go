package launcher

import (
	"fmt"
	"os"
)

// DetectShell finds the first available shell in order of preference:
// $SHELL, then /bin/bash, /bin/zsh, /bin/sh. Returns an error if none are
// executable.
func DetectShell() (string, error) {
	candidates := []string{"/bin/bash", "/bin/zsh", "/bin/sh"}
	if shell := os.Getenv("SHELL"); shell != "" {
		candidates = append([]string{shell}, candidates...)
	}

	for _, candidate := range candidates {
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no shell found: checked $SHELL, /bin/bash, /bin/zsh, /bin/sh")
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}
