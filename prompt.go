package pgsh

import (
	"os"
	"strings"
	"time"
)

var defaultPrompt = "\033[1;36m%u@%h\033[0m:\033[1;34m%w\033[0m$ "

// GetPrompt renders the interactive prompt.
func GetPrompt() string {
	customPrompt := os.Getenv("PGSH_PROMPT")
	if customPrompt == "" {
		customPrompt = defaultPrompt
	}
	return expandPromptVariables(customPrompt)
}

func expandPromptVariables(prompt string) string {
	username := os.Getenv("USER")
	hostname, _ := os.Hostname()
	cwd, _ := os.Getwd()

	replacements := map[string]string{
		"%u": username,
		"%h": hostname,
		"%w": cwd,
		"%W": shortenPath(cwd),
		"%d": time.Now().Format("2006-01-02"),
		"%t": time.Now().Format("15:04:05"),
		"%$": "$",
	}

	for key, value := range replacements {
		prompt = strings.ReplaceAll(prompt, key, value)
	}

	return prompt
}

func shortenPath(path string) string {
	home := os.Getenv("HOME")
	if home != "" && strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}

// SetPrompt overrides the prompt for the remainder of the process.
func SetPrompt(newPrompt string) error {
	return os.Setenv("PGSH_PROMPT", newPrompt)
}
