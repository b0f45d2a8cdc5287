package cli

// Prompter asks the user for input on an interactive terminal.
type Prompter interface {
	Select(label string, items []string, defaultValue string) (int, string, error)
	Prompt(label string) (string, error)
}
