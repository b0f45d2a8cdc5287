package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/OpenGG/claude-switch/internal/ccs"
	"github.com/OpenGG/claude-switch/internal/ccs/paths"
	"github.com/OpenGG/claude-switch/internal/cli"
	"github.com/OpenGG/claude-switch/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := execute(args, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func execute(args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := new(slog.LevelVar)
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	level.Set(lvl)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	home, err := paths.ResolveHome(cfg.Home)
	if err != nil {
		return err
	}

	mgr := ccs.NewManager(afero.NewOsFs(), home, logger)
	prompter := cli.NewPromptUI().WithValidation(mgr.ValidateAccountName)

	root := cli.NewRootCommand(mgr, prompter, stdout, stderr, cli.Options{
		Version:     version,
		LogLevel:    level,
		NoColor:     cfg.ColorDisabled(),
		Interactive: cli.IsInteractive,
	})
	root.SetArgs(args)
	return root.Execute()
}
