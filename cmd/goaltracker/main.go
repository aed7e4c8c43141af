// Command goaltracker is the terminal client for the goal tracker API.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/saulo-duarte/goal-tracker/internal/client"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Settings file (default $XDG_CONFIG_HOME/goaltracker/goaltracker.yaml)")
	server := flag.String("server", "", "Override the API base URL")
	ephemeral := flag.Bool("ephemeral", false, "Keep the credential in memory only")
	flag.Parse()

	settings, err := config.LoadSettings(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		settings.BaseURL = *server
	}
	if *ephemeral {
		settings.CredentialsPath = ""
	}

	// The screen belongs to the TUI, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if settings.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(settings.LogFile), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating log directory: %v\n", err)
			os.Exit(1)
		}
		logFile, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
		logOut = logFile
	}
	config.InitLogger(logOut, settings.LogLevel)

	c, err := client.NewContainer(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting client: %v\n", err)
		os.Exit(1)
	}
	config.Logger.WithField("base_url", settings.BaseURL).Info("Client started")

	app := tui.NewApp(c.Controller, tui.WithVerify(settings.VerifyOnBoot))
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
