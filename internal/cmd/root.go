package cmd

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/renato0307/forge/internal/config"
	"github.com/renato0307/forge/internal/logging"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`

	Serve      ServeCmd      `cmd:"" help:"Run the supervisor core and its command surface (default)" default:"1"`
	Route      RouteCmd      `cmd:"" help:"Route a task description to the best assistant CLI"`
	Workspaces WorkspacesCmd `cmd:"" help:"List known workspaces"`
	Memory     MemoryCmd     `cmd:"" help:"Manage workspace memories (store, search, list, del)"`
	Synthesize SynthesizeCmd `cmd:"" help:"Run a best-of-N synthesis job"`

	// Internal fields (not flags)
	settings *config.Settings `kong:"-"`
}

// AfterApply initializes logging after CLI parsing and applies settings
func (c *CLI) AfterApply() error {
	settings, err := config.LoadSettings()
	if err != nil {
		// A broken settings file shouldn't block the CLI
		settings = &config.Settings{}
	}
	c.settings = settings

	// Precedence: CLI flag > env var > settings.json > default
	if c.MaxLogFiles == 1000 {
		if _, hasEnv := os.LookupEnv("FORGE_MAX_LOG_FILES"); !hasEnv {
			if settings.MaxLogFiles != nil {
				c.MaxLogFiles = *settings.MaxLogFiles
			}
		}
	}

	if !c.Debug {
		if _, hasEnv := os.LookupEnv("FORGE_DEBUG"); !hasEnv {
			if settings.Debug != nil && *settings.Debug {
				c.Debug = true
			}
		}
	}

	return logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles)
}
