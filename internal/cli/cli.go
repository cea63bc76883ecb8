// Package cli implements the panelconfig command-line interface: the HTTP
// server plus small tools for inspecting layouts and placement rules.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/panel-configurator/backend/internal/catalog"
	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/logging"
	"github.com/spf13/cobra"
)

const appName = "panelconfig"

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// SetVersion sets the build information shown by --version and the server
// banner. Values are injected via ldflags by the main package.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	buildTime = d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger  *log.Logger
	out     io.Writer
	verbose bool
}

// New creates a CLI writing command output to out and logs to logOut.
func New(out, logOut io.Writer) *CLI {
	return &CLI{
		Logger: logging.New(logOut, log.InfoLevel),
		out:    out,
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Panel configurator server and tools",
		Long:         `panelconfig serves the control-panel customizer API and provides tools to inspect panel layouts and placement rules.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.Logger.SetLevel(log.DebugLevel)
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetOut(c.out)
	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, buildTime))
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.layoutsCommand())
	root.AddCommand(c.checkCommand())

	return root
}

// loadTables returns the layout and icon tables. Empty paths select the
// built-in tables.
func loadTables(layoutsFile, iconsFile string) (*layout.Provider, *catalog.Catalog, error) {
	layouts, err := layout.Load(layoutsFile)
	if err != nil {
		return nil, nil, err
	}
	icons, err := catalog.Load(iconsFile, layouts)
	if err != nil {
		return nil, nil, err
	}
	return layouts, icons, nil
}
