/*
Copyright © 2024 Ryan Painter paintersrp@gmail.com

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/vfeed/internal/config"
	"github.com/Paintersrp/vfeed/internal/constants"
	"github.com/Paintersrp/vfeed/internal/state"
	"github.com/Paintersrp/vfeed/pkg/cmd/browse"
	"github.com/Paintersrp/vfeed/pkg/cmd/configure"
	"github.com/Paintersrp/vfeed/pkg/cmd/version"
)

// Loader resolves configuration once flags are parsed.
type Loader struct {
	file string
	cmd  *cobra.Command
}

func (l *Loader) options() []config.LoadOption {
	flags := l.cmd.PersistentFlags()
	return []config.LoadOption{
		config.WithFlag("source.kind", flags.Lookup("source")),
		config.WithFlag("source.vault_dir", flags.Lookup("vault")),
		config.WithFlag("log_file", flags.Lookup("log-file")),
		config.WithFlag("metrics_addr", flags.Lookup("metrics-addr")),
	}
}

// Config loads the configuration without building a source.
func (l *Loader) Config() (*config.Config, error) {
	home, err := state.GetHomeDir()
	if err != nil {
		return nil, err
	}
	return config.Load(home, l.file, l.options()...)
}

// State loads the configuration and builds the selected source.
func (l *Loader) State() (*state.State, error) {
	return state.NewState(l.file, l.options()...)
}

func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "Browse a long feed of notes or cards in the terminal.",
		Long: heredoc.Doc(`
			vfeed renders a paged feed of variable-height items. Only the rows
			near the viewport are rendered, items load a page at a time as you
			approach the end, and expanded items load their body on demand.

			Items come from a directory of markdown notes or from a synthetic
			generator for trying the list out.
		`),
		Example: heredoc.Doc(`
			vfeed
			vfeed browse --source vault --vault ~/notes
			vfeed browse --anchor c480
			vfeed config init
		`),
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(constants.Help)

	loader := &Loader{cmd: cmd}
	flags := cmd.PersistentFlags()
	flags.StringVar(&loader.file, "config", "", "config file (default is $HOME/.vfeed/config.yaml)")
	flags.String("source", "", "item source: vault or synthetic")
	flags.String("vault", "", "vault directory for the vault source")
	flags.String("log-file", "", "write logs to this file")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")

	browseCmd := browse.NewCmdBrowse(loader.State)
	cmd.RunE = browseCmd.RunE
	cmd.Flags().AddFlagSet(browseCmd.Flags())

	cmd.AddCommand(
		browseCmd,
		configure.NewCmdConfig(loader.Config),
		version.NewCmdVersion(),
	)

	return cmd
}
