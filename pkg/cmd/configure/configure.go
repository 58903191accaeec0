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
package configure

import (
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/vfeed/internal/config"
	"github.com/Paintersrp/vfeed/internal/state"
)

func NewCmdConfig(load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Inspect or create the configuration file",
	}

	cmd.AddCommand(
		newCmdInit(),
		newCmdShow(load),
	)

	return cmd
}

func newCmdInit() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Long: heredoc.Doc(`
			Writes every setting with its default value. Without a path the
			file goes to $HOME/.vfeed/config.yaml. An existing file is kept
			unless --force is given.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				home, err := state.GetHomeDir()
				if err != nil {
					return err
				}
				path = config.GetConfigPath(home)
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if err := config.WriteDefaults(abs, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", abs)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func newCmdShow(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: heredoc.Doc(`
			Prints the configuration after defaults, the config file,
			VFEED_* environment variables and flags are applied.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", cfg.Path(), out)
			return nil
		},
	}
}
