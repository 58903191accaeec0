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
package browse

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/vfeed/internal/state"
	"github.com/Paintersrp/vfeed/internal/tui/feed"
)

func NewCmdBrowse(load func() (*state.State, error)) *cobra.Command {
	var anchor string

	cmd := &cobra.Command{
		Use:     "browse",
		Aliases: []string{"b", "open"},
		Short:   "Open the feed browser",
		Long: heredoc.Doc(`
			Opens the feed in a full screen terminal view. With --anchor the
			view opens on that item, loading pages until it appears.
		`),
		Example: heredoc.Doc(`
			vfeed browse
			vfeed browse --anchor projects/roadmap.md
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := load()
			if err != nil {
				return err
			}
			defer st.Close()

			return feed.Run(st, anchor)
		},
	}

	cmd.Flags().StringVarP(&anchor, "anchor", "a", "", "identity of the item to open on")

	return cmd
}
