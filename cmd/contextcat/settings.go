package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/contextcat/internal/settings"
	"github.com/dgallion1/contextcat/internal/vault"
)

func foldersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List vault folders usable as a folder-tree source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _, err := a.open()
			if err != nil {
				return err
			}
			defer src.Close()

			folders, err := vault.Folders(cmd.Context(), src.Vault)
			if err != nil {
				return err
			}
			for _, f := range folders {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}

func settingsCmd(a *app) *cobra.Command {
	var folder string
	var pattern string
	var filterType string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the source selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := settings.NewStore(a.cfg.SettingsFile)
			flags := cmd.Flags()

			var st settings.Settings
			var err error
			var useGlob bool
			if flags.Changed("filter-type") {
				switch filterType {
				case string(vault.ModeGlob):
					useGlob = true
				case string(vault.ModeFolderTree):
				default:
					return fmt.Errorf("--filter-type must be glob or folder, got %q", filterType)
				}
			}

			if flags.Changed("folder") || flags.Changed("glob") || flags.Changed("filter-type") {
				st, err = store.Update(func(s *settings.Settings) {
					if flags.Changed("folder") {
						s.SelectedFolder = vault.Clean(folder)
					}
					if flags.Changed("glob") {
						s.InputtedFolder = pattern
					}
					if flags.Changed("filter-type") {
						s.FilterType = useGlob
					}
				})
			} else {
				st, err = store.Get()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			f := st.Filter()
			fmt.Fprintf(out, "settings file:   %s\n", store.Path())
			fmt.Fprintf(out, "filter type:     %s\n", f.Mode)
			fmt.Fprintf(out, "selected folder: %s\n", st.SelectedFolder)
			fmt.Fprintf(out, "glob pattern:    %s\n", st.InputtedFolder)
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "folder-tree root")
	cmd.Flags().StringVar(&pattern, "glob", "", "folder name matched at any depth in glob mode")
	cmd.Flags().StringVar(&filterType, "filter-type", "", "glob|folder")
	return cmd
}
