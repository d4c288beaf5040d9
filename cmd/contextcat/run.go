package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/contextcat/internal/aggregate"
	"github.com/dgallion1/contextcat/internal/parser"
	"github.com/dgallion1/contextcat/internal/pipeline"
	"github.com/dgallion1/contextcat/internal/vault"
)

func runCmd(a *app) *cobra.Command {
	var active string
	var modeName string
	var dryRun bool
	var html bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Aggregate sources into the active document once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if modeName == "" {
				modeName = a.cfg.DefaultMode
			}
			mode, err := aggregate.ParseMode(modeName)
			if err != nil {
				return err
			}

			src, store, err := a.open()
			if err != nil {
				return err
			}
			defer src.Close()

			if active == "" {
				loc, ok := src.Vault.(vault.ActiveLocator)
				if !ok {
					return fmt.Errorf("%w: pass --active", aggregate.ErrNoActiveDocument)
				}
				if active, err = loc.Active(cmd.Context()); err != nil {
					return fmt.Errorf("%w: %v", aggregate.ErrNoActiveDocument, err)
				}
			}

			st, err := store.Get()
			if err != nil {
				return err
			}
			req := aggregate.Request{ActivePath: active, Filter: st.Filter(), Mode: mode}

			res, err := aggregate.New(src.Vault, a.log, a.cfg.MaxConcurrentReads).Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if html {
				rendered, err := parser.RenderHTML(res.Content)
				if err != nil {
					return err
				}
				fmt.Fprint(out, rendered)
				return nil
			}
			if dryRun {
				fmt.Fprint(out, res.Content)
				return nil
			}

			if pipeline.ContentHashHex([]byte(res.Content)) == pipeline.ContentHashHex([]byte(res.Original)) {
				fmt.Fprintf(out, "%s is up to date\n", req.ActivePath)
				return nil
			}
			if err := src.Writer.Write(cmd.Context(), req.ActivePath, res.Content); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d targets, %d sections from %d sources\n",
				req.ActivePath, len(res.Targets), res.Matched, res.Sources)
			return nil
		},
	}
	cmd.Flags().StringVar(&active, "active", "", "path of the document to compose, relative to the vault")
	cmd.Flags().StringVar(&modeName, "mode", "", "replace|splice (default from DEFAULT_MODE)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the result instead of writing it")
	cmd.Flags().BoolVar(&html, "html", false, "print the result as HTML (implies --dry-run)")
	return cmd
}
