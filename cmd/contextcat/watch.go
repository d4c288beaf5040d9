package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/contextcat/internal/aggregate"
	"github.com/dgallion1/contextcat/internal/pipeline"
	"github.com/dgallion1/contextcat/internal/vault"
	"github.com/dgallion1/contextcat/internal/watch"
)

func watchCmd(a *app) *cobra.Command {
	var active string
	var modeName string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-aggregate whenever a source document changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if modeName == "" {
				modeName = a.cfg.DefaultMode
			}
			mode, err := aggregate.ParseMode(modeName)
			if err != nil {
				return err
			}
			active = vault.Clean(active)
			if active == "" {
				return aggregate.ErrNoActiveDocument
			}

			src, store, err := a.open()
			if err != nil {
				return err
			}
			defer src.Close()
			if src.Dir == "" {
				return errors.New("watch needs a local vault (--vault or VAULT_DIR)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			agg := aggregate.New(src.Vault, a.log, a.cfg.MaxConcurrentReads)
			orch := pipeline.NewOrchestrator(a.cfg, agg, src.Writer, a.log)
			orch.Start(ctx)
			defer orch.Stop()

			submit := func() error {
				st, err := store.Get()
				if err != nil {
					return err
				}
				job, err := orch.Submit(pipeline.NewJob(aggregate.Request{
					ActivePath: active,
					Filter:     st.Filter(),
					Mode:       mode,
				}))
				if err != nil {
					return err
				}
				a.log.Debug("run queued", "job_id", job.ID)
				return nil
			}

			w, err := watch.New(watch.Config{
				BaseDir:  src.Dir,
				Ignore:   []string{active},
				Debounce: a.cfg.WatchDebounce,
				Log:      a.log,
				OnChange: func(_ context.Context, changed []string) error {
					a.log.Info("sources changed", "count", len(changed), "first", changed[0])
					return submit()
				},
			})
			if err != nil {
				return err
			}

			if err := submit(); err != nil {
				return err
			}
			a.log.Info("watching", "dir", src.Dir, "active", active)
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&active, "active", "", "path of the document to keep composed")
	cmd.Flags().StringVar(&modeName, "mode", "", "replace|splice (default from DEFAULT_MODE)")
	return cmd
}
