package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-explorer/pkg/config"
	"github.com/dd0wney/cluso-explorer/pkg/persistence"
	"github.com/dd0wney/cluso-explorer/pkg/snapshot"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

func checkCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a snapshot and report what loading it would repair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := persistence.NewFileStore(args[0], nil, nil).Load(cmd.Context())
			if err != nil {
				return err
			}

			state, report := snapshot.Ingest(doc, snapshot.Options{})
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d nodes, %d links, view layers %d\n",
				args[0], state.NodeCount(), state.LinkCount(), state.ViewLayers())

			if report.Clean() {
				fmt.Fprintln(out, successStyle.Render("✓ snapshot is clean"))
				return nil
			}
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("! %d repairs on load", len(report.Warnings))))
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "  - %s\n", w)
			}
			if strict {
				return errors.New("snapshot needs repair")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any repair is needed")
	return cmd
}

func initCmd() *cobra.Command {
	var (
		rootLabel string
		force     bool
	)
	cmd := &cobra.Command{
		Use:   "init <file>",
		Short: "Write a new snapshot holding only a root node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			state := storage.NewRootState(rootLabel)
			if err := state.SetPresets(snapshot.DefaultPresets()); err != nil {
				return err
			}
			if err := persistence.NewFileStore(path, nil, nil).Save(cmd.Context(), snapshot.Export(state)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ wrote "+path))
			return nil
		},
	}
	cmd.Flags().StringVar(&rootLabel, "root-label", snapshot.DefaultRootLabel, "label of the root node")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
