package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhubonan/dojo-upf-trim/report"
	"github.com/zhubonan/dojo-upf-trim/upf"
)

func (a *app) newInspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Summarize pseudopotential files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			table, err := a.sectionTable(cfg)
			if err != nil {
				return err
			}

			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				parser := upf.NewParser()
				if table != nil {
					parser.WithTable(table)
				}
				doc, err := parser.Parse(data)
				if err != nil {
					return fmt.Errorf("parse %s: %w", path, err)
				}

				rep, err := report.FromDocument(doc)
				if err != nil {
					return err
				}
				rep.File = path

				if asJSON {
					out, err := rep.JSON()
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(out))
					continue
				}
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err := rep.Render(cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of text")
	return cmd
}
