package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhubonan/dojo-upf-trim/config"
	"github.com/zhubonan/dojo-upf-trim/report"
)

func (a *app) newSchemaCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for config files or inspect reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				out []byte
				err error
			)
			switch target {
			case "config":
				out, err = config.Schema()
			case "report":
				out, err = report.Schema()
			default:
				return fmt.Errorf("unknown schema target %q (want config or report)", target)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "report", "schema to print: config or report")
	return cmd
}
