package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tuan28064/Hono-demo/internal/output"
	"github.com/tuan28064/Hono-demo/internal/server/handlers"
)

var (
	extended    bool
	versionJSON bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := handlers.CurrentVersion()

		if versionJSON {
			text, err := output.FormatJSONValue(info, true)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", info.App.Name, info.App.Version)
		if !extended {
			return nil
		}

		fmt.Fprintf(out, "Commit: %s\n", info.App.Commit)
		fmt.Fprintf(out, "Built: %s\n", info.App.BuildDate)
		fmt.Fprintf(out, "Go: %s\n", info.App.GoVersion)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Gofulmen: %s\n", info.Dependencies.Gofulmen)
		fmt.Fprintf(out, "Crucible: %s\n", info.Dependencies.Crucible)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print the /version payload as JSON")
}
