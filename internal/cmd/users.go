package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/output"
)

var (
	usersFormat string
	usersQuery  string
	usersLimit  int
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect stored users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users from the configured store",
	Long: `List users from the configured store. With the memory driver this shows
the seed data. Use --query to apply the same substring search as
GET /users/search.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(usersFormat)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		cfg, err := config.Load(ctx)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		repos, err := openRepositories(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = repos.close() }()

		var listing output.Users
		if usersQuery != "" {
			res, err := repos.users.Search(ctx, usersQuery, usersLimit)
			if err != nil {
				return err
			}
			listing = output.Users(res.Results)
		} else {
			users, err := repos.users.List(ctx)
			if err != nil {
				return err
			}
			listing = output.Users(users)
		}

		text, err := output.Render(format, listing)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersListCmd.Flags().StringVarP(&usersFormat, "output", "o", string(output.FormatTable), "output format: table, json, markdown")
	usersListCmd.Flags().StringVarP(&usersQuery, "query", "q", "", "filter by name or email substring")
	usersListCmd.Flags().IntVar(&usersLimit, "limit", 0, "maximum search results (default 10)")
}
