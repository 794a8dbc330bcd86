package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/core"
	"github.com/tuan28064/Hono-demo/internal/core/memory"
	"github.com/tuan28064/Hono-demo/internal/output"
	"github.com/tuan28064/Hono-demo/internal/server"
)

var routesFormat string

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the HTTP route table",
	Long:  "Build the router from the current configuration without listening and print every registered route.",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(routesFormat)
		if err != nil {
			return err
		}

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		listing, err := routeListing(cfg)
		if err != nil {
			return err
		}

		text, err := output.Render(format, listing)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

// routeListing builds a throwaway server over the built-in seed and walks
// its router.
func routeListing(cfg *config.Config) (output.Routes, error) {
	seed, err := core.DefaultSeed()
	if err != nil {
		return nil, err
	}

	srv, err := server.New(server.Options{
		Config:   cfg,
		Users:    memory.NewUsers(seed.Users),
		Products: memory.NewProducts(seed.Products),
	})
	if err != nil {
		return nil, err
	}

	routes, err := srv.Routes()
	if err != nil {
		return nil, err
	}

	listing := make(output.Routes, 0, len(routes))
	for _, r := range routes {
		listing = append(listing, output.Route{Method: r.Method, Pattern: r.Pattern, Middlewares: r.Middlewares})
	}
	return listing, nil
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().StringVarP(&routesFormat, "output", "o", string(output.FormatTable), "output format: table, json, markdown")
}
