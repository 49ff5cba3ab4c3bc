// File: cmd/token.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artgru/eduvulcan-for-ha/internal/authflow"
	"github.com/artgru/eduvulcan-for-ha/internal/browser"
	"github.com/artgru/eduvulcan-for-ha/internal/fetcher"
	"github.com/artgru/eduvulcan-for-ha/internal/observability"
	"github.com/artgru/eduvulcan-for-ha/internal/prompt"
	"github.com/artgru/eduvulcan-for-ha/internal/tokencache"
)

var (
	loginFlag    string
	passwordFlag string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Acquire a VULCAN API token, from cache or via portal login.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		cfg := appConfig

		login, password, err := prompt.Credentials(loginFlag, passwordFlag)
		if err != nil {
			return err
		}

		manager := browser.NewManager(cfg.Browser, logger)
		defer manager.Shutdown()

		flow := authflow.New(cfg.Portal.LoginURL, cfg.Flow, logger)
		cache := tokencache.New(cfg.Cache.Path, logger)
		runner := fetcher.NewBrowserRunner(manager, flow, logger)
		f := fetcher.New(cache, runner, logger)

		rec, err := f.GetToken(cmd.Context(), authflow.Credential{Login: login, Password: password})
		if err != nil {
			return err
		}

		fmt.Printf("Token acquired (tenant: %s)\n", rec.Tenant)
		fmt.Printf("Saved to: %s\n", cache.Path())
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&loginFlag, "login", "l", "", "portal login (e-mail); prompted when omitted")
	tokenCmd.Flags().StringVarP(&passwordFlag, "password", "p", "", "portal password; prompted when omitted")
	rootCmd.AddCommand(tokenCmd)
}
