package cmd

import (
	"context"
	"fmt"
	"os"
	"partsfinder-backend/internal/components/chrono"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/scrapers/ebay"
	"partsfinder-backend/internal/store"
	"partsfinder-backend/pkg/configutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var verbose bool

var tel telemetry.API = telemetry.SlogAPI{}

var clock chrono.API = chrono.NewStandardImpl()

var rootCmd = &cobra.Command{
	Use:   "partsfinder-cli",
	Short: "partsfinder-cli runs searches and inspects stored data without the http server.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

type ebayEnv struct {
	appId   string
	certId  string
	baseUrl string
}

func readEbayEnv() ebayEnv {
	env := configutil.OSEnv()
	var out ebayEnv
	env.String(&out.appId, "EBAY_APP_ID")
	env.String(&out.certId, "EBAY_CERT_ID")
	env.String(&out.baseUrl, "EBAY_BASE_URL")
	if out.baseUrl == "" {
		out.baseUrl = ebay.BaseURLFor(out.appId)
	}
	return out
}

func (e ebayEnv) configured() bool {
	return e.appId != "" && e.certId != ""
}

func (e ebayEnv) credentials() *ebay.CredentialCache {
	return ebay.NewCredentialCache(ebay.CredentialOptions{
		BaseURL: e.baseUrl,
		AppId:   e.appId,
		CertId:  e.certId,
	}, clock, tel)
}

// openStore opens the same database the server is configured with through the
// DATABASE_* environment variables.
func openStore(ctx context.Context) (*store.Store, error) {
	env := configutil.OSEnv()
	var cfg store.Config
	var driver string
	env.String(&driver, "DATABASE_DRIVER")
	cfg.Driver = store.Driver(driver)
	env.String(&cfg.URL, "DATABASE_URL")
	env.String(&cfg.AuthToken, "DATABASE_AUTH_TOKEN")
	env.String(&cfg.File, "DATABASE_FILE")
	if cfg.File == "" {
		cfg.File = "data/partsfinder.db"
	}
	return store.Open(ctx, cfg, clock)
}
