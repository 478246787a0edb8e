package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Exchanges the ebay application credentials for a token and prints it.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readEbayEnv()
		if !cfg.configured() {
			log.Fatal("EBAY_APP_ID and EBAY_CERT_ID must be set")
		}
		token, err := cfg.credentials().Token(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(token)
	},
}
