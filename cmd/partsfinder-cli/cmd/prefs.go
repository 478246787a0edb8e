package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"partsfinder-backend/internal/search"

	"github.com/spf13/cobra"
)

func init() {
	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "The 'prefs' subcommand reads and writes stored search preferences.",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get <user id>",
	Short: "Prints the stored preferences of a user.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		db, err := openStore(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()

		raw, err := db.GetPreferences(cmd.Context(), args[0])
		if err != nil {
			log.Fatal(err)
		}
		prefs, err := search.ParsePreferences(raw)
		if err != nil {
			log.Fatal(err)
		}
		formatted, err := json.MarshalIndent(prefs, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(formatted))
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <user id> <json>",
	Short: "Replaces the stored preferences of a user.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		raw := json.RawMessage(args[1])
		_, err := search.ParsePreferences(raw)
		if err != nil {
			log.Fatalf("invalid preferences: %v", err)
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()

		err = db.SetPreferences(cmd.Context(), args[0], raw)
		if err != nil {
			log.Fatal(err)
		}
	},
}
