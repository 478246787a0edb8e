package cmd

import (
	"fmt"
	"log"
	"partsfinder-backend/internal/agent"
	"partsfinder-backend/pkg/configutil"

	"github.com/spf13/cobra"
)

var agentDryRun bool

func init() {
	agentTriggerCmd.Flags().BoolVar(&agentDryRun, "dry-run", false, "Grade without writing results.")
	agentCmd.AddCommand(agentHealthCmd)
	agentCmd.AddCommand(agentTriggerCmd)
	rootCmd.AddCommand(agentCmd)
}

func agentClient() agent.Client {
	env := configutil.OSEnv()
	var cfg agent.Config
	env.String(&cfg.BaseURL, "AGENT_BASE_URL")
	env.String(&cfg.Token, "AGENT_TOKEN")
	return agent.NewClient(cfg, tel)
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "The 'agent' subcommand talks to the grading agent.",
}

var agentHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Prints the health of the grading agent.",
	Run: func(cmd *cobra.Command, args []string) {
		health, err := agentClient().Health(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("status: %s\nrunning: %v\n", health.Status, health.IsRunning)
	},
}

var agentTriggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Starts a grading run.",
	Run: func(cmd *cobra.Command, args []string) {
		res, err := agentClient().Trigger(cmd.Context(), agentDryRun)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%d %s\n", res.StatusCode, string(res.Body))
	},
}
