package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "planexec",
	Short: "planexec is a plan-and-execute agent",
	Long: `planexec answers questions by planning a sequence of steps, executing
each step with tools, and replanning until the answer passes its own
quality check.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("model", "", "Model name (default $PLANEXEC_MODEL or gpt-4o-mini)")
	rootCmd.PersistentFlags().String("base-url", "", "OpenAI-compatible endpoint root (default $OPENAI_BASE_URL)")
	rootCmd.PersistentFlags().String("registry", "", "Thread registry backend: memory or redis")
	rootCmd.PersistentFlags().String("checkpoints", "", "Checkpoint backend: none, memory, redis, postgres, or sqlite")
	rootCmd.PersistentFlags().Bool("forced-schema", false, "Force structured outputs via tool_choice")
	rootCmd.PersistentFlags().Int("max-attempts", 0, "Retry cap for structured outputs (0 means unbounded)")
}

// flagLookup adapts a cobra command into the config loader's accessor.
func flagLookup(cmd *cobra.Command) func(string) string {
	return func(name string) string {
		if cmd.Flags().Lookup(name) == nil {
			return ""
		}
		v, _ := cmd.Flags().GetString(name)
		return v
	}
}

func commandConfig(cmd *cobra.Command) config {
	cfg := loadConfig(flagLookup(cmd))
	cfg.Forced, _ = cmd.Flags().GetBool("forced-schema")
	cfg.MaxAttempts, _ = cmd.Flags().GetInt("max-attempts")
	return cfg
}
