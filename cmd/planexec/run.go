package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/smallnest/planexec/agent"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	answerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("10")).
			Padding(0, 1)
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Answer a single question",
	Long:  `Runs the plan-execute-replan loop once for the given question and prints the answer.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		cfg := commandConfig(cmd)
		streaming, _ := cmd.Flags().GetBool("stream")
		threadID, _ := cmd.Flags().GetString("thread")
		if threadID == "" {
			threadID = uuid.NewString()
		}

		threads, err := cfg.threadRegistry()
		if err != nil {
			return err
		}
		ag, err := cfg.buildAgent(cmd.Context(), threads)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if streaming {
			if _, err := threads.Create(ctx, threadID); err != nil {
				return err
			}
			for frame := range ag.Stream(ctx, query, agent.StreamOptions{ThreadID: threadID}) {
				fmt.Print(frame)
			}
			return nil
		}

		state, err := ag.Invoke(ctx, query)
		if err != nil {
			return err
		}
		renderResult(state)
		return nil
	},
}

func renderResult(state agent.ExecutionState) {
	if len(state.PastSteps) > 0 {
		fmt.Println(headerStyle.Render("Steps"))
		for i, rec := range state.PastSteps {
			fmt.Println(stepStyle.Render(fmt.Sprintf("  %d. %s", i+1, rec.Step)))
		}
	}
	fmt.Println(answerStyle.Render(state.Output))
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("stream", false, "Print the raw event stream instead of the rendered answer")
	runCmd.Flags().String("thread", "", "Thread ID for cancellation and checkpointing (default: random)")
}
