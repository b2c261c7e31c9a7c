package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "learnterm",
	Short: "Anzway tutoring in the terminal",
	Long:  "Learnterm — terminal client for the Anzway tutoring backend: guided chapter sessions, spoken tutoring, and question-bank practice.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, "")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Backend base URL (overrides ANZWAY_SERVER_URL)")
	rootCmd.PersistentFlags().String("user", "", "Student name sent to the backend (overrides ANZWAY_USERNAME)")
	rootCmd.PersistentFlags().String("db", "", "Path to the local history database (overrides ANZWAY_DB)")

	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(voiceCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(syllabusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}
