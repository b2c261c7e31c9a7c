package cmd

import (
	"github.com/spf13/cobra"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Start a chapter tutoring session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, "learn")
	},
}

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Start a spoken tutoring session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, "voice")
	},
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Practice a question bank by subject and marks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, "evaluate")
	},
}

var syllabusCmd = &cobra.Command{
	Use:   "syllabus",
	Short: "Browse the syllabus chapter lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, "syllabus")
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the preparation report for a subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, "report")
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse locally saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, "history")
	},
}
