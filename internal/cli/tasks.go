package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the supported task types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, info := range task.Catalog() {
			fmt.Printf("%-12s %s\n", info.ID, info.Name)
			fmt.Printf("             %s\n", info.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
