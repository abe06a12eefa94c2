package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rpggio/labelport/internal/cvatxml"
	"github.com/spf13/cobra"
)

var (
	dumpTaskID int64
	dumpOutput string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write a stored task snapshot back out as an annotation XML document",
	Long: `Write a stored task snapshot back out as an annotation XML document.

Output is deterministic: the same snapshot always produces byte-identical
XML, so dumps are diffable.

Examples:
  labelport dump --task 42
  labelport dump --task 42 -o annotations.xml`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().Int64Var(&dumpTaskID, "task", 0, "Task id to dump (required)")
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "Output file (default stdout)")
	dumpCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	task, err := store.GetTask(cmd.Context(), dumpTaskID)
	if err != nil {
		return fmt.Errorf("failed to load task %d: %w", dumpTaskID, err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if dumpOutput != "" {
		f, err := os.Create(dumpOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return cvatxml.Write(out, task)
}
