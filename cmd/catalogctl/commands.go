package main

import (
	"fmt"
	"os"

	"marketplace/catalog/internal/domain/task"
	"marketplace/catalog/internal/fixture"

	"github.com/spf13/cobra"
)

type enqueueFunc func(cmd *cobra.Command, t task.Task) (string, error)

func newRootCmd(enqueue enqueueFunc) *cobra.Command {
	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Queue category mutations for the catalog service",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", ".", "directory holding config.yaml")

	send := func(cmd *cobra.Command, t task.Task) error {
		id, err := enqueue(cmd, t)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as %s\n", t.TaskType(), id)
		return nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "toggle <category-id>",
			Short: "Expand or collapse one category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return send(cmd, &task.ExpandTask{Action: task.ExpandActionToggle, CategoryID: args[0]})
			},
		},
		&cobra.Command{
			Use:   "expand-all",
			Short: "Expand every category",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return send(cmd, &task.ExpandTask{Action: task.ExpandActionExpandAll})
			},
		},
		&cobra.Command{
			Use:   "collapse-all",
			Short: "Collapse every category",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return send(cmd, &task.ExpandTask{Action: task.ExpandActionCollapseAll})
			},
		},
		&cobra.Command{
			Use:   "remove <category-id>",
			Short: "Remove a category and its subtree",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return send(cmd, &task.RemoveCategoryTask{CategoryID: args[0]})
			},
		},
		&cobra.Command{
			Use:   "move <category-id> [new-parent-id]",
			Short: "Re-parent a category, or make it a root when no parent is given",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				move := &task.MoveCategoryTask{CategoryID: args[0]}
				if len(args) > 1 {
					move.NewParentID = args[1]
				}
				return send(cmd, move)
			},
		},
		newUpsertCmd(send),
	)
	return root
}

func newUpsertCmd(send func(*cobra.Command, task.Task) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upsert -f <categories.yaml>",
		Short: "Create or update the categories listed in a YAML file",
		Long:  "Each top-level entry of the file is queued as one upsert, children included. Use parent_id on an entry to place it under an existing category.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			nodes, err := fixture.Parse(data)
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				return fmt.Errorf("no categories in %s", path)
			}
			for _, node := range nodes {
				if err := send(cmd, &task.UpsertCategoryTask{Category: node}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "YAML file with the categories to upsert")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
