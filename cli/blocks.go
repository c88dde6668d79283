package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stepkit/stepkit/engine/block/catalog"
)

func BlocksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks [id]",
		Short: "List built-in blocks or show one definition",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _, err := setupContext(cmd)
			if err != nil {
				return err
			}
			registry, err := catalog.Default(ctx)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return listBlocks(cmd, registry)
			}
			return showBlock(cmd, registry, args[0])
		},
	}
	return cmd
}

func listBlocks(cmd *cobra.Command, registry *catalog.Registry) error {
	for _, id := range registry.IDs() {
		def, err := registry.Get(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", id, def.Description)
	}
	return nil
}

func showBlock(cmd *cobra.Command, registry *catalog.Registry, id string) error {
	def, err := registry.Get(id)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode block %q: %w", id, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
