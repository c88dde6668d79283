package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stepkit/stepkit/engine/block"
	"github.com/stepkit/stepkit/engine/block/catalog"
	"github.com/stepkit/stepkit/engine/core"
	"github.com/stepkit/stepkit/pkg/logger"
)

func NormalizeCmd() *cobra.Command {
	var blockID string
	var operation string

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Resolve raw field values into tool parameters",
		Long: "Reads a JSON object of raw field values (from a file or stdin), " +
			"resolves it against a block definition for the given operation, " +
			"and prints the normalized parameter set.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _, err := setupContext(cmd)
			if err != nil {
				return err
			}
			raw, err := readFieldValues(cmd, args)
			if err != nil {
				return err
			}
			registry, err := catalog.Default(ctx)
			if err != nil {
				return err
			}
			def, err := registry.Get(blockID)
			if err != nil {
				return err
			}
			op := core.OperationID(operation)
			if op == "" {
				op = core.OperationID(fmt.Sprint(raw[def.OperationKey()]))
			}
			tool, err := def.Tools.ResolveTool(op)
			if err != nil {
				return err
			}

			normalizer, err := block.NewNormalizer()
			if err != nil {
				return err
			}
			params, err := normalizer.Normalize(ctx, raw, op, def)
			var verrs block.ValidationErrors
			if errors.As(err, &verrs) {
				for _, msg := range verrs.Messages() {
					fmt.Fprintln(cmd.ErrOrStderr(), "invalid:", msg)
				}
				return fmt.Errorf("%d validation error(s)", len(verrs))
			}
			if err != nil {
				return err
			}

			logger.FromContext(ctx).Debug("normalized parameters", "block", blockID, "operation", op, "tool", tool)
			out, err := json.MarshalIndent(map[string]any{
				"tool":   tool,
				"params": params,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&blockID, "block", "b", "", "block id to resolve against")
	cmd.Flags().StringVarP(&operation, "operation", "o", "", "operation (defaults to the block's operation field)")
	_ = cmd.MarkFlagRequired("block")
	return cmd
}

func readFieldValues(cmd *cobra.Command, args []string) (core.FieldValues, error) {
	var data []byte
	var err error
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read field values: %w", err)
	}
	var raw core.FieldValues
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("field values are not a valid JSON object: %w", err)
	}
	return raw, nil
}
