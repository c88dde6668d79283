package block

import (
	"sort"

	"github.com/stepkit/stepkit/engine/core"
)

// ToolTable is a block's static operation→tool mapping.
type ToolTable map[core.OperationID]core.ToolID

// Operations returns the table's operation ids in sorted order.
func (t ToolTable) Operations() []core.OperationID {
	ops := make([]core.OperationID, 0, len(t))
	for op := range t {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// ResolveTool maps a user-chosen operation to the concrete backend tool.
// A miss is always an *UnknownOperationError naming the offending
// operation and the valid set; there is no fallback.
func (t ToolTable) ResolveTool(op core.OperationID) (core.ToolID, error) {
	tool, ok := t[op]
	if !ok {
		return "", core.NewError(
			&UnknownOperationError{Operation: op, Valid: t.Operations()},
			"UNKNOWN_OPERATION",
			map[string]any{"operation": op},
		)
	}
	return tool, nil
}
