package types

// JSONMap stores free-form metadata as a JSON column.
type JSONMap map[string]any
