package obs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribeSQL(t *testing.T) {
	name, op := describeSQL("-- name: GetOrderByCode :one\nSELECT id FROM orders WHERE code = $1")
	require.Equal(t, "GetOrderByCode", name)
	require.Equal(t, "SELECT", op)

	name, op = describeSQL("  update carts set status = 'checked_out'")
	require.Equal(t, "pgx UPDATE", name)
	require.Equal(t, "UPDATE", op)

	name, op = describeSQL("")
	require.Equal(t, "pgx QUERY", name)
	require.Equal(t, "QUERY", op)
}
