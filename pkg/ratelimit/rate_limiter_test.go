package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The sliding-window script returns Lua numbers, which go-redis delivers
// as int64 values.
func TestEvalResult_WithinLimit(t *testing.T) {
	result, err := evalResult([]interface{}{int64(1), int64(59)}, 60, 1234)
	require.NoError(t, err)
	require.True(t, result.Allowed)
	require.Equal(t, 60, result.Limit)
	require.Equal(t, 59, result.Remaining)
	require.Equal(t, int64(1234), result.ResetTime)
}

func TestEvalResult_AtLimit(t *testing.T) {
	result, err := evalResult([]interface{}{int64(60), int64(0)}, 60, 1234)
	require.NoError(t, err)
	require.True(t, result.Allowed)
	require.Equal(t, 0, result.Remaining)
}

func TestEvalResult_OverLimitDenied(t *testing.T) {
	result, err := evalResult([]interface{}{int64(75), int64(-15)}, 60, 1234)
	require.NoError(t, err)
	require.False(t, result.Allowed)
	require.Equal(t, -15, result.Remaining)
}

func TestEvalResult_StringNumbers(t *testing.T) {
	result, err := evalResult([]interface{}{"61", "-1"}, 60, 1234)
	require.NoError(t, err)
	require.False(t, result.Allowed)
}

func TestEvalResult_MalformedReply(t *testing.T) {
	_, err := evalResult("OK", 60, 1234)
	require.Error(t, err)

	_, err = evalResult([]interface{}{int64(1)}, 60, 1234)
	require.Error(t, err)

	_, err = evalResult([]interface{}{int64(1), 2.5}, 60, 1234)
	require.Error(t, err)
}
