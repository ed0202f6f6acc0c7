package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/memory"
	"github.com/warp/leave-engine/store/storetest"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) leave.TxStore { return memory.New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "1", Name: "Ana", Active: true}))
	require.NoError(t, s.AppendRecord(ctx, "1", leave.LeaveRecord{ID: "r1", Kind: leave.KindAnnual}))

	emp, err := s.GetEmployee(ctx, "1")
	require.NoError(t, err)
	emp.Records[0].Kind = leave.KindUnpaid
	emp.Active = false

	again, err := s.GetEmployee(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, leave.KindAnnual, again.Records[0].Kind)
	assert.True(t, again.Active)
}

func TestStore_SaveEmployeeKeepsLogs(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "1", Name: "Ana"}))
	require.NoError(t, s.AppendRecord(ctx, "1", leave.LeaveRecord{ID: "r1", Kind: leave.KindAnnual}))

	// Profile updates never touch records or requests.
	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "1", Name: "Ana María"}))

	emp, err := s.GetEmployee(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Ana María", emp.Name)
	assert.Len(t, emp.Records, 1)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "1", Name: "Ana"}))
	require.NoError(t, s.Reset(ctx))

	_, err := s.GetEmployee(ctx, "1")
	assert.True(t, generic.IsNotFound(err))
}
