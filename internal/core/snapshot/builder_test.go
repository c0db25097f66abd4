package snapshot

import (
	"errors"
	"testing"
	"time"

	"solix2prom/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(id string, category domain.Category, valid bool, readings map[string]float64, err error) EntityResult {
	return EntityResult{
		Info: domain.EntityInfo{
			ID:       id,
			SiteID:   "site-1",
			Category: category,
		},
		Valid:    valid,
		Readings: readings,
		Err:      err,
	}
}

func TestBuildFreshEntities(t *testing.T) {
	snap := Build(nil, 1, time.Now(), []EntityResult{
		result("sb-1", domain.CategorySolarbank, true, map[string]float64{"soc": 80}, nil),
	}, 3)

	require.Len(t, snap.Entities, 1)
	e, ok := snap.Entity("sb-1")
	require.True(t, ok)
	assert.True(t, e.Valid)
	assert.Equal(t, uint64(1), e.Cycle)
	assert.Equal(t, 80.0, e.Readings["soc"])
}

func TestBuildCarriesForwardOnInvalid(t *testing.T) {
	prev := Build(nil, 1, time.Now(), []EntityResult{
		result("sb-1", domain.CategorySolarbank, true, map[string]float64{"soc": 80}, nil),
	}, 3)

	next := Build(prev, 2, time.Now(), []EntityResult{
		result("sb-1", domain.CategorySolarbank, false, nil, nil),
	}, 3)

	e, ok := next.Entity("sb-1")
	require.True(t, ok)
	assert.False(t, e.Valid)
	// the readings keep their original cycle tag
	assert.Equal(t, uint64(1), e.Cycle)
	assert.Equal(t, 80.0, e.Readings["soc"])
}

func TestBuildCarriesForwardOnNormalizerError(t *testing.T) {
	prev := Build(nil, 1, time.Now(), []EntityResult{
		result("sb-1", domain.CategorySolarbank, true, map[string]float64{"soc": 80}, nil),
	}, 3)

	next := Build(prev, 2, time.Now(), []EntityResult{
		result("sb-1", domain.CategorySolarbank, true, nil, errors.New("no payload")),
	}, 3)

	e, ok := next.Entity("sb-1")
	require.True(t, ok)
	assert.False(t, e.Valid)
	assert.Equal(t, uint64(1), e.Cycle)
	assert.Equal(t, 80.0, e.Readings["soc"])
}

func TestBuildFailureIsolation(t *testing.T) {
	prev := Build(nil, 1, time.Now(), []EntityResult{
		result("sb-1", domain.CategorySolarbank, true, map[string]float64{"soc": 80}, nil),
		result("sm-1", domain.CategorySmartMeter, true, map[string]float64{"grid": 120}, nil),
	}, 3)

	next := Build(prev, 2, time.Now(), []EntityResult{
		result("sb-1", domain.CategorySolarbank, false, nil, nil),
		result("sm-1", domain.CategorySmartMeter, true, map[string]float64{"grid": 90}, nil),
	}, 3)

	sb, _ := next.Entity("sb-1")
	sm, _ := next.Entity("sm-1")
	assert.False(t, sb.Valid)
	assert.True(t, sm.Valid)
	assert.Equal(t, uint64(2), sm.Cycle)
	assert.Equal(t, 90.0, sm.Readings["grid"])
}

func TestBuildGraceEviction(t *testing.T) {
	snap := Build(nil, 1, time.Now(), []EntityResult{
		result("sb-1", domain.CategorySolarbank, true, map[string]float64{"soc": 80}, nil),
	}, 2)

	// absent for 2 cycles: still retained
	for cycle := uint64(2); cycle <= 3; cycle++ {
		snap = Build(snap, cycle, time.Now(), nil, 2)
		e, ok := snap.Entity("sb-1")
		require.True(t, ok, "entity must survive cycle %d", cycle)
		assert.Equal(t, uint(cycle-1), e.Missed)
	}

	// third consecutive absence exceeds the grace period
	snap = Build(snap, 4, time.Now(), nil, 2)
	_, ok := snap.Entity("sb-1")
	assert.False(t, ok)
}

func TestBuildReappearanceResetsMissed(t *testing.T) {
	snap := Build(nil, 1, time.Now(), []EntityResult{
		result("sb-1", domain.CategorySolarbank, true, map[string]float64{"soc": 80}, nil),
	}, 3)
	snap = Build(snap, 2, time.Now(), nil, 3)

	snap = Build(snap, 3, time.Now(), []EntityResult{
		result("sb-1", domain.CategorySolarbank, true, map[string]float64{"soc": 75}, nil),
	}, 3)

	e, ok := snap.Entity("sb-1")
	require.True(t, ok)
	assert.Equal(t, uint(0), e.Missed)
	assert.Equal(t, uint64(3), e.Cycle)
}

func TestBuildCategoryChangeIsFreshEntity(t *testing.T) {
	prev := Build(nil, 1, time.Now(), []EntityResult{
		result("dev-1", domain.CategorySolarbank, true, map[string]float64{"soc": 80}, nil),
	}, 3)

	// same ID shows up under another category and fails: nothing to carry
	next := Build(prev, 2, time.Now(), []EntityResult{
		result("dev-1", domain.CategorySmartPlug, false, nil, nil),
	}, 3)

	e, ok := next.Entity("dev-1")
	require.True(t, ok)
	assert.False(t, e.Valid)
	assert.Nil(t, e.Readings)
	assert.Equal(t, uint64(2), e.Cycle)
}
