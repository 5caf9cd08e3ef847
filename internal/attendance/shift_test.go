package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evn/absen_backend/internal/models"
)

func officeShift() *models.Shift {
	return &models.Shift{
		ID:               1,
		Name:             "Office",
		StartTime:        models.ClockTime{Hour: 8},
		EndTime:          models.ClockTime{Hour: 17},
		ToleranceMinutes: 15,
		WorkingDays:      []int{1, 2, 3, 4, 5},
		Status:           models.StatusActive,
	}
}

func TestClassifyAgainst(t *testing.T) {
	at := func(h, m, s int) time.Time { return time.Date(2025, 3, 3, h, m, s, 0, wib) }

	tests := []struct {
		name  string
		shift *models.Shift
		tap   time.Time
		typ   models.AttendanceType
		want  models.StatusFlag
	}{
		{"no shift", nil, at(10, 0, 0), models.TypeIn, models.FlagOnTime},
		{"early in", officeShift(), at(7, 45, 0), models.TypeIn, models.FlagOnTime},
		{"in at tolerance edge", officeShift(), at(8, 15, 0), models.TypeIn, models.FlagOnTime},
		{"in one second past tolerance", officeShift(), at(8, 15, 1), models.TypeIn, models.FlagLate},
		{"in at 08:20", officeShift(), at(8, 20, 0), models.TypeIn, models.FlagLate},
		{"out before tolerance", officeShift(), at(16, 44, 59), models.TypeOut, models.FlagEarlyLeave},
		{"out at tolerance edge", officeShift(), at(16, 45, 0), models.TypeOut, models.FlagOnTime},
		{"out late evening", officeShift(), at(19, 0, 0), models.TypeOut, models.FlagOnTime},
		{"auto", officeShift(), at(8, 30, 0), models.TypeAuto, models.FlagOnTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyAgainst(tt.shift, tt.tap, tt.typ))
		})
	}
}

func TestActiveShift_MostRecentMappingWins(t *testing.T) {
	early := &models.Shift{ID: 1, StartTime: models.ClockTime{Hour: 7}, EndTime: models.ClockTime{Hour: 15}}
	late := &models.Shift{ID: 2, StartTime: models.ClockTime{Hour: 9}, EndTime: models.ClockTime{Hour: 18}}
	third := &models.Shift{ID: 3, StartTime: models.ClockTime{Hour: 10}, EndTime: models.ClockTime{Hour: 19}}
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	maps := &fakeShiftMaps{maps: []models.UserShiftMap{
		{ID: 5, UserID: 10, Status: models.StatusActive, EffectiveDate: from, CreatedAt: created, Shift: early},
		{ID: 6, UserID: 10, Status: models.StatusActive, EffectiveDate: from, CreatedAt: created.Add(time.Hour), Shift: late},
	}}
	e := NewShiftEvaluator(maps)
	tap := time.Date(2025, 3, 3, 8, 30, 0, 0, wib)

	shift, err := e.ActiveShift(context.Background(), 10, tap)
	require.NoError(t, err)
	assert.Equal(t, int64(2), shift.ID)

	// same creation time: higher id wins
	maps.maps = append(maps.maps, models.UserShiftMap{
		ID: 7, UserID: 10, Status: models.StatusActive, EffectiveDate: from, CreatedAt: created.Add(time.Hour), Shift: third,
	})
	shift, err = e.ActiveShift(context.Background(), 10, tap)
	require.NoError(t, err)
	assert.Equal(t, int64(3), shift.ID)
}

func TestActiveShift_SkipsMappingsOutsideDate(t *testing.T) {
	ended := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	maps := &fakeShiftMaps{maps: []models.UserShiftMap{
		{ID: 1, UserID: 10, Status: models.StatusActive, EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: &ended, Shift: officeShift()},
		{ID: 2, UserID: 10, Status: models.StatusActive, EffectiveDate: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), Shift: officeShift()},
		{ID: 3, UserID: 10, Status: models.StatusInactive, EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Shift: officeShift()},
	}}
	e := NewShiftEvaluator(maps)

	flag, err := e.Classify(context.Background(), &models.User{ID: 10}, time.Date(2025, 3, 3, 9, 0, 0, 0, wib), models.TypeIn)
	require.NoError(t, err)
	assert.Equal(t, models.FlagOnTime, flag)
}

func TestActiveShift_EndDateIsInclusive(t *testing.T) {
	end := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	maps := &fakeShiftMaps{maps: []models.UserShiftMap{
		{ID: 1, UserID: 10, Status: models.StatusActive, EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: &end, Shift: officeShift()},
	}}
	flag, err := NewShiftEvaluator(maps).Classify(context.Background(), &models.User{ID: 10}, time.Date(2025, 3, 3, 9, 0, 0, 0, wib), models.TypeIn)
	require.NoError(t, err)
	assert.Equal(t, models.FlagLate, flag)
}
