package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/evn/absen_backend/internal/models"
)

// ShiftEvaluator classifies a tap against the user's shift for that day.
// Shifts are evaluated on the tap's own calendar date; overnight shifts
// are not supported.
type ShiftEvaluator struct {
	maps ShiftMaps
}

func NewShiftEvaluator(maps ShiftMaps) *ShiftEvaluator {
	return &ShiftEvaluator{maps: maps}
}

// ActiveShift returns the shift in effect for the user on tapTime's date, or nil.
// When several mappings apply the most recently created one wins.
func (e *ShiftEvaluator) ActiveShift(ctx context.Context, userID int64, tapTime time.Time) (*models.Shift, error) {
	maps, err := e.maps.EffectiveMaps(ctx, userID, tapTime)
	if err != nil {
		return nil, err
	}
	var effective []models.UserShiftMap
	for _, m := range maps {
		if m.Shift != nil && m.EffectiveOn(tapTime) {
			effective = append(effective, m)
		}
	}
	if len(effective) == 0 {
		return nil, nil
	}
	sort.Slice(effective, func(i, j int) bool {
		if !effective[i].CreatedAt.Equal(effective[j].CreatedAt) {
			return effective[i].CreatedAt.After(effective[j].CreatedAt)
		}
		return effective[i].ID > effective[j].ID
	})
	return effective[0].Shift, nil
}

func (e *ShiftEvaluator) Classify(ctx context.Context, user *models.User, tapTime time.Time, tapType models.AttendanceType) (models.StatusFlag, error) {
	shift, err := e.ActiveShift(ctx, user.ID, tapTime)
	if err != nil {
		return "", err
	}
	return classifyAgainst(shift, tapTime, tapType), nil
}

func classifyAgainst(shift *models.Shift, tapTime time.Time, tapType models.AttendanceType) models.StatusFlag {
	if shift == nil {
		return models.FlagOnTime
	}
	switch tapType {
	case models.TypeIn:
		if tapTime.After(shift.StartTime.On(tapTime).Add(shift.Tolerance())) {
			return models.FlagLate
		}
	case models.TypeOut:
		if tapTime.Before(shift.EndTime.On(tapTime).Add(-shift.Tolerance())) {
			return models.FlagEarlyLeave
		}
	}
	return models.FlagOnTime
}
