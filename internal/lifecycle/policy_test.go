package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanRegister(t *testing.T) {
	date := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	open := Event{Date: date}

	tests := []struct {
		name string
		ev   Event
		now  time.Time
		want bool
	}{
		{"before date", open, date.Add(-time.Hour), true},
		{"at date", open, date, true},
		{"after date", open, date.Add(time.Nanosecond), false},
		{"closed", Event{Date: date, RegistrationClosed: true}, date.Add(-time.Hour), false},
		{"completed", Event{Date: date, AttendanceCompleted: true}, date.Add(-time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanRegister(tt.ev, tt.now))
		})
	}
}

func TestCanManageEvent(t *testing.T) {
	ev := Event{CoordinatorID: "c1"}
	assert.True(t, CanManageEvent(Actor{ID: "c1", Role: RoleCoordinator}, ev))
	assert.True(t, CanManageEvent(Actor{ID: "a1", Role: RoleAdmin}, ev))
	assert.False(t, CanManageEvent(Actor{ID: "c2", Role: RoleCoordinator}, ev))
	assert.False(t, CanManageEvent(Actor{Role: RoleCoordinator}, Event{}))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleStudent.Valid())
	assert.False(t, Role("root").Valid())
}
