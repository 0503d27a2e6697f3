package route

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-compliance/internal/models"
)

var base = time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newRoute(stops int) *models.Route {
	r := &models.Route{
		ID:                "R1",
		VehicleID:         "V1",
		EstimatedDistance: 30.5,
		EstimatedDuration: 150,
	}
	for i := 0; i < stops; i++ {
		r.Stops = append(r.Stops, models.RouteStop{
			ID:                   string(rune('A' + i)),
			Sequence:             i + 1,
			Type:                 models.StopDelivery,
			Location:             models.Location{Lat: 28.6 + float64(i)*0.1, Lon: 77.2},
			EstimatedArrivalTime: base.Add(time.Duration(i) * time.Hour),
			Duration:             15,
			Status:               models.StopStatusPending,
		})
	}
	return r
}

func newTracker(r *models.Route) (*Tracker, *fakeClock) {
	clock := &fakeClock{t: base}
	return NewTracker(r, WithClock(clock.now)), clock
}

func TestNewTracker_DefaultsToPlanned(t *testing.T) {
	tr, _ := newTracker(newRoute(0))
	assert.Equal(t, models.RouteStatusPlanned, tr.Status())
}

func TestLifecycle_HappyPath(t *testing.T) {
	tr, clock := newTracker(newRoute(2))

	require.True(t, tr.Start())
	assert.Equal(t, models.RouteStatusActive, tr.Status())
	require.NotNil(t, tr.Route().StartedAt)
	assert.Equal(t, base, *tr.Route().StartedAt)

	clock.t = base.Add(95*time.Minute + 20*time.Second)
	require.True(t, tr.Complete())
	r := tr.Route()
	assert.Equal(t, models.RouteStatusCompleted, r.Status)
	require.NotNil(t, r.CompletedAt)
	assert.Equal(t, clock.t, *r.CompletedAt)
	require.NotNil(t, r.ActualDuration)
	assert.Equal(t, 95.0, *r.ActualDuration)
}

func TestLifecycle_CompleteKeepsSuppliedDuration(t *testing.T) {
	r := newRoute(1)
	d := 42.0
	r.ActualDuration = &d
	tr, clock := newTracker(r)

	tr.Start()
	clock.t = base.Add(3 * time.Hour)
	tr.Complete()
	assert.Equal(t, 42.0, *tr.Route().ActualDuration)
}

func TestLifecycle_CompleteNeverNegative(t *testing.T) {
	tr, clock := newTracker(newRoute(1))
	tr.Start()
	clock.t = base.Add(-10 * time.Minute)
	require.True(t, tr.Complete())
	assert.GreaterOrEqual(t, *tr.Route().ActualDuration, 0.0)
}

func TestLifecycle_InvalidTransitionsAreNoOps(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(tr *Tracker)
		attempt func(tr *Tracker) bool
	}{
		{"complete from planned", func(tr *Tracker) {}, (*Tracker).Complete},
		{"start from active", func(tr *Tracker) { tr.Start() }, (*Tracker).Start},
		{"start from completed", func(tr *Tracker) { tr.Start(); tr.Complete() }, (*Tracker).Start},
		{"start from cancelled", func(tr *Tracker) { tr.Cancel() }, (*Tracker).Start},
		{"cancel from completed", func(tr *Tracker) { tr.Start(); tr.Complete() }, (*Tracker).Cancel},
		{"cancel twice", func(tr *Tracker) { tr.Cancel() }, (*Tracker).Cancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, clock := newTracker(newRoute(1))
			tt.setup(tr)
			before := tr.Route().Clone()

			clock.t = base.Add(time.Hour)
			assert.False(t, tt.attempt(tr))
			assert.Equal(t, before, tr.Route())
		})
	}
}

func TestLifecycle_CancelFromPlannedAndActive(t *testing.T) {
	tr, _ := newTracker(newRoute(1))
	assert.True(t, tr.Cancel())
	assert.Equal(t, models.RouteStatusCancelled, tr.Status())

	tr, _ = newTracker(newRoute(1))
	tr.Start()
	assert.True(t, tr.Cancel())
	assert.Equal(t, models.RouteStatusCancelled, tr.Status())
	assert.Nil(t, tr.Route().CompletedAt)
}

func TestLifecycle_ResumesFromStoredStatus(t *testing.T) {
	r := newRoute(1)
	r.Status = models.RouteStatusActive
	started := base.Add(-time.Hour)
	r.StartedAt = &started
	tr, _ := newTracker(r)

	assert.False(t, tr.Start())
	assert.True(t, tr.Complete())
	assert.Equal(t, 60.0, *tr.Route().ActualDuration)
}

func TestSetStopStatus(t *testing.T) {
	tr, _ := newTracker(newRoute(2))
	arrived := base.Add(10 * time.Minute)
	departed := base.Add(25 * time.Minute)

	ok, err := tr.SetStopStatus("A", models.StopStatusArrived, arrived)
	require.NoError(t, err)
	require.True(t, ok)
	stop := tr.Route().Stops[0]
	assert.Equal(t, models.StopStatusArrived, stop.Status)
	assert.Equal(t, arrived, *stop.ActualArrivalTime)

	ok, _ = tr.SetStopStatus("A", models.StopStatusCompleted, departed)
	require.True(t, ok)
	ok, _ = tr.SetStopStatus("A", models.StopStatusCompleted, departed.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, departed, *tr.Route().Stops[0].ActualDepartureTime, "departure is stamped once")

	ok, err = tr.SetStopStatus("missing", models.StopStatusArrived, arrived)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = tr.SetStopStatus("B", "teleported", arrived)
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, models.StopStatusPending, tr.Route().Stops[1].Status)
}

func TestNextAndCompletedStops(t *testing.T) {
	tr, _ := newTracker(newRoute(3))
	next, ok := tr.NextStop()
	require.True(t, ok)
	assert.Equal(t, "A", next.ID)

	tr.SetStopStatus("A", models.StopStatusCompleted, time.Time{})
	tr.SetStopStatus("B", models.StopStatusSkipped, time.Time{})
	next, ok = tr.NextStop()
	require.True(t, ok)
	assert.Equal(t, "C", next.ID)

	completed := tr.CompletedStops()
	require.Len(t, completed, 1)
	assert.Equal(t, "A", completed[0].ID)
	require.NotNil(t, completed[0].ActualDepartureTime)
	assert.Equal(t, base, *completed[0].ActualDepartureTime)

	tr.SetStopStatus("C", models.StopStatusCompleted, time.Time{})
	_, ok = tr.NextStop()
	assert.False(t, ok)
}

func TestAddTrafficFactor_ReplacesBySegment(t *testing.T) {
	tr, _ := newTracker(newRoute(1))

	require.NoError(t, tr.AddTrafficFactor(models.TrafficFactor{SegmentID: "S1", TrafficLevel: models.TrafficModerate, DelayMinutes: 5}))
	require.NoError(t, tr.AddTrafficFactor(models.TrafficFactor{SegmentID: "S2", TrafficLevel: models.TrafficHeavy, DelayMinutes: 12}))
	assert.Equal(t, 17.0, tr.TotalTrafficDelay())

	require.NoError(t, tr.AddTrafficFactor(models.TrafficFactor{SegmentID: "S1", TrafficLevel: models.TrafficSevere, DelayMinutes: 20}))
	factors := tr.Route().TrafficFactors
	require.Len(t, factors, 2)
	assert.Equal(t, "S1", factors[0].SegmentID)
	assert.Equal(t, models.TrafficSevere, factors[0].TrafficLevel)
	assert.Equal(t, 32.0, tr.TotalTrafficDelay())
	assert.Equal(t, base, factors[0].Timestamp)

	err := tr.AddTrafficFactor(models.TrafficFactor{SegmentID: "S3", TrafficLevel: "jammed"})
	assert.Error(t, err)
	assert.Len(t, tr.Route().TrafficFactors, 2)
}

func TestReassign(t *testing.T) {
	tr, _ := newTracker(newRoute(1))
	assert.True(t, tr.Reassign("V2"))
	assert.Equal(t, "V2", tr.Route().VehicleID)

	tr.Cancel()
	assert.False(t, tr.Reassign("V3"))
	assert.Equal(t, "V2", tr.Route().VehicleID)
}
