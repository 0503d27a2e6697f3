package hub

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/models"
)

// HoursStatus reports whether the hub is open at a given instant.
type HoursStatus struct {
	IsOpen            bool   `json:"isOpen"`
	CurrentTime       string `json:"currentTime"`
	OpenTime          string `json:"openTime"`
	CloseTime         string `json:"closeTime"`
	MinutesUntilClose *int   `json:"minutesUntilClose,omitempty"`
	NextOpenTime      string `json:"nextOpenTime,omitempty"`
}

// ValidateOperatingHours evaluates the hub's hours at the wall clock of at in the
// hub's timezone. A per-weekday override takes precedence over the regular hours.
// A zero at means now. Open windows are half-open: the hub is closed at the close
// minute.
func (p *Pool) ValidateOperatingHours(at time.Time) HoursStatus {
	p.mu.Lock()
	hours := p.hub.OperatingHours
	hubID := p.hub.ID
	p.mu.Unlock()

	if at.IsZero() {
		at = p.now()
	}
	if hours.Timezone != "" {
		if loc, err := time.LoadLocation(hours.Timezone); err == nil {
			at = at.In(loc)
		} else {
			log.WithFields(log.Fields{
				"hub_id":   hubID,
				"timezone": hours.Timezone,
			}).WithError(err).Debug("Ignoring unknown hub timezone")
		}
	}

	window := hours.For(at)
	res := HoursStatus{
		CurrentTime: models.ClockString(at),
		OpenTime:    window.Start,
		CloseTime:   window.End,
	}
	open, err1 := models.ParseClock(window.Start)
	closing, err2 := models.ParseClock(window.End)
	if err1 != nil || err2 != nil {
		return res
	}

	now := models.ClockMinutes(at)
	res.IsOpen = models.InClockWindow(now, open, closing)
	if res.IsOpen {
		until := closing - now
		if until <= 0 {
			until += models.MinutesPerDay
		}
		res.MinutesUntilClose = &until
		return res
	}

	if open <= closing && now >= closing {
		res.NextOpenTime = window.Start + " (next day)"
	} else {
		res.NextOpenTime = window.Start
	}
	return res
}
