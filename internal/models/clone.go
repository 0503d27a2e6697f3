package models

import "time"

// Clone returns a deep copy that shares no mutable state with v.
func (v *Vehicle) Clone() *Vehicle {
	if v == nil {
		return nil
	}
	c := *v
	c.Location = v.Location.clone()
	c.Compliance.ZoneRestrictions = cloneStrings(v.Compliance.ZoneRestrictions)
	if v.Compliance.TimeRestrictions != nil {
		c.Compliance.TimeRestrictions = make([]TimeRestriction, len(v.Compliance.TimeRestrictions))
		for i, r := range v.Compliance.TimeRestrictions {
			r.DaysApplicable = cloneStrings(r.DaysApplicable)
			r.Exceptions = cloneStrings(r.Exceptions)
			c.Compliance.TimeRestrictions[i] = r
		}
	}
	return &c
}

// Clone returns a deep copy that shares no mutable state with r.
func (r *Route) Clone() *Route {
	if r == nil {
		return nil
	}
	c := *r
	c.DeliveryIDs = cloneStrings(r.DeliveryIDs)
	if r.Stops != nil {
		c.Stops = make([]RouteStop, len(r.Stops))
		for i, s := range r.Stops {
			s.Location = s.Location.clone()
			s.ActualArrivalTime = cloneTime(s.ActualArrivalTime)
			s.ActualDepartureTime = cloneTime(s.ActualDepartureTime)
			s.Instructions = cloneStrings(s.Instructions)
			c.Stops[i] = s
		}
	}
	c.ActualDuration = cloneFloat(r.ActualDuration)
	c.ActualDistance = cloneFloat(r.ActualDistance)
	c.ActualFuelConsumption = cloneFloat(r.ActualFuelConsumption)
	if r.TrafficFactors != nil {
		c.TrafficFactors = make([]TrafficFactor, len(r.TrafficFactors))
		for i, f := range r.TrafficFactors {
			f.FromLocation = f.FromLocation.clone()
			f.ToLocation = f.ToLocation.clone()
			c.TrafficFactors[i] = f
		}
	}
	if r.OptimizationMetadata != nil {
		m := *r.OptimizationMetadata
		m.ConstraintsApplied = cloneStrings(m.ConstraintsApplied)
		c.OptimizationMetadata = &m
	}
	if r.ComplianceValidation != nil {
		v := *r.ComplianceValidation
		v.Violations = append([]ComplianceViolation(nil), v.Violations...)
		v.Warnings = append([]ComplianceWarning(nil), v.Warnings...)
		v.Exemptions = append([]ComplianceExemption(nil), v.Exemptions...)
		c.ComplianceValidation = &v
	}
	c.StartedAt = cloneTime(r.StartedAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	return &c
}

// Clone returns a deep copy that shares no mutable state with h.
func (h *Hub) Clone() *Hub {
	if h == nil {
		return nil
	}
	c := *h
	c.Location = h.Location.clone()
	c.BufferVehicles = cloneStrings(h.BufferVehicles)
	c.Facilities = cloneStrings(h.Facilities)
	if h.OperatingHours.SpecialHours != nil {
		c.OperatingHours.SpecialHours = make(map[string]TimeWindow, len(h.OperatingHours.SpecialHours))
		for k, w := range h.OperatingHours.SpecialHours {
			c.OperatingHours.SpecialHours[k] = w
		}
	}
	if h.Manager != nil {
		m := *h.Manager
		c.Manager = &m
	}
	return &c
}

func (l Location) clone() Location {
	l.Timestamp = cloneTime(l.Timestamp)
	return l
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
