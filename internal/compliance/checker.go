// Package compliance decides whether a vehicle may legally operate at a given
// place and time: circulation-day parity, time-of-day zone bans and the
// composite policy check built from them.
package compliance

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/models"
)

// MaxVehicleAge is the age in years above which a vehicle draws a warning.
const MaxVehicleAge = 15

// Daytime bounds used when suggesting alternatives to a daytime restriction.
const (
	dayStart = "06:00"
	dayEnd   = "22:00"
)

// Finding codes reported in ComplianceResult.
const (
	CodePollutionCertificate = "pollution_certificate"
	CodePermit               = "permit"
	CodeOddEven              = "odd_even"
	CodeTimeRestriction      = "time_restriction"
	CodeZoneAccess           = "zone_access"
	CodePollutionTier        = "pollution_tier"
	CodeVehicleAge           = "vehicle_age"
)

// Checker evaluates vehicles against the regulatory rules.
type Checker struct {
	now func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithClock replaces time.Now as the source of "now" for calls that pass a zero time.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

// NewChecker creates a Checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) resolve(t time.Time) time.Time {
	if t.IsZero() {
		return c.now()
	}
	return t
}

// CirculationResult is the outcome of the odd/even plate rule.
type CirculationResult struct {
	Compliant       bool      `json:"compliant"`
	PlateNumber     string    `json:"plateNumber"`
	Date            time.Time `json:"date"`
	IsOddPlate      bool      `json:"isOddPlate"`
	IsOddDate       bool      `json:"isOddDate"`
	IsExempt        bool      `json:"isExempt"`
	ExemptionReason string    `json:"exemptionReason,omitempty"`
}

// CheckCirculationDay applies the odd/even rule for date. A zero date means now.
// A plate without digits is treated as even.
func (c *Checker) CheckCirculationDay(v *models.Vehicle, date time.Time) CirculationResult {
	date = c.resolve(date)
	digits := models.PlateDigits(v.Specs.PlateNumber)
	lastDigit := 0
	if digits != "" {
		lastDigit = int(digits[len(digits)-1] - '0')
	}
	isOddPlate := lastDigit%2 == 1
	isOddDate := date.Day()%2 == 1
	reason := ExemptionReason(v)
	exempt := reason != ""

	return CirculationResult{
		Compliant:       exempt || isOddPlate == isOddDate,
		PlateNumber:     v.Specs.PlateNumber,
		Date:            date,
		IsOddPlate:      isOddPlate,
		IsOddDate:       isOddDate,
		IsExempt:        exempt,
		ExemptionReason: reason,
	}
}

// ExemptionReason returns why the vehicle is exempt from the odd/even rule, or ""
// when it is not.
func ExemptionReason(v *models.Vehicle) string {
	switch {
	case v.Specs.FuelType == models.FuelElectric:
		return "Electric vehicle exemption"
	case v.Type == models.VehicleTypeThreeWheeler:
		return "Three-wheeler exemption"
	case v.Specs.FuelType == models.FuelCNG:
		return "CNG vehicle exemption"
	case v.HasException(models.ExceptionEmergency):
		return "Emergency exception"
	default:
		return ""
	}
}

// TimeRestrictionResult is the outcome of a time-of-day zone check.
type TimeRestrictionResult struct {
	Allowed         bool                `json:"allowed"`
	CurrentTime     string              `json:"currentTime"`
	ZoneType        models.ZoneType     `json:"zoneType"`
	VehicleType     models.VehicleType  `json:"vehicleType"`
	RestrictedHours *models.TimeWindow  `json:"restrictedHours,omitempty"`
	Alternatives    []models.TimeWindow `json:"alternatives,omitempty"`
}

// CheckTimeRestriction reports whether the vehicle may move in zone at the wall
// clock of at. A zero time means now. The first matching restriction wins.
func (c *Checker) CheckTimeRestriction(v *models.Vehicle, zone models.ZoneType, at time.Time) TimeRestrictionResult {
	at = c.resolve(at)
	res := TimeRestrictionResult{
		Allowed:     true,
		CurrentTime: models.ClockString(at),
		ZoneType:    zone,
		VehicleType: v.Type,
	}
	if hasTimeExemption(v) {
		return res
	}

	minute := models.ClockMinutes(at)
	for _, r := range v.Compliance.TimeRestrictions {
		if r.ZoneType != zone || !r.AppliesOn(at) {
			continue
		}
		if err := r.RestrictedHours.Validate("restrictedHours"); err != nil {
			log.WithFields(log.Fields{
				"vehicle_id": v.ID,
				"zone":       zone,
			}).WithError(err).Debug("Skipping malformed time restriction")
			continue
		}
		if !r.RestrictedHours.Contains(minute) {
			continue
		}
		window := r.RestrictedHours
		res.Allowed = false
		res.RestrictedHours = &window
		res.Alternatives = AlternativeWindows(window)
		return res
	}
	return res
}

func hasTimeExemption(v *models.Vehicle) bool {
	return v.HasException(models.ExceptionEmergency) || v.HasException(models.ExceptionEssentialServices)
}

// AlternativeWindows suggests when the vehicle could move instead. An overnight
// restriction leaves the single daytime gap between its end and start. A daytime
// restriction leaves the morning before it and the evening after it, bounded by
// 06:00 and 22:00; empty pieces are dropped.
func AlternativeWindows(restricted models.TimeWindow) []models.TimeWindow {
	if restricted.Overnight() {
		return []models.TimeWindow{{Start: restricted.End, End: restricted.Start}}
	}

	var out []models.TimeWindow
	for _, w := range []models.TimeWindow{
		{Start: dayStart, End: restricted.Start},
		{Start: restricted.End, End: dayEnd},
	} {
		start, err1 := models.ParseClock(w.Start)
		end, err2 := models.ParseClock(w.End)
		if err1 == nil && err2 == nil && start < end {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		out = append(out, models.TimeWindow{Start: restricted.End, End: restricted.Start})
	}
	return out
}

// Finding is a single violation or warning with its remediation.
type Finding struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Remediation string `json:"remediation"`
}

// ComplianceResult is the composite policy outcome. Compliant holds iff there are
// no violations; warnings are advisory.
type ComplianceResult struct {
	VehicleID        string          `json:"vehicleId"`
	Compliant        bool            `json:"compliant"`
	ZoneType         models.ZoneType `json:"zoneType"`
	CheckedAt        time.Time       `json:"checkedAt"`
	Violations       []Finding       `json:"violations"`
	Warnings         []Finding       `json:"warnings"`
	SuggestedActions []string        `json:"suggestedActions"`
}

func (r *ComplianceResult) violation(code, msg, remedy string) {
	r.Violations = append(r.Violations, Finding{Code: code, Message: msg, Remediation: remedy})
	r.SuggestedActions = append(r.SuggestedActions, remedy)
}

func (r *ComplianceResult) warning(code, msg, remedy string) {
	r.Warnings = append(r.Warnings, Finding{Code: code, Message: msg, Remediation: remedy})
	r.SuggestedActions = append(r.SuggestedActions, remedy)
}

// CheckCompliance runs every rule for the vehicle in zone at date and collects all
// outcomes. A zero date means now.
func (c *Checker) CheckCompliance(v *models.Vehicle, zone models.ZoneType, date time.Time) ComplianceResult {
	date = c.resolve(date)
	res := ComplianceResult{
		VehicleID:        v.ID,
		ZoneType:         zone,
		CheckedAt:        date,
		Violations:       []Finding{},
		Warnings:         []Finding{},
		SuggestedActions: []string{},
	}

	if !v.Compliance.PollutionCertificate {
		res.violation(CodePollutionCertificate, "Missing valid pollution certificate", "Obtain valid pollution certificate")
	}
	if !v.Compliance.PermitValid {
		res.violation(CodePermit, "Invalid or expired permit", "Renew vehicle permit")
	}

	if circ := c.CheckCirculationDay(v, date); !circ.Compliant {
		res.violation(CodeOddEven,
			fmt.Sprintf("Odd-even rule violation: %s plate on %s date", parity(circ.IsOddPlate, true), parity(circ.IsOddDate, false)),
			"Use alternative vehicle or wait for compliant date")
	}

	if tr := c.CheckTimeRestriction(v, zone, date); !tr.Allowed {
		windows := make([]string, 0, len(tr.Alternatives))
		for _, w := range tr.Alternatives {
			windows = append(windows, w.String())
		}
		res.violation(CodeTimeRestriction,
			fmt.Sprintf("Time restriction violation: %s not allowed in %s zone at %s", v.Type, zone, tr.CurrentTime),
			"Alternative time windows: "+strings.Join(windows, ", "))
	}

	if !v.HasZoneAccess(zone) {
		res.violation(CodeZoneAccess, fmt.Sprintf("No access privilege for %s zone", zone), "Use vehicle with appropriate zone access")
	}

	if v.Compliance.PollutionLevel == models.PollutionBS3 && zone == models.ZoneCommercial {
		res.warning(CodePollutionTier, "BS3 vehicle may face restrictions in commercial zones", "Consider upgrading to BS6 vehicle")
	}
	if v.Specs.VehicleAge > MaxVehicleAge {
		res.warning(CodeVehicleAge, "Vehicle age exceeds 15 years, may face additional restrictions", "Consider vehicle replacement")
	}

	res.Compliant = len(res.Violations) == 0
	return res
}

func parity(odd, capital bool) string {
	s := "even"
	if odd {
		s = "odd"
	}
	if capital {
		return strings.ToUpper(s[:1]) + s[1:]
	}
	return s
}
