package billing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"home-energy-backend/internal/store"
)

var (
	// ErrInvalidEstimate is returned when an estimation request is
	// self-contradictory or incomplete (non-positive hours, neither hours
	// nor days+avgHoursPerDay given).
	ErrInvalidEstimate = errors.New("invalid estimation parameters")

	// ErrNoPowerData is returned when a device has neither a rated power nor
	// usable power history. It is distinct from a legitimate zero-cost result.
	ErrNoPowerData = errors.New("no power data available for device")
)

// trailingPowerWindow is how far back the estimator looks for an average
// observed power when the rated power is not set.
const trailingPowerWindow = 7 * 24 * time.Hour

// Cost is an energy quantity priced at a rate. Energy is rounded to 3
// decimals before pricing; the cost carries 2 decimals.
type Cost struct {
	EnergyKWh  decimal.Decimal `json:"energyKwh"`
	RatePerKWh decimal.Decimal `json:"ratePerKwh"`
	Cost       decimal.Decimal `json:"cost"`
}

// Estimate is a projected consumption over a run-time assumption.
type Estimate struct {
	Cost
	AssumedPowerW float64 `json:"assumedPowerW"`
	Hours         float64 `json:"hours"`
}

// Aggregator combines stored measurements and sessions with the rate
// resolver to produce per-device, per-category and monthly cost figures.
type Aggregator struct {
	store store.Store
	rates *Rates
}

// NewAggregator creates a new billing aggregator.
func NewAggregator(s store.Store, rates *Rates) *Aggregator {
	return &Aggregator{store: s, rates: rates}
}

// MonthWindow returns the [first-of-month, first-of-next-month) interval in
// the given location.
func MonthWindow(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

func (a *Aggregator) priced(ctx context.Context, category string, energy decimal.Decimal) (Cost, error) {
	rate, err := a.rates.RateForCategory(ctx, category)
	if err != nil {
		return Cost{}, err
	}
	return Cost{
		EnergyKWh:  energy,
		RatePerKWh: rate,
		Cost:       energy.Mul(rate).Round(2),
	}, nil
}

// CostForDevice bills a device over an arbitrary [from, to) window using the
// strict counter-delta accumulation.
func (a *Aggregator) CostForDevice(ctx context.Context, deviceID int64, from, to time.Time) (Cost, error) {
	device, err := a.store.GetDevice(ctx, deviceID)
	if err != nil {
		return Cost{}, err
	}
	readings, err := a.store.ListEnergyReadings(ctx, deviceID, from, to)
	if err != nil {
		return Cost{}, err
	}
	return a.priced(ctx, device.Category, SumCounterDeltas(readings))
}

// MonthlyEnergyForDevice accumulates a device's counter deltas over a
// calendar month with the wide-tolerance variant.
func (a *Aggregator) MonthlyEnergyForDevice(ctx context.Context, deviceID int64, year int, month time.Month, loc *time.Location) (decimal.Decimal, error) {
	from, to := MonthWindow(year, month, loc)
	readings, err := a.store.ListEnergyReadings(ctx, deviceID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return SumCounterDeltasMonthly(readings), nil
}

// CostForDeviceMonth bills a device for one calendar month.
func (a *Aggregator) CostForDeviceMonth(ctx context.Context, deviceID int64, year int, month time.Month, loc *time.Location) (Cost, error) {
	device, err := a.store.GetDevice(ctx, deviceID)
	if err != nil {
		return Cost{}, err
	}
	energy, err := a.MonthlyEnergyForDevice(ctx, deviceID, year, month, loc)
	if err != nil {
		return Cost{}, err
	}
	return a.priced(ctx, device.Category, energy)
}

// CostPerCategory sums each category's monthly device costs. Categories with
// no devices are absent from the result, not zero-valued. Devices with an
// empty category are skipped; they are priced individually via the default
// rate elsewhere.
func (a *Aggregator) CostPerCategory(ctx context.Context, year int, month time.Month, loc *time.Location) (map[string]decimal.Decimal, error) {
	devices, err := a.store.ListDevices(ctx, "")
	if err != nil {
		return nil, err
	}

	result := make(map[string]decimal.Decimal)
	for _, device := range devices {
		if device.Category == "" {
			continue
		}
		energy, err := a.MonthlyEnergyForDevice(ctx, device.ID, year, month, loc)
		if err != nil {
			return nil, err
		}
		rate, err := a.rates.RateForCategory(ctx, device.Category)
		if err != nil {
			return nil, err
		}
		cost := energy.Mul(rate)
		if existing, ok := result[device.Category]; ok {
			result[device.Category] = existing.Add(cost)
		} else {
			result[device.Category] = cost
		}
	}

	for cat, total := range result {
		result[cat] = total.Round(2)
	}
	return result, nil
}

// EstimateOverHours projects a device's energy and cost over the given
// number of run hours. The assumed power is the rated power when set,
// otherwise the average observed power over the trailing 7 days.
func (a *Aggregator) EstimateOverHours(ctx context.Context, deviceID int64, hours float64) (Estimate, error) {
	if hours <= 0 {
		return Estimate{}, ErrInvalidEstimate
	}

	device, err := a.store.GetDevice(ctx, deviceID)
	if err != nil {
		return Estimate{}, err
	}

	var powerW float64
	switch {
	case device.RatedPowerW != nil:
		powerW = *device.RatedPowerW
	default:
		avg, err := a.store.AveragePowerSince(ctx, deviceID, time.Now().Add(-trailingPowerWindow))
		if err != nil {
			return Estimate{}, err
		}
		if avg == nil {
			return Estimate{}, ErrNoPowerData
		}
		powerW = *avg
	}

	energy := decimal.NewFromFloat(powerW / 1000.0 * hours).Round(3)
	cost, err := a.priced(ctx, device.Category, energy)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{Cost: cost, AssumedPowerW: powerW, Hours: hours}, nil
}

// LightingEnergyForDevice converts a device's completed session time within
// a month into energy using its rated power. Devices without a rated power
// contribute zero, not an error.
func (a *Aggregator) LightingEnergyForDevice(ctx context.Context, deviceID int64, year int, month time.Month, loc *time.Location) (decimal.Decimal, error) {
	device, err := a.store.GetDevice(ctx, deviceID)
	if err != nil {
		return decimal.Zero, err
	}
	if device.RatedPowerW == nil {
		return decimal.Zero, nil
	}

	from, to := MonthWindow(year, month, loc)
	usages, err := a.store.ListLightingUsage(ctx, deviceID, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	var totalSeconds int64
	for _, u := range usages {
		totalSeconds += u.DurationSeconds
	}

	hours := float64(totalSeconds) / 3600.0
	kwh := *device.RatedPowerW / 1000.0 * hours
	return decimal.NewFromFloat(kwh).Round(3), nil
}

// LightingCostForDevice prices a lighting device's monthly session time.
func (a *Aggregator) LightingCostForDevice(ctx context.Context, deviceID int64, year int, month time.Month, loc *time.Location) (Cost, error) {
	device, err := a.store.GetDevice(ctx, deviceID)
	if err != nil {
		return Cost{}, err
	}
	energy, err := a.LightingEnergyForDevice(ctx, deviceID, year, month, loc)
	if err != nil {
		return Cost{}, err
	}
	return a.priced(ctx, device.Category, energy)
}

// AdditionalEstimate is a what-if projection for an unpolled device.
type AdditionalEstimate struct {
	Cost
	DeviceID    int64   `json:"deviceId"`
	Mode        string  `json:"mode"`
	Hours       float64 `json:"hours"`
	RatedPowerW float64 `json:"ratedPowerW"`
}

// EstimateAdditionalDevice projects energy and cost for an additional
// device either over explicit hours or over days x avgHoursPerDay.
func (a *Aggregator) EstimateAdditionalDevice(ctx context.Context, id int64, hours *float64, days *int, avgHoursPerDay *float64) (AdditionalEstimate, error) {
	if hours == nil && (days == nil || avgHoursPerDay == nil) {
		return AdditionalEstimate{}, ErrInvalidEstimate
	}

	device, err := a.store.GetAdditionalDevice(ctx, id)
	if err != nil {
		return AdditionalEstimate{}, err
	}
	if device.RatedPowerW == nil {
		return AdditionalEstimate{}, ErrNoPowerData
	}

	var totalHours float64
	var mode string
	if hours != nil {
		totalHours = *hours
		mode = "HOURS"
	} else {
		totalHours = float64(*days) * *avgHoursPerDay
		mode = "DAYS_AVG_PER_DAY"
	}
	if totalHours <= 0 {
		return AdditionalEstimate{}, ErrInvalidEstimate
	}

	energy := decimal.NewFromFloat(*device.RatedPowerW / 1000.0 * totalHours).Round(3)
	cost, err := a.priced(ctx, device.Category, energy)
	if err != nil {
		return AdditionalEstimate{}, err
	}
	return AdditionalEstimate{
		Cost:        cost,
		DeviceID:    id,
		Mode:        mode,
		Hours:       totalHours,
		RatedPowerW: *device.RatedPowerW,
	}, nil
}
