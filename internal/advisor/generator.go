// Package advisor evaluates threshold rules over monthly billing output and
// produces a prioritized list of usage advisories.
package advisor

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"home-energy-backend/internal/billing"
	"home-energy-backend/internal/model"
	"home-energy-backend/internal/store"
)

// Advice types and severities.
const (
	TypeGlobal = "GLOBAL"
	TypeDevice = "DEVICE"

	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"

	// Category codes as reported by the telemetry source.
	CategoryLighting = "dj"
	CategorySockets  = "cz"
)

var (
	lightingShareThreshold = decimal.NewFromFloat(0.30)
	socketsShareThreshold  = decimal.NewFromFloat(0.50)

	highDeviceCost   = decimal.NewFromInt(30)
	mediumDeviceCost = decimal.NewFromInt(15)
	minQuickWinSave  = decimal.NewFromInt(1)
)

// quickWinHours is roughly one hour per day over a month.
const quickWinHours = 30.0

// Advice is one advisory entry.
type Advice struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	DeviceID   *int64 `json:"deviceId,omitempty"`
	DeviceName string `json:"deviceName,omitempty"`
	Category   string `json:"category,omitempty"`
}

// Generator produces the monthly advisory list.
type Generator struct {
	store      store.Store
	aggregator *billing.Aggregator
}

// NewGenerator creates a new advisory generator.
func NewGenerator(s store.Store, aggregator *billing.Aggregator) *Generator {
	return &Generator{store: s, aggregator: aggregator}
}

type deviceCost struct {
	device model.Device
	cost   decimal.Decimal
}

// Generate evaluates all rules for the given month. One device's failing
// computation never aborts the run: the device is skipped and the remaining
// advisories are still produced.
func (g *Generator) Generate(ctx context.Context, year int, month time.Month, loc *time.Location) ([]Advice, error) {
	perCategory, err := g.aggregator.CostPerCategory(ctx, year, month, loc)
	if err != nil {
		return nil, err
	}

	devices, err := g.store.ListDevices(ctx, "")
	if err != nil {
		return nil, err
	}

	// Session-tracked lighting does not show up in counter-based category
	// totals; fold it in before computing shares.
	lightingExtra := g.lightingExtra(ctx, year, month, loc, devices)
	if lightingExtra.IsPositive() {
		perCategory[CategoryLighting] = perCategory[CategoryLighting].Add(lightingExtra)
	}

	totalCost := decimal.Zero
	for _, c := range perCategory {
		totalCost = totalCost.Add(c)
	}

	advices := []Advice{globalSummary(year, month, totalCost)}
	if a := lightingAdvice(perCategory, totalCost); a != nil {
		advices = append(advices, *a)
	}
	if a := socketsAdvice(perCategory, totalCost); a != nil {
		advices = append(advices, *a)
	}

	if len(devices) == 0 {
		return advices, nil
	}

	costs := g.deviceCosts(ctx, year, month, loc, devices)
	sort.SliceStable(costs, func(i, j int) bool {
		return costs[i].cost.GreaterThan(costs[j].cost)
	})

	for _, dc := range costs {
		if dc.cost.LessThan(mediumDeviceCost) {
			continue
		}
		advices = append(advices, deviceAdvice(dc))
		if quickWin := g.quickWinAdvice(ctx, dc.device); quickWin != nil {
			advices = append(advices, *quickWin)
		}
	}

	return advices, nil
}

// lightingExtra sums the session-based lighting costs across all lighting
// devices, swallowing per-device failures.
func (g *Generator) lightingExtra(ctx context.Context, year int, month time.Month, loc *time.Location, devices []model.Device) decimal.Decimal {
	total := decimal.Zero
	for _, d := range devices {
		if d.Category != CategoryLighting {
			continue
		}
		cost, err := g.aggregator.LightingCostForDevice(ctx, d.ID, year, month, loc)
		if err != nil {
			log.Printf("advisor: skipping lighting cost for device %d: %v", d.ID, err)
			continue
		}
		total = total.Add(cost.Cost)
	}
	return total
}

// deviceCosts bills every device for the month, lighting devices by session
// time and the rest by counter deltas. Failing devices are excluded.
func (g *Generator) deviceCosts(ctx context.Context, year int, month time.Month, loc *time.Location, devices []model.Device) []deviceCost {
	costs := make([]deviceCost, 0, len(devices))
	for _, d := range devices {
		var cost billing.Cost
		var err error
		if d.Category == CategoryLighting {
			cost, err = g.aggregator.LightingCostForDevice(ctx, d.ID, year, month, loc)
		} else {
			cost, err = g.aggregator.CostForDeviceMonth(ctx, d.ID, year, month, loc)
		}
		if err != nil {
			log.Printf("advisor: skipping device %d: %v", d.ID, err)
			continue
		}
		costs = append(costs, deviceCost{device: d, cost: cost.Cost})
	}
	return costs
}

func globalSummary(year int, month time.Month, totalCost decimal.Decimal) Advice {
	if totalCost.IsPositive() {
		return Advice{
			Type:     TypeGlobal,
			Severity: SeverityInfo,
			Title:    "Current month summary",
			Message: fmt.Sprintf(
				"Total energy cost of tracked devices in %d-%02d is about %s.",
				year, int(month), totalCost.Round(2).StringFixed(2),
			),
		}
	}
	return Advice{
		Type:     TypeGlobal,
		Severity: SeverityInfo,
		Title:    "No significant consumption yet",
		Message: "There is not enough cost data for this month yet. " +
			"Once the devices have run for longer, more concrete suggestions will appear here.",
	}
}

func lightingAdvice(perCategory map[string]decimal.Decimal, totalCost decimal.Decimal) *Advice {
	lightingCost := perCategory[CategoryLighting]
	if !totalCost.IsPositive() || !lightingCost.IsPositive() {
		return nil
	}

	share := safeShare(lightingCost, totalCost)
	percent := share.Mul(oneHundred).Round(0)

	if share.GreaterThanOrEqual(lightingShareThreshold) {
		return &Advice{
			Type:     TypeGlobal,
			Severity: SeverityWarning,
			Title:    "Lighting dominates the bill",
			Message: fmt.Sprintf(
				"Lighting makes up about %s%% of this month's bill. "+
					"Consider shorter on-times (e.g. automatic night shut-off), motion sensors, "+
					"or swapping bulbs for more efficient ones.",
				percent.String(),
			),
		}
	}
	return &Advice{
		Type:     TypeGlobal,
		Severity: SeverityInfo,
		Title:    "Lighting is in line",
		Message: fmt.Sprintf(
			"Lighting accounts for about %s%% of the bill; the lamps are not the main cost driver.",
			percent.String(),
		),
	}
}

func socketsAdvice(perCategory map[string]decimal.Decimal, totalCost decimal.Decimal) *Advice {
	socketsCost := perCategory[CategorySockets]
	if !totalCost.IsPositive() || !socketsCost.IsPositive() {
		return nil
	}

	share := safeShare(socketsCost, totalCost)
	if share.LessThan(socketsShareThreshold) {
		return nil
	}

	return &Advice{
		Type:     TypeGlobal,
		Severity: SeverityInfo,
		Title:    "Sockets generate most of the cost",
		Message: fmt.Sprintf(
			"Devices on metered sockets account for about %s%% of this month's bill. "+
				"Check whether any of them keeps running in standby unnecessarily.",
			share.Mul(oneHundred).Round(0).String(),
		),
	}
}

func deviceAdvice(dc deviceCost) Advice {
	d := dc.device
	name := d.Name
	if name == "" {
		name = fmt.Sprintf("Device %d", d.ID)
	}

	advice := Advice{
		Type:       TypeDevice,
		DeviceID:   &d.ID,
		DeviceName: name,
		Category:   d.Category,
	}

	costStr := dc.cost.Round(2).StringFixed(2)
	if dc.cost.GreaterThanOrEqual(highDeviceCost) {
		advice.Severity = SeverityCritical
		advice.Title = "Very high device cost"
		advice.Message = fmt.Sprintf(
			"%s has cost about %s this month, well above normal. "+
				"Consider limiting its run-time, scheduling automatic shut-off, "+
				"or replacing it with a more efficient model.",
			name, costStr,
		)
	} else {
		advice.Severity = SeverityWarning
		advice.Title = "Elevated device cost"
		advice.Message = fmt.Sprintf(
			"%s has generated a noticeable cost of about %s this month. "+
				"It may be worth checking whether it really needs to run that many hours a day.",
			name, costStr,
		)
	}

	if d.RatedPowerW == nil {
		advice.Message += " Its rated power is not set; providing it enables more precise estimates and advice."
	}
	return advice
}

// quickWinAdvice quantifies the saving from cutting roughly one hour of
// daily run-time. Estimation failures produce no advisory rather than an
// error.
func (g *Generator) quickWinAdvice(ctx context.Context, d model.Device) *Advice {
	estimate, err := g.aggregator.EstimateOverHours(ctx, d.ID, quickWinHours)
	if err != nil {
		return nil
	}
	if estimate.Cost.Cost.LessThan(minQuickWinSave) {
		return nil
	}

	name := d.Name
	if name == "" {
		name = fmt.Sprintf("Device %d", d.ID)
	}

	return &Advice{
		Type:       TypeDevice,
		Severity:   SeverityInfo,
		Title:      "Quick win: trim the run-time",
		DeviceID:   &d.ID,
		DeviceName: name,
		Category:   d.Category,
		Message: fmt.Sprintf(
			"Running %s about one hour less per day (~30 hours a month) would save roughly %s "+
				"per month without a big comfort change.",
			name, estimate.Cost.Cost.Round(2).StringFixed(2),
		),
	}
}

var oneHundred = decimal.NewFromInt(100)

func safeShare(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.DivRound(total, 2)
}
