// Event handlers: the state machine behind each event kind.

package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warehouse-sim/whsim/sim/trace"
)

func (sim *Simulator) deliverShipment(s *Shipment) {
	for _, item := range s.ItemIDs() {
		qty := s.Items[item]
		sim.Warehouse.AddToSortArea(item, qty)
		sim.Metrics.ShippedUnits[item] += qty
	}
}

func (sim *Simulator) putAway() error {
	unplaced, err := placeSortArea(sim.Warehouse)
	if err != nil {
		return err
	}
	sim.Metrics.UnplacedUnits = unplaced
	if n := sumUnits(unplaced); n > 0 {
		logrus.Warnf("[%s] put-away: %d units of %d items found no storage cell",
			sim.Clock.Format(time.DateTime), n, len(unplaced))
	}
	return nil
}

// handleOrder serves an order whose item is fully on hand, defers it when a
// shipment within the lookahead window covers the shortfall, and otherwise
// gives it up as impossible.
func (sim *Simulator) handleOrder(o *Order, now time.Time) error {
	sim.Metrics.OrdersProcessed++
	item, need := o.Item()
	onHand := sim.Warehouse.OnHand(item)

	if need <= onHand {
		sim.removeFromWaitList(o.ID)
		entries, err := prioritizeLocations(sim.Warehouse, sim.toolStats, sim.rng.ForSubsystem(SubsystemShelf), o, item, need)
		if err != nil {
			return err
		}
		sim.FetchQ.Add(entries...)
		for _, e := range sim.Employees {
			if e.Status != Available {
				continue
			}
			if t := prioritizeTool(e, sim.Tools, sim.FetchQ); t != nil {
				sim.claimTool(e, t)
				if err := sim.createFetch(e, t, now); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if day, ok := sim.restockDate(item, need-onHand, o.ArrivalTime, now); ok {
		if sim.addToWaitList(o.ID) {
			sim.Metrics.ReturnedForRestock++
		}
		sim.Schedule(&OrderArrivedEvent{time: sim.cfg.Schedule.RestockRecheck.On(day), Order: o})
		return nil
	}
	sim.removeFromWaitList(o.ID)
	sim.Metrics.Impossible++
	return nil
}

// restockDate looks for shipments of item landing on the next calendar
// dates still inside the order's lookahead window. It returns the earliest
// such date when their total covers the shortfall.
func (sim *Simulator) restockDate(item, shortfall int, arrival, now time.Time) (time.Time, bool) {
	left := sim.cfg.Service.LookaheadDays - sim.Calendar.BusinessDaysBetween(arrival, now)
	if left <= 0 {
		return time.Time{}, false
	}
	window := make(map[time.Time]bool, left)
	for i := 0; i < left; i++ {
		window[dateOf(sim.Calendar.NextDay(now.AddDate(0, 0, i)))] = true
	}

	covered := 0
	var first time.Time
	for _, s := range sim.shipments {
		d := dateOf(s.ArrivalTime)
		if !window[d] {
			continue
		}
		q := s.Items[item]
		if q <= 0 {
			continue
		}
		covered += q
		if first.IsZero() || d.Before(first) {
			first = d
		}
	}
	if covered == 0 || covered < shortfall {
		return time.Time{}, false
	}
	return first, true
}

// claimTool makes the employee busy with t. The cross-dock tool is shared
// by every cross-dock employee: it never becomes busy and has no holder.
func (sim *Simulator) claimTool(e *Employee, t *Tool) {
	e.Status = Busy
	e.tool = t
	if t.IsCrossDock() {
		return
	}
	t.holder = e
	t.Status = Busy
}

// releaseTool detaches t from e and frees it.
func (sim *Simulator) releaseTool(e *Employee, t *Tool) {
	if e.tool == t {
		e.tool = nil
	}
	if t.IsCrossDock() {
		return
	}
	t.holder = nil
	t.Status = Available
}

// createFetch plans one trip for an employee holding t. When nothing fits
// the tool, both become available again; otherwise the trip is traced and
// its completion scheduled.
func (sim *Simulator) createFetch(e *Employee, t *Tool, now time.Time) error {
	picks := batchFetch(e, t, sim.FetchQ, sim.TaskQ)
	if len(picks) == 0 {
		sim.releaseTool(e, t)
		e.Status = Available
		return nil
	}
	tasks := sim.TaskQ.ForEmployee(e.ID)
	secs, aisles, err := tripSeconds(sim.Warehouse, t, sim.rng.ForSubsystem(SubsystemTravel), tasks)
	if err != nil {
		return err
	}
	sim.Trace.RecordFetchTask(trace.FetchTaskRecord{
		Time:        now,
		EmployeeID:  e.ID,
		ToolID:      t.ID,
		ToolType:    t.Type.String(),
		TaskSeconds: secs,
		ItemCount:   len(tasks),
		AisleCount:  aisles,
	})
	e.AddWorkHours(now.Weekday(), secs/3600)
	e.epoch++
	sim.Schedule(&FetchCompletedEvent{
		time:       now.Add(time.Duration(secs) * time.Second),
		Employee:   e,
		Tool:       t,
		assignment: assignment{epoch: e.epoch, issued: now},
	})
	return nil
}

// completeFetch settles a finished trip against its orders, then decides
// what the employee does next from the time of day.
func (sim *Simulator) completeFetch(e *Employee, t *Tool, now time.Time) error {
	for _, task := range sim.TaskQ.ForEmployee(e.ID) {
		o, ok := sim.Orders[task.OrderID]
		if !ok {
			return fmt.Errorf("order %d: %w", task.OrderID, ErrNotFound)
		}
		left, err := o.Deduct(task.Item, task.Units)
		if err != nil {
			return err
		}
		sim.Metrics.DeliveredUnits[task.Item] += task.Units
		if left == 0 && o.Fulfilled() {
			sim.fulfil(o, now)
		}
	}
	sim.TaskQ.RemoveEmployee(e.ID)

	h := sim.cfg.Hours
	hour := now.Hour()
	if sim.Calendar.IsShortDay(now) {
		if hour >= h.Start && hour <= h.ShortDayEnd {
			return sim.continueFetching(e, t, now)
		}
		return nil
	}
	if hour < h.Start || hour > h.End {
		return nil
	}
	if !e.Rested && hour > h.RestAfter {
		e.Rested = true
		sim.releaseTool(e, t)
		sim.startRest(e, now)
		return nil
	}
	return sim.continueFetching(e, t, now)
}

func (sim *Simulator) fulfil(o *Order, now time.Time) {
	delivered := now
	o.DeliveryTime = &delivered
	o.WaitingDays = sim.Calendar.BusinessDaysBetween(o.ArrivalTime, now)
	if o.WaitingDays > sim.cfg.Service.OnTimeDays {
		sim.Metrics.Late++
		return
	}
	sim.Metrics.recordOnTime(now)
}

// continueFetching keeps an employee working after a trip: another trip
// with the same tool if its type still has work, else a walk to the next
// best tool.
func (sim *Simulator) continueFetching(e *Employee, t *Tool, now time.Time) error {
	e.Status = Available
	if sim.FetchQ.HasType(t.Type) {
		sim.claimTool(e, t)
		return sim.createFetch(e, t, now)
	}
	sim.releaseTool(e, t)

	next := prioritizeTool(e, sim.Tools, sim.FetchQ)
	if next == nil {
		return nil
	}
	sim.claimTool(e, next)
	delay := math.Max(0, math.Trunc(sim.cfg.ToolTransfer.Sample(sim.rng.ForSubsystem(SubsystemTransfer))))
	e.epoch++
	sim.Schedule(&ToolTransferCompletedEvent{
		time:       now.Add(time.Duration(delay) * time.Second),
		Employee:   e,
		Tool:       next,
		assignment: assignment{epoch: e.epoch, issued: now},
	})
	return nil
}

// startRest sends an employee to rest. The employee is busy for
// the duration but holds no tool.
func (sim *Simulator) startRest(e *Employee, now time.Time) {
	e.Status = Busy
	e.epoch++
	sim.Schedule(&EmployeeRestEvent{
		time:       now.Add(sim.cfg.Hours.RestDuration),
		Employee:   e,
		assignment: assignment{epoch: e.epoch, issued: now},
	})
}

func (sim *Simulator) endRest(e *Employee, now time.Time) error {
	e.Status = Available
	t := prioritizeTool(e, sim.Tools, sim.FetchQ)
	if t == nil {
		return nil
	}
	sim.claimTool(e, t)
	return sim.createFetch(e, t, now)
}

// noonRollover rests every idle employee on normal days and re-arms itself
// for the next calendar day.
func (sim *Simulator) noonRollover(now time.Time) {
	if !sim.Calendar.IsShortDay(now) {
		for _, e := range sim.Employees {
			if e.IsCrossDock() || e.Status != Available {
				continue
			}
			e.Rested = true
			sim.startRest(e, now)
		}
	}
	sim.Schedule(&NoonRolloverEvent{time: sim.cfg.Hours.Noon.On(sim.Calendar.NextDay(now))})
}
