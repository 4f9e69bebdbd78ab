// Package refdata loads the warehouse reference tables from a directory of
// CSV files and maps their natural keys to the integer ids the engine uses.
package refdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warehouse-sim/whsim/sim"
)

// File names expected under a data directory.
const (
	DatesFile        = "dates.csv"
	CellsFile        = "cells.csv"
	PositionsFile    = "positions.csv"
	ItemsFile        = "items.csv"
	ShipmentsFile    = "shipments.csv"
	OrdersFile       = "orders.csv"
	ToolSpeedsFile   = "fetch_tools_speeds_mean_and_std.csv"
	ToolCapacityFile = "tool_capacity.csv"
)

// Options controls loading.
type Options struct {
	// MaxDate drops calendar dates, shipments and orders at or after it.
	// Zero keeps everything.
	MaxDate time.Time
}

// Dataset is the loaded reference data plus the key mappings used to build it.
type Dataset struct {
	Ref       *sim.ReferenceData
	Locations *Interner
	Items     *Interner
	Zones     *Interner
}

// Load reads every reference table from dir, interns natural keys and
// validates the joins between tables.
func Load(dir string, opts Options) (*Dataset, error) {
	ds := &Dataset{Ref: &sim.ReferenceData{}}

	cells, err := readTable(dir, CellsFile, "location", "aisle", "cell_attractiveness", "fetch_tool",
		"putaway_zone", "available_volume", "distance_from_io_to_aisle")
	if err != nil {
		return nil, err
	}
	items, err := readTable(dir, ItemsFile, "uuid", "putaway_zone", "item_volume", "item_attractiveness", "initial_stock")
	if err != nil {
		return nil, err
	}

	var locKeys, itemKeys, zoneKeys []string
	for i := range cells.rows {
		locKeys = append(locKeys, cells.str(i, "location"))
		zoneKeys = append(zoneKeys, cells.str(i, "putaway_zone"))
	}
	for i := range items.rows {
		itemKeys = append(itemKeys, items.str(i, "uuid"))
		zoneKeys = append(zoneKeys, items.str(i, "putaway_zone"))
	}
	ds.Locations = newInterner(locKeys)
	ds.Items = newInterner(itemKeys)
	ds.Zones = newInterner(zoneKeys)

	if ds.Ref.Calendar, err = loadDates(dir, opts); err != nil {
		return nil, err
	}
	if ds.Ref.Cells, err = ds.parseCells(cells); err != nil {
		return nil, err
	}
	if ds.Ref.Items, err = ds.parseItems(items); err != nil {
		return nil, err
	}
	if ds.Ref.Positions, err = ds.loadPositions(dir); err != nil {
		return nil, err
	}
	if ds.Ref.Shipments, err = ds.loadShipments(dir, opts); err != nil {
		return nil, err
	}
	if ds.Ref.Orders, err = ds.loadOrders(dir, opts); err != nil {
		return nil, err
	}
	if ds.Ref.ToolStats, err = loadToolStats(dir); err != nil {
		return nil, err
	}

	if err := ds.Ref.Validate(); err != nil {
		return nil, fmt.Errorf("validating reference data in %s: %w", dir, err)
	}
	logrus.Infof("Loaded reference data from %s: %d dates, %d cells, %d positions, %d items, %d shipments, %d orders",
		dir, len(ds.Ref.Calendar), len(ds.Ref.Cells), len(ds.Ref.Positions), len(ds.Ref.Items),
		len(ds.Ref.Shipments), len(ds.Ref.Orders))
	return ds, nil
}

func before(t, max time.Time) bool { return max.IsZero() || t.Before(max) }

func loadDates(dir string, opts Options) ([]sim.CalendarDay, error) {
	t, err := readTable(dir, DatesFile, "date")
	if err != nil {
		return nil, err
	}
	var days []sim.CalendarDay
	for i := range t.rows {
		d, err := t.timestamp(i, "date")
		if err != nil {
			return nil, err
		}
		short, err := t.boolean(i, "short_day")
		if err != nil {
			return nil, err
		}
		if before(d, opts.MaxDate) {
			days = append(days, sim.CalendarDay{Date: d, ShortDay: short})
		}
	}
	return days, nil
}

func (ds *Dataset) zone(t *table, i int) (int, error) {
	z, ok := ds.Zones.ID(t.str(i, "putaway_zone"))
	if !ok {
		return 0, t.errAt(i, "putaway_zone", fmt.Errorf("unknown zone: %w", sim.ErrNotFound))
	}
	return z, nil
}

func (ds *Dataset) item(t *table, i int) (int, error) {
	id, ok := ds.Items.ID(t.str(i, "uuid"))
	if !ok {
		return 0, t.errAt(i, "uuid", fmt.Errorf("item %q not in %s: %w", t.str(i, "uuid"), ItemsFile, sim.ErrNotFound))
	}
	return id, nil
}

func (ds *Dataset) location(t *table, i int) (int, error) {
	id, ok := ds.Locations.ID(t.str(i, "location"))
	if !ok {
		return 0, t.errAt(i, "location", fmt.Errorf("location %q not in %s: %w", t.str(i, "location"), CellsFile, sim.ErrNotFound))
	}
	return id, nil
}

func toolType(t *table, i int) (sim.ToolType, error) {
	tt, err := sim.ParseToolType(t.str(i, "fetch_tool"))
	if err != nil {
		return 0, t.errAt(i, "fetch_tool", err)
	}
	return tt, nil
}

// parseCells returns the layout in location-id order. A cell without a
// max_volume column is assumed to be empty at start, so its capacity is its
// available volume.
func (ds *Dataset) parseCells(t *table) ([]sim.Cell, error) {
	out := make([]sim.Cell, 0, len(t.rows))
	for i := range t.rows {
		var c sim.Cell
		var err error
		if c.Location, err = ds.location(t, i); err != nil {
			return nil, err
		}
		if c.Aisle, err = t.integer(i, "aisle"); err != nil {
			return nil, err
		}
		if c.X, err = t.optionalFloat(i, "x_length"); err != nil {
			return nil, err
		}
		if c.Y, err = t.optionalFloat(i, "y_width"); err != nil {
			return nil, err
		}
		if c.Z, err = t.optionalFloat(i, "z_height"); err != nil {
			return nil, err
		}
		if c.Attractiveness, err = t.float(i, "cell_attractiveness"); err != nil {
			return nil, err
		}
		if c.ToolType, err = toolType(t, i); err != nil {
			return nil, err
		}
		if c.PutawayZone, err = ds.zone(t, i); err != nil {
			return nil, err
		}
		if c.AvailableVolume, err = t.float(i, "available_volume"); err != nil {
			return nil, err
		}
		c.Capacity = c.AvailableVolume
		if t.has("max_volume") {
			if c.Capacity, err = t.float(i, "max_volume"); err != nil {
				return nil, err
			}
		}
		if c.DistanceFromEntry, err = t.float(i, "distance_from_io_to_aisle"); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}

func (ds *Dataset) parseItems(t *table) ([]sim.Item, error) {
	out := make([]sim.Item, 0, len(t.rows))
	for i := range t.rows {
		var it sim.Item
		var err error
		if it.ID, err = ds.item(t, i); err != nil {
			return nil, err
		}
		if it.PutawayZone, err = ds.zone(t, i); err != nil {
			return nil, err
		}
		if it.Volume, err = t.float(i, "item_volume"); err != nil {
			return nil, err
		}
		if it.Attractiveness, err = t.float(i, "item_attractiveness"); err != nil {
			return nil, err
		}
		if it.InitialStock, err = t.integer(i, "initial_stock"); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (ds *Dataset) loadPositions(dir string) ([]sim.Position, error) {
	t, err := readTable(dir, PositionsFile, "location", "uuid", "quantity")
	if err != nil {
		return nil, err
	}
	out := make([]sim.Position, 0, len(t.rows))
	for i := range t.rows {
		var p sim.Position
		if p.Location, err = ds.location(t, i); err != nil {
			return nil, err
		}
		if p.Item, err = ds.item(t, i); err != nil {
			return nil, err
		}
		if p.Quantity, err = t.integer(i, "quantity"); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Item < out[j].Item
	})
	return out, nil
}

func (ds *Dataset) loadShipments(dir string, opts Options) ([]sim.ShipmentRow, error) {
	t, err := readTable(dir, ShipmentsFile, "date", "uuid", "quantity")
	if err != nil {
		return nil, err
	}
	var out []sim.ShipmentRow
	for i := range t.rows {
		var s sim.ShipmentRow
		if s.Date, err = t.timestamp(i, "date"); err != nil {
			return nil, err
		}
		if !before(s.Date, opts.MaxDate) {
			continue
		}
		if s.Item, err = ds.item(t, i); err != nil {
			return nil, err
		}
		if s.Quantity, err = t.integer(i, "quantity"); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Item < out[j].Item
	})
	return out, nil
}

// loadOrders sorts orders by (timestamp, item) and numbers them in that order.
func (ds *Dataset) loadOrders(dir string, opts Options) ([]sim.OrderRow, error) {
	t, err := readTable(dir, OrdersFile, "timestamp", "uuid", "quantity")
	if err != nil {
		return nil, err
	}
	var out []sim.OrderRow
	for i := range t.rows {
		var o sim.OrderRow
		if o.Timestamp, err = t.timestamp(i, "timestamp"); err != nil {
			return nil, err
		}
		if !before(o.Timestamp, opts.MaxDate) {
			continue
		}
		if o.Item, err = ds.item(t, i); err != nil {
			return nil, err
		}
		if o.Quantity, err = t.integer(i, "quantity"); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Item < out[j].Item
	})
	for i := range out {
		out[i].ID = i
	}
	return out, nil
}

func loadToolStats(dir string) (map[sim.ToolType]sim.ToolStats, error) {
	speeds, err := readTable(dir, ToolSpeedsFile, "fetch_tool",
		"horizontal_speed_mean", "horizontal_speed_std",
		"vertical_speed_mean", "vertical_speed_std",
		"remove_from_shelf_time_mean", "remove_from_shelf_time_std")
	if err != nil {
		return nil, err
	}
	caps, err := readTable(dir, ToolCapacityFile, "fetch_tool", "max_volume")
	if err != nil {
		return nil, err
	}

	stats := make(map[sim.ToolType]sim.ToolStats)
	for i := range speeds.rows {
		tt, err := toolType(speeds, i)
		if err != nil {
			return nil, err
		}
		var st sim.ToolStats
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{"horizontal_speed_mean", &st.HorizontalSpeed.Mean},
			{"horizontal_speed_std", &st.HorizontalSpeed.Std},
			{"vertical_speed_mean", &st.VerticalSpeed.Mean},
			{"vertical_speed_std", &st.VerticalSpeed.Std},
			{"remove_from_shelf_time_mean", &st.RemoveFromShelf.Mean},
			{"remove_from_shelf_time_std", &st.RemoveFromShelf.Std},
		} {
			if *f.dst, err = speeds.float(i, f.col); err != nil {
				return nil, err
			}
		}
		stats[tt] = st
	}
	for i := range caps.rows {
		tt, err := toolType(caps, i)
		if err != nil {
			return nil, err
		}
		st, ok := stats[tt]
		if !ok {
			return nil, caps.errAt(i, "fetch_tool", fmt.Errorf("no speeds for %s in %s: %w", tt, ToolSpeedsFile, sim.ErrNotFound))
		}
		if st.MaxVolume, err = caps.float(i, "max_volume"); err != nil {
			return nil, err
		}
		stats[tt] = st
	}
	return stats, nil
}
