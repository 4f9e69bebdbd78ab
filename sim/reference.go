package sim

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Cell is one storage location of the warehouse layout. Coordinates may be
// NaN when the layout does not define them.
type Cell struct {
	Location          int
	Aisle             int
	X, Y, Z           float64
	Attractiveness    float64
	ToolType          ToolType
	Capacity          float64
	PutawayZone       int
	DistanceFromEntry float64
	AvailableVolume   float64
}

// Position is one (location, item, quantity) stock row.
type Position struct {
	Location int
	Item     int
	Quantity int
}

// Item is one catalog entry.
type Item struct {
	ID             int
	PutawayZone    int
	Volume         float64 // per unit
	Attractiveness float64
	InitialStock   int
}

// ShipmentRow is one line of the supplier delivery timeline.
type ShipmentRow struct {
	Date     time.Time
	Item     int
	Quantity int
}

// OrderRow is one line of the customer order timeline.
type OrderRow struct {
	ID        int
	Timestamp time.Time
	Item      int
	Quantity  int
}

// ToolStats holds the per-tool-type speed, shelf-removal and capacity data.
type ToolStats struct {
	HorizontalSpeed NormalDist
	VerticalSpeed   NormalDist
	RemoveFromShelf NormalDist
	MaxVolume       float64
}

// ReferenceData is the immutable input of a simulation run. The core never
// mutates it: the simulator copies cells and positions into its own state.
type ReferenceData struct {
	Calendar  []CalendarDay
	Cells     []Cell
	Positions []Position
	Items     []Item
	Shipments []ShipmentRow // chronological
	Orders    []OrderRow    // chronological
	ToolStats map[ToolType]ToolStats
}

// SortAreaLocation returns the location of the first aisle-0 cell.
func (rd *ReferenceData) SortAreaLocation() (int, error) {
	for _, c := range rd.Cells {
		if c.Aisle == 0 {
			return c.Location, nil
		}
	}
	return 0, fmt.Errorf("sort area (aisle 0) cell: %w", ErrNotFound)
}

// Validate enforces the joins the simulation relies on, so that lookups in
// the core cannot fail on consistent input. All problems are reported.
func (rd *ReferenceData) Validate() error {
	var errs []error
	if len(rd.Calendar) == 0 {
		errs = append(errs, fmt.Errorf("calendar is empty: %w", ErrInvalidArgument))
	}

	cells := make(map[int]bool, len(rd.Cells))
	for _, c := range rd.Cells {
		if cells[c.Location] {
			errs = append(errs, fmt.Errorf("cell %d listed twice: %w", c.Location, ErrInvalidArgument))
		}
		cells[c.Location] = true
		if c.Capacity < 0 || c.AvailableVolume < 0 || c.AvailableVolume > c.Capacity {
			errs = append(errs, fmt.Errorf("cell %d: available volume %v outside [0, %v]: %w",
				c.Location, c.AvailableVolume, c.Capacity, ErrInvalidArgument))
		}
		if c.ToolType != CrossDock {
			if _, ok := rd.ToolStats[c.ToolType]; !ok {
				errs = append(errs, fmt.Errorf("tool statistics for %s (cell %d): %w", c.ToolType, c.Location, ErrNotFound))
			}
		}
	}
	if _, err := rd.SortAreaLocation(); err != nil {
		errs = append(errs, err)
	}

	items := make(map[int]bool, len(rd.Items))
	for _, it := range rd.Items {
		items[it.ID] = true
		if it.Volume <= 0 || math.IsNaN(it.Volume) {
			errs = append(errs, fmt.Errorf("item %d: unit volume %v: %w", it.ID, it.Volume, ErrInvalidArgument))
		}
	}

	for _, p := range rd.Positions {
		if !cells[p.Location] {
			errs = append(errs, fmt.Errorf("position location %d: %w", p.Location, ErrNotFound))
		}
		if !items[p.Item] {
			errs = append(errs, fmt.Errorf("position item %d: %w", p.Item, ErrNotFound))
		}
		if p.Quantity < 0 {
			errs = append(errs, fmt.Errorf("position (%d, %d): quantity %d: %w", p.Location, p.Item, p.Quantity, ErrInvalidArgument))
		}
	}
	for _, s := range rd.Shipments {
		if !items[s.Item] {
			errs = append(errs, fmt.Errorf("shipment item %d: %w", s.Item, ErrNotFound))
		}
		if s.Quantity < 0 {
			errs = append(errs, fmt.Errorf("shipment of item %d on %s: quantity %d: %w",
				s.Item, s.Date.Format(time.DateOnly), s.Quantity, ErrInvalidArgument))
		}
	}
	for _, o := range rd.Orders {
		if !items[o.Item] {
			errs = append(errs, fmt.Errorf("order %d item %d: %w", o.ID, o.Item, ErrNotFound))
		}
		if o.Quantity <= 0 {
			errs = append(errs, fmt.Errorf("order %d: quantity %d: %w", o.ID, o.Quantity, ErrInvalidArgument))
		}
	}
	for tt, st := range rd.ToolStats {
		if st.MaxVolume < 0 {
			errs = append(errs, fmt.Errorf("tool statistics for %s: max volume %v: %w", tt, st.MaxVolume, ErrInvalidArgument))
		}
	}
	return errors.Join(errs...)
}
