package sim

import (
	"fmt"
	"math"
)

// Warehouse holds the mutable stock state: cell free volume and the
// position rows. Rows are kept in insertion order, which is the encounter
// order every heuristic breaks ties with.
type Warehouse struct {
	cells        []*Cell
	byLocation   map[int]*Cell
	positions    []*Position
	items        map[int]Item
	sortLocation int

	// entry distance of each aisle, taken from its first cell in layout order
	aisleDistance map[int]float64
}

func newWarehouse(rd *ReferenceData) (*Warehouse, error) {
	sortLoc, err := rd.SortAreaLocation()
	if err != nil {
		return nil, err
	}
	w := &Warehouse{
		cells:         make([]*Cell, 0, len(rd.Cells)),
		byLocation:    make(map[int]*Cell, len(rd.Cells)),
		positions:     make([]*Position, 0, len(rd.Positions)),
		items:         make(map[int]Item, len(rd.Items)),
		sortLocation:  sortLoc,
		aisleDistance: make(map[int]float64),
	}
	for _, c := range rd.Cells {
		cell := c
		w.cells = append(w.cells, &cell)
		w.byLocation[cell.Location] = &cell
		if _, ok := w.aisleDistance[cell.Aisle]; !ok {
			w.aisleDistance[cell.Aisle] = cell.DistanceFromEntry
		}
	}
	for _, it := range rd.Items {
		w.items[it.ID] = it
	}
	for _, p := range rd.Positions {
		if _, ok := w.byLocation[p.Location]; !ok {
			return nil, fmt.Errorf("position location %d: %w", p.Location, ErrNotFound)
		}
		pos := p
		w.positions = append(w.positions, &pos)
	}
	return w, nil
}

// SortLocation returns the location of the sort (cross-dock) area.
func (w *Warehouse) SortLocation() int { return w.sortLocation }

// Cell returns the cell at loc.
func (w *Warehouse) Cell(loc int) (*Cell, error) {
	c, ok := w.byLocation[loc]
	if !ok {
		return nil, fmt.Errorf("cell %d: %w", loc, ErrNotFound)
	}
	return c, nil
}

// Item returns the catalog entry for id.
func (w *Warehouse) Item(id int) (Item, error) {
	it, ok := w.items[id]
	if !ok {
		return Item{}, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return it, nil
}

// AisleDistance returns the distance from the entry point to the aisle.
func (w *Warehouse) AisleDistance(aisle int) float64 { return w.aisleDistance[aisle] }

// OnHand returns the total quantity of item over all positions, sort area included.
func (w *Warehouse) OnHand(item int) int {
	total := 0
	for _, p := range w.positions {
		if p.Item == item {
			total += p.Quantity
		}
	}
	return total
}

// stockedPositions returns the rows holding a positive quantity of item.
func (w *Warehouse) stockedPositions(item int) []*Position {
	var out []*Position
	for _, p := range w.positions {
		if p.Item == item && p.Quantity > 0 {
			out = append(out, p)
		}
	}
	return out
}

func (w *Warehouse) position(loc, item int) *Position {
	for _, p := range w.positions {
		if p.Location == loc && p.Item == item {
			return p
		}
	}
	return nil
}

// holdsItem reports whether a row for item exists at loc, whatever its quantity.
func (w *Warehouse) holdsItem(loc, item int) bool {
	return w.position(loc, item) != nil
}

// AddToSortArea merges delivered units into the item's sort-area row.
func (w *Warehouse) AddToSortArea(item, qty int) {
	if p := w.position(w.sortLocation, item); p != nil {
		p.Quantity += qty
		return
	}
	w.positions = append(w.positions, &Position{Location: w.sortLocation, Item: item, Quantity: qty})
}

// sortAreaRows returns the sort-area rows in row order.
func (w *Warehouse) sortAreaRows() []*Position {
	var out []*Position
	for _, p := range w.positions {
		if p.Location == w.sortLocation {
			out = append(out, p)
		}
	}
	return out
}

// pruneSortArea drops zero-quantity rows at the sort location.
func (w *Warehouse) pruneSortArea() {
	kept := w.positions[:0]
	for _, p := range w.positions {
		if p.Location == w.sortLocation && p.Quantity == 0 {
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(w.positions); i++ {
		w.positions[i] = nil
	}
	w.positions = kept
}

// store adds qty units of item at loc, creating the row if needed.
func (w *Warehouse) store(loc, item, qty int) {
	if p := w.position(loc, item); p != nil {
		p.Quantity += qty
		return
	}
	w.positions = append(w.positions, &Position{Location: loc, Item: item, Quantity: qty})
}

// releaseVolume frees vol in the cell, never beyond its capacity.
func releaseVolume(c *Cell, vol float64) {
	c.AvailableVolume = math.Min(c.Capacity, c.AvailableVolume+vol)
}

// occupyVolume consumes vol in the cell, never below zero.
func occupyVolume(c *Cell, vol float64) {
	c.AvailableVolume = math.Max(0, c.AvailableVolume-vol)
}

// Positions returns a copy of the position rows.
func (w *Warehouse) Positions() []Position {
	out := make([]Position, len(w.positions))
	for i, p := range w.positions {
		out[i] = *p
	}
	return out
}

// Cells returns a copy of the cell table.
func (w *Warehouse) Cells() []Cell {
	out := make([]Cell, len(w.cells))
	for i, c := range w.cells {
		out[i] = *c
	}
	return out
}
