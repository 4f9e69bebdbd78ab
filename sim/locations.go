package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// prioritizeLocations reserves need units of item for order o, taking from
// the most attractive cells first. Every cell drawn from becomes one fetch
// entry; its stock is removed and its volume released immediately. Shelf
// times are drawn from rng in the order cells are consumed; cross-dock cells
// take no time and consume no draw.
//
// The caller guarantees that need does not exceed the item's on-hand stock.
func prioritizeLocations(w *Warehouse, stats map[ToolType]ToolStats, rng *rand.Rand, o *Order, item, need int) ([]*FetchEntry, error) {
	it, err := w.Item(item)
	if err != nil {
		return nil, err
	}

	type stocked struct {
		pos  *Position
		cell *Cell
	}
	var rows []stocked
	for _, p := range w.stockedPositions(item) {
		c, err := w.Cell(p.Location)
		if err != nil {
			return nil, err
		}
		rows = append(rows, stocked{pos: p, cell: c})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].cell.Attractiveness > rows[j].cell.Attractiveness
	})

	var entries []*FetchEntry
	remaining := need
	for _, r := range rows {
		if remaining == 0 {
			break
		}
		take := min(r.pos.Quantity, remaining)
		r.pos.Quantity -= take
		remaining -= take
		vol := float64(take) * it.Volume
		releaseVolume(r.cell, vol)

		fetchTime := 0.0
		if r.cell.ToolType != CrossDock {
			st, ok := stats[r.cell.ToolType]
			if !ok {
				return nil, fmt.Errorf("tool statistics for %s: %w", r.cell.ToolType, ErrNotFound)
			}
			fetchTime = math.Max(0, st.RemoveFromShelf.Sample(rng))
		}
		entries = append(entries, &FetchEntry{
			ToolType:       r.cell.ToolType,
			Location:       r.cell.Location,
			Aisle:          r.cell.Aisle,
			Attractiveness: r.cell.Attractiveness,
			OrderID:        o.ID,
			OrderArrival:   o.ArrivalTime,
			Item:           item,
			Units:          take,
			Volume:         vol,
			FetchTime:      fetchTime,
		})
	}
	if remaining > 0 {
		return entries, fmt.Errorf("order %d item %d: %d units short after reserving stock", o.ID, item, remaining)
	}
	return entries, nil
}
