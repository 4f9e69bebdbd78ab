package sim

import (
	"math"
	"sort"
)

// placeItem puts units of item away from the sort area into storage cells
// and returns how many were placed. Each round builds candidates from the
// non-sort cells with room for at least one unit, narrowed to the cells
// already holding the item, else to the item's putaway zone, else left
// whole. Cells with room for everything still to place are preferred; among
// the remaining candidates the most attractive (first in layout order on
// ties) receives as many units as fit. Placement stops early when no cell
// has room left.
func placeItem(w *Warehouse, it Item, units int) int {
	placed := 0
	for units > 0 {
		var free, holding, zone []*Cell
		for _, c := range w.cells {
			if c.Location == w.sortLocation || c.AvailableVolume < it.Volume {
				continue
			}
			free = append(free, c)
			if w.holdsItem(c.Location, it.ID) {
				holding = append(holding, c)
			}
			if c.PutawayZone == it.PutawayZone {
				zone = append(zone, c)
			}
		}
		candidates := free
		switch {
		case len(holding) > 0:
			candidates = holding
		case len(zone) > 0:
			candidates = zone
		}
		if len(candidates) == 0 {
			break
		}

		need := float64(units) * it.Volume
		var roomy []*Cell
		for _, c := range candidates {
			if c.AvailableVolume >= need {
				roomy = append(roomy, c)
			}
		}
		if len(roomy) > 0 {
			candidates = roomy
		}

		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.Attractiveness > best.Attractiveness {
				best = c
			}
		}
		n := min(units, int(math.Floor(best.AvailableVolume/it.Volume)))
		w.store(best.Location, it.ID, n)
		occupyVolume(best, float64(n)*it.Volume)
		units -= n
		placed += n
	}
	return placed
}

// placeSortArea puts away every sort-area row, most attractive item first,
// decrementing each row by what was placed and pruning emptied rows. It
// returns the units that found no cell, keyed by item.
func placeSortArea(w *Warehouse) (map[int]int, error) {
	type pending struct {
		pos  *Position
		item Item
	}
	var rows []pending
	for _, p := range w.sortAreaRows() {
		it, err := w.Item(p.Item)
		if err != nil {
			return nil, err
		}
		rows = append(rows, pending{pos: p, item: it})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].item.Attractiveness > rows[j].item.Attractiveness
	})

	unplaced := make(map[int]int)
	for _, r := range rows {
		if r.pos.Quantity <= 0 {
			continue
		}
		n := placeItem(w, r.item, r.pos.Quantity)
		r.pos.Quantity -= n
		if r.pos.Quantity > 0 {
			unplaced[r.item.ID] += r.pos.Quantity
		}
	}
	w.pruneSortArea()
	return unplaced, nil
}
