package sim

// batchFetch fills the tool for one trip. Starting from full capacity it
// repeatedly anchors on the fitting pick with the earliest order arrival,
// then sweeps the anchor's aisle for more picks that still fit. Same-aisle
// picks that no longer fit are skipped for the rest of this trip but stay
// queued. Picked entries move from fq to tq under the employee's id, in
// pick order.
func batchFetch(e *Employee, t *Tool, fq *FetchQueue, tq *TaskQueue) []*FetchEntry {
	t.LeftCapacity = t.Capacity
	candidates := fq.OfType(t.Type)
	var picked []*FetchEntry

	take := func(fe *FetchEntry) {
		fq.Remove(fe)
		tq.Add(TaskEntry{
			EmployeeID: e.ID,
			OrderID:    fe.OrderID,
			Location:   fe.Location,
			Aisle:      fe.Aisle,
			Item:       fe.Item,
			Units:      fe.Units,
			FetchTime:  fe.FetchTime,
		})
		t.LeftCapacity -= fe.Volume
		picked = append(picked, fe)
	}

	for {
		fits := candidates[:0:0]
		for _, c := range candidates {
			if c.Volume <= t.LeftCapacity {
				fits = append(fits, c)
			}
		}
		if len(fits) == 0 {
			break
		}

		anchor := 0
		for i := 1; i < len(fits); i++ {
			if fits[i].OrderArrival.Before(fits[anchor].OrderArrival) {
				anchor = i
			}
		}
		a := fits[anchor]
		take(a)

		var rest []*FetchEntry
		for i, c := range fits {
			if i == anchor {
				continue
			}
			if c.Aisle != a.Aisle {
				rest = append(rest, c)
				continue
			}
			if c.Volume <= t.LeftCapacity {
				take(c)
			}
		}
		candidates = rest
	}
	return picked
}
