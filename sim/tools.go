package sim

// prioritizeTool picks the tool an employee should claim next. The
// employee's tool types are tried in ascending order; the first type with
// pending fetch work and a free tool wins, and within that type the last
// free tool in fleet order is taken. The cross-dock tool is always free.
// Returns nil when nothing can be started.
func prioritizeTool(e *Employee, fleet []*Tool, fq *FetchQueue) *Tool {
	for _, tt := range e.Tools {
		if !fq.HasType(tt) {
			continue
		}
		var pick *Tool
		for _, t := range fleet {
			if t.Type == tt && (t.Status == Available || t.IsCrossDock()) {
				pick = t
			}
		}
		if pick != nil {
			return pick
		}
	}
	return nil
}
