package core

// FilterRecords returns the records passing every filter, in input order.
// Filters with an empty value are skipped. Unknown columns and operators
// are skipped too; callers validate views with NormalizeView first.
func FilterRecords(records []Record, def TableDefinition, filters FilterSet) []Record {
	type active struct {
		key  string
		pred Predicate
	}

	var preds []active
	for _, f := range filters.Filters {
		col, ok := def.Column(f.Column)
		if !ok {
			continue
		}
		op, ok := col.Operator(f.Operator)
		if !ok || op.Build == nil {
			continue
		}
		if p := op.Build(f.Value); p != nil {
			preds = append(preds, active{key: col.Key, pred: p})
		}
	}

	if len(preds) == 0 {
		return records
	}

	out := make([]Record, 0, len(records))
	for i := range records {
		keep := true
		for _, p := range preds {
			if !p.pred(records[i].Field(p.key)) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, records[i])
		}
	}
	return out
}
