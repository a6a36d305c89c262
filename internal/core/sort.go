package core

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CompareScoreThenImpressions orders records by gender_male and breaks
// exact ties with impressions, lower first. The sort direction is applied
// to the whole result by SortRecords, so under a descending score sort the
// tie-break puts higher impressions first.
func CompareScoreThenImpressions(a, b *Record) int {
	if c := cmp.Compare(a.GenderMale, b.GenderMale); c != 0 {
		return c
	}
	return cmp.Compare(a.Impressions, b.Impressions)
}

// sortKey is a resolved SortSpec.
type sortKey struct {
	key     string
	numeric bool
	desc    bool
	compare func(a, b *Record) int
}

// SortRecords returns a stably sorted copy of records. Keys apply in
// order; a later key only decides when every earlier key ties.
//
// On numeric columns NaN cells sort after every number whatever the
// direction, and two NaN cells tie. Text columns without a comparator
// use a case-insensitive collation. Unknown columns are ignored; callers
// validate views with NormalizeView first.
func SortRecords(records []Record, def TableDefinition, sorts []SortSpec) []Record {
	out := slices.Clone(records)
	keys := resolveSortKeys(def, sorts)
	if len(keys) == 0 {
		return out
	}

	slices.SortStableFunc(out, func(a, b Record) int {
		for _, k := range keys {
			if c := k.apply(&a, &b); c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}

func (k sortKey) apply(a, b *Record) int {
	if k.numeric {
		aNaN := a.Field(k.key).IsNaN()
		bNaN := b.Field(k.key).IsNaN()
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return 1
		case bNaN:
			return -1
		}
	}

	c := k.compare(a, b)
	if k.desc {
		return -c
	}
	return c
}

func resolveSortKeys(def TableDefinition, sorts []SortSpec) []sortKey {
	var keys []sortKey
	var collator *collate.Collator

	for _, s := range sorts {
		col, ok := def.Column(s.Column)
		if !ok || !col.Sortable {
			continue
		}
		k := sortKey{
			key:     col.Key,
			numeric: col.Type == FieldNumeric,
			desc:    s.Dir == SortDesc,
			compare: col.Compare,
		}
		if k.compare == nil {
			key := col.Key
			if k.numeric {
				k.compare = func(a, b *Record) int {
					return cmp.Compare(a.Field(key).Float(), b.Field(key).Float())
				}
			} else {
				// Collators keep scratch buffers, so each sort gets its own.
				if collator == nil {
					collator = collate.New(language.Und, collate.IgnoreCase)
				}
				c := collator
				k.compare = func(a, b *Record) int {
					return c.CompareString(a.Field(key).String(), b.Field(key).String())
				}
			}
		}
		keys = append(keys, k)
	}
	return keys
}
