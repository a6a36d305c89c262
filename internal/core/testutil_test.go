package core

import (
	"math"
	"testing"
)

const testKey = "scores"

var nan = math.NaN()

// scoresTable mirrors the production detargeting definition without
// importing the tables package.
func scoresTable() TableDefinition {
	descFirst := []SortDir{SortDesc, SortAsc}
	return TableDefinition{
		Info: TableInfo{Key: testKey, Label: "Scores", Title: "Scores"},
		Columns: []Column{
			{Key: ColID, Label: "Video", Width: 300, Sortable: true, SortingOrder: descFirst, Render: RenderVideo},
			{
				Key: ColGenderMale, Label: "Detargeting Score", Width: 200, Type: FieldNumeric,
				Sortable: true, SortingOrder: descFirst, Compare: CompareScoreThenImpressions,
				Operators: []FilterOperatorDef{
					NumericThreshold(OpGreaterEq, "Greater than or equal to", ">=",
						func(c, t float64) bool { return c >= t }),
					NumericThreshold(OpLess, "Less than", "<",
						func(c, t float64) bool { return c < t }),
				},
				Format: FormatFixed2,
			},
			{Key: ColImpressions, Label: "Impressions", Width: 200, Type: FieldNumeric, Sortable: true, SortingOrder: descFirst, Format: FormatRaw},
			{Key: ColReason, Label: "Reason", Width: 400, Sortable: true, SortingOrder: descFirst, Render: RenderWrapped},
		},
		Default: ViewState{
			Sorts: []SortSpec{
				{Column: ColGenderMale, Dir: SortDesc},
				{Column: ColImpressions, Dir: SortDesc},
			},
			Filters: FilterSet{Filters: []ColumnFilter{
				{Column: ColGenderMale, Operator: OpGreaterEq, Value: "0.4"},
			}},
			Page:     1,
			PageSize: 25,
		},
		PageSizes: []int{10, 25, 50, 100},
	}
}

// registerScores registers scoresTable for the duration of the test.
func registerScores(t *testing.T) TableDefinition {
	t.Helper()
	Clear()
	def := scoresTable()
	Register(def)
	t.Cleanup(Clear)
	return def
}

func rec(id string, score, impressions float64) Record {
	return Record{ID: id, GenderMale: score, Impressions: impressions}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// serviceWith returns a Service already holding records.
func serviceWith(records ...Record) *Service {
	s := NewService("test")
	s.snapshot.Store(&Dataset{Source: "test", Records: records})
	return s
}
