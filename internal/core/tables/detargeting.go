package tables

import "github.com/JonMunkholm/detarget/internal/core"

// DetargetingKey is the registry key of the detargeting scores table.
const DetargetingKey = "detargeting"

// DetargetingTitle is the default page heading.
const DetargetingTitle = "Febreze Ads Campaign Detargeting (Male)"

func init() {
	registerDetargeting()
}

func registerDetargeting() {
	descFirst := []core.SortDir{core.SortDesc, core.SortAsc}

	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   DetargetingKey,
			Label: "Detargeting",
			Title: DetargetingTitle,
		},
		Columns: []core.Column{
			{
				Key:          core.ColID,
				Label:        "Video",
				Width:        300,
				Type:         core.FieldText,
				Sortable:     true,
				SortingOrder: descFirst,
				Render:       core.RenderVideo,
			},
			{
				Key:          core.ColGenderMale,
				Label:        "Detargeting Score",
				Width:        200,
				Type:         core.FieldNumeric,
				Sortable:     true,
				SortingOrder: descFirst,
				Compare:      core.CompareScoreThenImpressions,
				Operators: []core.FilterOperatorDef{
					core.NumericThreshold(core.OpGreaterEq, "Greater than or equal to", ">=",
						func(cell, threshold float64) bool { return cell >= threshold }),
					core.NumericThreshold(core.OpLess, "Less than", "<",
						func(cell, threshold float64) bool { return cell < threshold }),
				},
				Format: core.FormatFixed2,
			},
			{
				Key:          core.ColImpressions,
				Label:        "Impressions",
				Width:        200,
				Type:         core.FieldNumeric,
				Sortable:     true,
				SortingOrder: descFirst,
				Format:       core.FormatRaw,
			},
			{
				Key:          core.ColReason,
				Label:        "Reason",
				Width:        400,
				Type:         core.FieldText,
				Sortable:     true,
				SortingOrder: descFirst,
				Render:       core.RenderWrapped,
			},
		},
		Default: core.ViewState{
			Sorts: []core.SortSpec{
				{Column: core.ColGenderMale, Dir: core.SortDesc},
				{Column: core.ColImpressions, Dir: core.SortDesc},
			},
			Filters: core.FilterSet{Filters: []core.ColumnFilter{
				{Column: core.ColGenderMale, Operator: core.OpGreaterEq, Value: "0.4"},
			}},
			Page:     1,
			PageSize: 25,
		},
		PageSizes: []int{10, 25, 50, 100},
	})
}
