// Package core provides the domain logic of the detargeting dashboard.
//
// It has no UI dependencies: the web package renders what core computes,
// and tests exercise sorting and filtering without any rendering engine.
//
// # Data flow
//
// A [Loader] fetches the scores resource once at startup through a
// [Fetcher], parses it with [ParseRecords] and hands the [Dataset] to the
// [Service], which swaps it in atomically. Until then the Service serves
// an empty dataset. A failed load also yields an empty dataset; nothing is
// retried.
//
// # Tables
//
// A [TableDefinition] is pure configuration: columns with labels, widths,
// comparators, filter operators and formatters, plus the default view.
// Definitions are registered at init time with [Register]:
//
//	core.Register(core.TableDefinition{
//	    Info:    core.TableInfo{Key: "detargeting", Label: "Detargeting"},
//	    Columns: []core.Column{...},
//	    Default: core.ViewState{PageSize: 25},
//	})
//
// [Service.Query] applies a [ViewState] to the snapshot: filter, then a
// stable multi-key sort, then a page slice.
//
// # Numbers
//
// gender_male and impressions are coerced with [ToNumber]. Empty or
// unparseable cells become NaN, which is distinct from zero: NaN never
// passes a threshold filter and always sorts after every number.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages with [MapError];
// each message carries a code (SRC, FILE, TBL, REC, VIEW, RATE, UPL,
// ERR) listed in error_messages.go.
package core
