package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/detarget/internal/core"
	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	return buf.String()
}

func TestErrorAlert(t *testing.T) {
	tests := []struct {
		name    string
		message string
		action  string
		code    string
		want    []string
		absent  []string
	}{
		{
			name:    "full",
			message: "Table <x> not found",
			action:  "Check the name",
			code:    "TBL001",
			want:    []string{"Table &lt;x&gt; not found", "Check the name", "Code: TBL001"},
		},
		{
			name:    "no action",
			message: "Oops",
			code:    "ERR000",
			want:    []string{"Oops", "ERR000"},
			absent:  []string{"alert-action"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, ErrorAlert(tt.message, tt.action, tt.code))
			for _, s := range tt.want {
				if !strings.Contains(got, s) {
					t.Errorf("output missing %q:\n%s", s, got)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(got, s) {
					t.Errorf("output should not contain %q", s)
				}
			}
		})
	}
}

func TestTablePage(t *testing.T) {
	data := TablePageData{
		Title:    `Scores & "more"`,
		TableKey: "scores",
		Columns: []ColumnView{
			{Key: "id", Label: "Video", Width: 300, Sortable: true, SortHref: "/?sort=id&dir=desc"},
			{Key: "gender_male", Label: "Score", Width: 200, Numeric: true, Sortable: true, SortDir: core.SortDesc, SortRank: 1, SortHref: "javascript:alert(1)"},
		},
		Rows: []RowView{{Key: "abc", Cells: []CellView{
			{Render: core.RenderVideo, Text: "abc", EmbedURL: "https://www.youtube.com/embed/abc"},
			{Render: core.RenderText, Text: "0.50", Numeric: true},
			{Render: core.RenderWrapped, Text: `a<b & "c"`},
		}}},
		Pager: PagerData{
			Page: 1, TotalPages: 1, FirstRow: 1, LastRow: 1, Filtered: 1, Total: 3,
			PageSizes: []PageSizeLink{{Size: 10, Href: "/?size=10"}, {Size: 25, Active: true}},
		},
		ResetHref:  "/",
		ExportHref: "/api/export/scores",
	}

	got := render(t, TablePage(data))

	for _, s := range []string{
		"<title>Scores &amp; &#34;more&#34;</title>",
		`<col width="300">`,
		`aria-sort="descending"`,
		`src="https://www.youtube.com/embed/abc"`,
		`width="380"`,
		`height="220"`,
		"1–1 of 1 (filtered from 3)",
		`<strong class="size-active">25</strong>`,
		`href="/?sort=id&amp;dir=desc"`,
		`<td class="wrap">a&lt;b &amp; &#34;c&#34;</td>`,
		`<td class="num">0.50</td>`,
	} {
		if !strings.Contains(got, s) {
			t.Errorf("output missing %q", s)
		}
	}
	if strings.Contains(got, "javascript:") {
		t.Error("unsafe href was not sanitized")
	}
	if strings.Contains(got, "http-equiv") {
		t.Error("ready page should not refresh")
	}
	if strings.Contains(got, "<form") {
		t.Error("no filter form expected without filter data")
	}
}

func TestTablePage_Empty(t *testing.T) {
	got := render(t, TablePage(TablePageData{
		Title:   "Scores",
		Loading: true,
		Columns: []ColumnView{{Key: "id", Label: "Video"}},
		Pager:   PagerData{Page: 1, TotalPages: 1},
	}))

	for _, s := range []string{`content="2"`, "Loading data", "No rows", "0 rows", `colspan="1"`} {
		if !strings.Contains(got, s) {
			t.Errorf("output missing %q", s)
		}
	}
}
