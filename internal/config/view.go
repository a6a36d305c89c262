package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/detarget/internal/core"
	"gopkg.in/yaml.v3"
)

// ViewFile overrides the table's default view. Every field is optional;
// zero values keep the built-in default.
//
//	title: Febreze Ads Campaign Detargeting (Male)
//	page_size: 50
//	sort:
//	  - {column: gender_male, dir: desc}
//	  - {column: impressions, dir: desc}
//	filters:
//	  - {column: gender_male, op: gte, value: "0.5"}
type ViewFile struct {
	Title    string       `yaml:"title"`
	PageSize int          `yaml:"page_size"`
	Sort     []SortEntry  `yaml:"sort"`
	Filters  []FilterItem `yaml:"filters"`

	// NoFilters clears the default filter instead of keeping it
	NoFilters bool `yaml:"no_filters"`
}

// SortEntry is one sort key of a ViewFile.
type SortEntry struct {
	Column string `yaml:"column"`
	Dir    string `yaml:"dir"`
}

// FilterItem is one filter of a ViewFile.
type FilterItem struct {
	Column string `yaml:"column"`
	Op     string `yaml:"op"`
	Value  string `yaml:"value"`
}

// LoadViewFile reads and validates a YAML view file.
// An empty path returns (nil, nil).
func LoadViewFile(path string) (*ViewFile, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read view file: %w", err)
	}

	var vf ViewFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse view file %s: %w", path, err)
	}

	if err := vf.validate(); err != nil {
		return nil, fmt.Errorf("view file %s: %w", path, err)
	}
	return &vf, nil
}

func (vf *ViewFile) validate() error {
	var errs []error
	if vf.PageSize < 0 {
		errs = append(errs, fmt.Errorf("page_size (%d) must not be negative", vf.PageSize))
	}
	for i, s := range vf.Sort {
		if s.Column == "" {
			errs = append(errs, fmt.Errorf("sort[%d]: column is required", i))
		}
		if d := strings.ToLower(s.Dir); d != "" && d != "asc" && d != "desc" {
			errs = append(errs, fmt.Errorf("sort[%d]: dir %q must be asc or desc", i, s.Dir))
		}
	}
	for i, f := range vf.Filters {
		if f.Column == "" || f.Op == "" {
			errs = append(errs, fmt.Errorf("filters[%d]: column and op are required", i))
		}
	}
	if vf.NoFilters && len(vf.Filters) > 0 {
		errs = append(errs, errors.New("no_filters and filters are mutually exclusive"))
	}
	return errors.Join(errs...)
}

// ApplyTo overlays the file on a table's built-in default view.
func (vf *ViewFile) ApplyTo(base core.ViewState) core.ViewState {
	out := base
	if vf.PageSize > 0 {
		out.PageSize = vf.PageSize
	}
	if len(vf.Sort) > 0 {
		out.Sorts = make([]core.SortSpec, len(vf.Sort))
		for i, s := range vf.Sort {
			dir, ok := core.ParseSortDir(s.Dir)
			if !ok {
				dir = core.SortAsc
			}
			out.Sorts[i] = core.SortSpec{Column: s.Column, Dir: dir}
		}
	}
	switch {
	case vf.NoFilters:
		out.Filters = core.FilterSet{}
	case len(vf.Filters) > 0:
		filters := make([]core.ColumnFilter, len(vf.Filters))
		for i, f := range vf.Filters {
			filters[i] = core.ColumnFilter{
				Column:   f.Column,
				Operator: core.FilterOperator(strings.ToLower(f.Op)),
				Value:    f.Value,
			}
		}
		out.Filters = core.FilterSet{Filters: filters}
	}
	return out
}
