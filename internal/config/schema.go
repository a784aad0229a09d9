package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"itrack-report/internal/jira"
	"itrack-report/internal/stats"
	"itrack-report/internal/table"
)

//go:embed defaults.yaml
var defaultSchema []byte

// IssueTypes groups the issue type names that drive the derived flags.
type IssueTypes struct {
	Defect []string `yaml:"defect"`
	Change []string `yaml:"change"`
}

// Schema is the field layout of an iTrack instance: which fields are kept,
// how they are converted, what they are called in reports.
type Schema struct {
	ClosedStates       []string                  `yaml:"closed_states"`
	IssueType          IssueTypes                `yaml:"issue_type"`
	InvestigationField string                    `yaml:"investigation_field"`
	Columns            map[string]string         `yaml:"columns"`
	DateColumns        []string                  `yaml:"date_columns"`
	Fields             map[string]jira.Converter `yaml:"fields"`
	PQMs               map[string]string         `yaml:"pqms"`
}

// DefaultSchema returns the embedded schema.
func DefaultSchema() Schema {
	s, err := decodeSchema(bytes.NewReader(defaultSchema))
	if err != nil {
		panic(fmt.Sprintf("embedded schema: %v", err))
	}
	return s
}

// LoadSchema returns the embedded schema, overlaid with the file at path when
// path is not empty. JSON files are accepted.
func LoadSchema(path string) (Schema, error) {
	base := DefaultSchema()
	if path == "" {
		return base, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Schema{}, fmt.Errorf("open schema file: %w", err)
	}
	defer f.Close()

	overlay, err := decodeSchema(f)
	if err != nil {
		return Schema{}, fmt.Errorf("schema file %s: %w", path, err)
	}

	merged := base.Merge(overlay)
	if err := merged.Validate(); err != nil {
		return Schema{}, fmt.Errorf("schema file %s: %w", path, err)
	}
	return merged, nil
}

func decodeSchema(r io.Reader) (Schema, error) {
	var s Schema
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Schema{}, fmt.Errorf("decode schema: %w", err)
	}
	return s, nil
}

// Merge lays overlay over s. Non-empty lists replace, maps merge key by key.
func (s Schema) Merge(overlay Schema) Schema {
	out := Schema{
		ClosedStates:       pick(overlay.ClosedStates, s.ClosedStates),
		IssueType:          IssueTypes{Defect: pick(overlay.IssueType.Defect, s.IssueType.Defect), Change: pick(overlay.IssueType.Change, s.IssueType.Change)},
		InvestigationField: s.InvestigationField,
		Columns:            mergeMaps(s.Columns, overlay.Columns),
		DateColumns:        pick(overlay.DateColumns, s.DateColumns),
		Fields:             mergeMaps(s.Fields, overlay.Fields),
		PQMs:               mergeMaps(s.PQMs, overlay.PQMs),
	}
	if overlay.InvestigationField != "" {
		out.InvestigationField = overlay.InvestigationField
	}
	return out
}

func pick(over, base []string) []string {
	if len(over) > 0 {
		return slices.Clone(over)
	}
	return slices.Clone(base)
}

func mergeMaps[V any](base, over map[string]V) map[string]V {
	out := make(map[string]V, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}

// Validate reports every inconsistency at once.
func (s Schema) Validate() error {
	var errs []string

	for _, field := range slices.Sorted(maps.Keys(s.Fields)) {
		if err := s.Fields[field].Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("fields.%s: %v", field, err))
		}
	}
	if s.InvestigationField != "" {
		if c, ok := s.Fields[s.InvestigationField]; !ok || c.Kind != jira.KindDate {
			errs = append(errs, fmt.Sprintf("investigation_field %q must be a date field", s.InvestigationField))
		}
	}
	for _, field := range []string{"status", "issuetype"} {
		if _, ok := s.Fields[field]; !ok {
			errs = append(errs, fmt.Sprintf("fields.%s is required", field))
		}
	}
	display := make(map[string]string)
	for _, field := range slices.Sorted(maps.Keys(s.Columns)) {
		name := s.Columns[field]
		if name == "" {
			errs = append(errs, fmt.Sprintf("columns.%s: empty display name", field))
			continue
		}
		if other, ok := display[name]; ok {
			errs = append(errs, fmt.Sprintf("columns.%s: display name %q already used by %s", field, name, other))
		}
		display[name] = field
	}

	if len(errs) > 0 {
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// JiraSchema returns the normalization settings. State and type names are
// lowered to match the case folding of the status and issuetype converters.
func (s Schema) JiraSchema() jira.Schema {
	return jira.Schema{
		Converters:         maps.Clone(s.Fields),
		ClosedStates:       lowerAll(s.ClosedStates),
		DefectTypes:        lowerAll(s.IssueType.Defect),
		ChangeTypes:        lowerAll(s.IssueType.Change),
		InvestigationField: s.InvestigationField,
	}
}

// TableOptions returns the assembly settings.
func (s Schema) TableOptions() table.Options {
	return table.Options{
		Columns:     maps.Clone(s.Columns),
		DateColumns: slices.Clone(s.DateColumns),
	}
}

// StatsColumns maps the report measures onto display names.
func (s Schema) StatsColumns() stats.Columns {
	investigated := s.InvestigationField
	if investigated == "" {
		investigated = jira.DefaultInvestigationField
	}
	return stats.Columns{
		Project:      s.Column("project"),
		Status:       s.Column("status"),
		Priority:     s.Column("priority"),
		Severity:     s.Column("customfield_10002"),
		Created:      s.Column("created"),
		Investigated: s.Column(investigated),
		Closed:       s.Column("resolutiondate"),
		Age:          s.Column(jira.FieldAge),
		Idle:         s.Column(jira.FieldIdle),
	}
}

// Column returns the display name of field.
func (s Schema) Column(field string) string {
	if name, ok := s.Columns[field]; ok && name != "" {
		return name
	}
	return field
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
