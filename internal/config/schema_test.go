package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"itrack-report/internal/jira"
	"itrack-report/internal/stats"
)

func writeSchema(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultSchema_MatchesConverterTable(t *testing.T) {
	s := DefaultSchema()

	if diff := cmp.Diff(jira.DefaultConverters(), s.Fields); diff != "" {
		t.Errorf("embedded fields differ from DefaultConverters (-want +got):\n%s", diff)
	}
	if s.InvestigationField != jira.DefaultInvestigationField {
		t.Errorf("InvestigationField = %q", s.InvestigationField)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("embedded schema invalid: %v", err)
	}
}

func TestLoadSchema_EmptyPath(t *testing.T) {
	s, err := LoadSchema("")
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	if diff := cmp.Diff(DefaultSchema(), s); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSchema_Overlay(t *testing.T) {
	path := writeSchema(t, "schema.yaml", `
closed_states: [Done, Verified]
issue_type:
  defect: [Problem]
columns:
  customfield_10021: component
fields:
  labels: { kind: identity }
  assignee: { kind: name, attr: displayName }
pqms:
  IT: Display-Alice
  MED: Medical-Bob
`)

	s, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}

	if diff := cmp.Diff([]string{"Done", "Verified"}, s.ClosedStates); diff != "" {
		t.Errorf("ClosedStates (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Problem"}, s.IssueType.Defect); diff != "" {
		t.Errorf("Defect (-want +got):\n%s", diff)
	}
	if len(s.IssueType.Change) == 0 {
		t.Error("change types lost when not overridden")
	}
	if s.Column("customfield_10021") != "component" || s.Column("resolutiondate") != "closuredate" {
		t.Errorf("columns not merged: %v", s.Columns)
	}
	if s.Fields["labels"].Kind != jira.KindIdentity {
		t.Errorf("labels converter = %+v", s.Fields["labels"])
	}
	if got := s.Fields["assignee"]; got.Attr != "displayName" || got.Case != jira.CaseNone {
		t.Errorf("assignee converter = %+v, want full replacement", got)
	}
	if s.Fields["status"].Kind != jira.KindName {
		t.Error("status converter lost in merge")
	}
	if s.PQMs["MED"] != "Medical-Bob" {
		t.Errorf("pqms = %v", s.PQMs)
	}

	js := s.JiraSchema()
	if diff := cmp.Diff([]string{"done", "verified"}, js.ClosedStates); diff != "" {
		t.Errorf("JiraSchema().ClosedStates (-want +got):\n%s", diff)
	}
	if js.InvestigationField != jira.DefaultInvestigationField {
		t.Errorf("InvestigationField = %q", js.InvestigationField)
	}

	opts := s.TableOptions()
	if opts.Columns["customfield_10021"] != "component" || len(opts.DateColumns) != len(s.DateColumns) {
		t.Errorf("TableOptions() = %+v", opts)
	}
}

func TestLoadSchema_JSON(t *testing.T) {
	path := writeSchema(t, "schema.json", `{"closed_states": ["Closed"], "pqms": {"IT": "Display-Alice"}}`)

	s, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	if s.PQMs["IT"] != "Display-Alice" || len(s.ClosedStates) != 1 {
		t.Errorf("unexpected schema %+v", s)
	}
}

func TestLoadSchema_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"UnknownKey", "closed_state: [done]\n", "field closed_state not found"},
		{"UnknownKind", "fields:\n  labels: { kind: csv }\n", `fields.labels: unknown converter kind "csv"`},
		{"UnknownCase", "fields:\n  labels: { kind: name, case: title }\n", `unknown converter case "title"`},
		{"InvestigationNotDate", "investigation_field: summary\n", `investigation_field "summary" must be a date field`},
		{"DuplicateDisplayName", "columns:\n  customfield_10021: severity\n", `display name "severity" already used`},
		{"NotYAML", "closed_states: [done\n", "decode schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSchema(writeSchema(t, "schema.yaml", tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSchema_EmptyFileKeepsDefaults(t *testing.T) {
	s, err := LoadSchema(writeSchema(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	if diff := cmp.Diff(DefaultSchema(), s); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSchema_StatsColumns(t *testing.T) {
	if diff := cmp.Diff(stats.DefaultColumns(), DefaultSchema().StatsColumns()); diff != "" {
		t.Errorf("default schema columns differ (-want +got):\n%s", diff)
	}

	s := DefaultSchema()
	s.InvestigationField = "customfield_10232"
	if got := s.StatsColumns().Investigated; got != "duedate" {
		t.Errorf("Investigated = %q, want duedate", got)
	}
}
