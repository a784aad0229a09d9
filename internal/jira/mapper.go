package jira

import (
	"fmt"
	"maps"
	"time"

	"itrack-report/internal/calendar"
)

// Derived columns added to every normalized issue.
const (
	FieldKey    = "key"
	FieldClosed = "closed"
	FieldDefect = "defect"
	FieldChange = "change"
	FieldAge    = "age"
	FieldIdle   = "idle"
)

// DefaultInvestigationField holds the date an issue was first investigated.
const DefaultInvestigationField = "customfield_10350"

// Issue is the flattened, type-coerced form of one raw issue.
// Fields holds the converted business fields; a field absent from the raw
// record is absent here, a field that failed conversion is present with a nil value.
type Issue struct {
	Key    string
	Fields map[string]any
	Closed bool
	Defect bool
	Change bool
	Age    int
	Idle   int
}

// Value returns the converted value of a business field.
func (i Issue) Value(field string) (any, bool) {
	v, ok := i.Fields[field]
	return v, ok
}

// Text returns a string field, or "" when absent or not a string.
func (i Issue) Text(field string) string {
	s, _ := i.Fields[field].(string)
	return s
}

// Date returns a date field, or false when absent or null.
func (i Issue) Date(field string) (time.Time, bool) {
	t, ok := i.Fields[field].(time.Time)
	return t, ok
}

// Flatten returns the issue as a single field -> value mapping, including the
// key and derived metadata columns.
func (i Issue) Flatten() map[string]any {
	out := make(map[string]any, len(i.Fields)+6)
	maps.Copy(out, i.Fields)
	out[FieldKey] = i.Key
	out[FieldClosed] = i.Closed
	out[FieldDefect] = i.Defect
	out[FieldChange] = i.Change
	out[FieldAge] = i.Age
	out[FieldIdle] = i.Idle
	return out
}

// Schema configures normalization. It is built once by the caller and passed
// to NewNormalizer.
type Schema struct {
	Converters         map[string]Converter
	ClosedStates       []string
	DefectTypes        []string
	ChangeTypes        []string
	InvestigationField string
}

// DefaultSchema returns the converter table with empty state/type sets.
func DefaultSchema() Schema {
	return Schema{
		Converters:         DefaultConverters(),
		InvestigationField: DefaultInvestigationField,
	}
}

// Validate checks every converter in the table.
func (s Schema) Validate() error {
	for field, c := range s.Converters {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
	}
	return nil
}

// Normalizer applies a Schema to raw issues. It holds no mutable state and is
// safe for concurrent use.
type Normalizer struct {
	converters    map[string]Converter
	closed        map[string]bool
	defect        map[string]bool
	change        map[string]bool
	investigation string
	now           func() time.Time
}

// NewNormalizer builds a Normalizer. now supplies "today" for the age and idle
// metrics; nil means time.Now.
func NewNormalizer(schema Schema, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	investigation := schema.InvestigationField
	if investigation == "" {
		investigation = DefaultInvestigationField
	}
	return &Normalizer{
		converters:    maps.Clone(schema.Converters),
		closed:        toSet(schema.ClosedStates),
		defect:        toSet(schema.DefectTypes),
		change:        toSet(schema.ChangeTypes),
		investigation: investigation,
		now:           now,
	}
}

// Normalize converts one raw issue. Fields without a registered converter are dropped.
func (n *Normalizer) Normalize(raw RawIssue) Issue {
	issue := Issue{
		Key:    raw.Key,
		Fields: make(map[string]any, len(n.converters)),
	}

	for field, value := range raw.Fields {
		c, ok := n.converters[field]
		if !ok {
			continue
		}
		issue.Fields[field] = c.Convert(value)
	}

	issue.Closed = n.closed[issue.Text("status")]
	issue.Defect = n.defect[issue.Text("issuetype")]
	issue.Change = n.change[issue.Text("issuetype")]

	today := calendar.Day(n.now())
	issue.Age = calendar.BusinessDays(dateOr(issue, "created", today), dateOr(issue, n.investigation, today))
	issue.Idle = calendar.BusinessDays(dateOr(issue, "updated", today), today)

	return issue
}

// dateOr substitutes fallback for a missing or null date, so an issue without
// created/updated dates ages zero days.
func dateOr(issue Issue, field string, fallback time.Time) time.Time {
	if t, ok := issue.Date(field); ok {
		return t
	}
	return fallback
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
