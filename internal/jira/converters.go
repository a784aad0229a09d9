package jira

import (
	"fmt"
	"strings"
)

// Kind selects how a Converter reads a raw field value.
type Kind string

const (
	// KindName reads one attribute ("name" unless Attr says otherwise) of an object.
	KindName Kind = "name"
	// KindChoice reads the attribute of an object, or of the first element of a
	// list of objects, and keeps its first space-separated token ("P1 - Blocker" -> "P1").
	KindChoice Kind = "choice"
	// KindIdentity passes the raw value through.
	KindIdentity Kind = "identity"
	// KindDate keeps the calendar date of a timestamp string.
	KindDate Kind = "date"
	// KindVersions joins the names of non-archived versions with ",".
	KindVersions Kind = "versions"
)

// Case is an optional case folding applied to string results.
type Case string

const (
	CaseNone  Case = ""
	CaseUpper Case = "upper"
	CaseLower Case = "lower"
)

// Converter describes how one raw field is normalized.
type Converter struct {
	Kind Kind   `yaml:"kind" json:"kind"`
	Attr string `yaml:"attr,omitempty" json:"attr,omitempty"`
	Case Case   `yaml:"case,omitempty" json:"case,omitempty"`
}

// DefaultConverters returns the standard iTrack field table.
func DefaultConverters() map[string]Converter {
	return map[string]Converter{
		"assignee":          {Kind: KindName, Case: CaseUpper},
		"summary":           {Kind: KindIdentity},
		"status":            {Kind: KindName, Case: CaseLower},
		"issuetype":         {Kind: KindName, Case: CaseLower},
		"project":           {Kind: KindName},
		"priority":          {Kind: KindChoice},
		"customfield_10002": {Kind: KindChoice, Attr: "value"},
		"customfield_10021": {Kind: KindName, Attr: "value"},
		"customfield_10232": {Kind: KindDate},
		"customfield_10350": {Kind: KindDate},
		"fixVersions":       {Kind: KindVersions},
		"versions":          {Kind: KindVersions},
		"created":           {Kind: KindDate},
		"resolutiondate":    {Kind: KindDate},
		"updated":           {Kind: KindDate},
		"reported":          {Kind: KindName, Case: CaseUpper},
	}
}

// Validate reports an unknown kind or case.
func (c Converter) Validate() error {
	switch c.Kind {
	case KindName, KindChoice, KindIdentity, KindDate, KindVersions:
	default:
		return fmt.Errorf("unknown converter kind %q", c.Kind)
	}
	switch c.Case {
	case CaseNone, CaseUpper, CaseLower:
	default:
		return fmt.Errorf("unknown converter case %q", c.Case)
	}
	return nil
}

// Convert normalizes raw. It never panics: a value of unexpected shape
// yields nil, or "" for KindVersions.
func (c Converter) Convert(raw any) any {
	switch c.Kind {
	case KindName:
		v, ok := attribute(raw, c.attr())
		if !ok {
			return nil
		}
		return c.fold(v)

	case KindChoice:
		target := raw
		if list, ok := raw.([]any); ok {
			if len(list) == 0 {
				return nil
			}
			target = list[0]
		}
		v, ok := attribute(target, c.attr())
		if !ok {
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return nil
		}
		first, _, _ := strings.Cut(s, " ")
		return c.fold(first)

	case KindIdentity:
		return raw

	case KindDate:
		if t, ok := ParseDate(raw); ok {
			return t
		}
		return nil

	case KindVersions:
		return joinVersions(raw)
	}
	return nil
}

func (c Converter) attr() string {
	if c.Attr == "" {
		return "name"
	}
	return c.Attr
}

// fold applies the case to strings. Other scalars pass only without a case;
// objects and lists never do.
func (c Converter) fold(v any) any {
	switch s := v.(type) {
	case string:
		switch c.Case {
		case CaseUpper:
			return strings.ToUpper(s)
		case CaseLower:
			return strings.ToLower(s)
		}
		return s
	case float64, bool:
		if c.Case == CaseNone {
			return v
		}
	}
	return nil
}

// attribute reads key from an object value. A missing key or a JSON null is absent.
func attribute(v any, key string) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	val, ok := m[key]
	if !ok || val == nil {
		return nil, false
	}
	return val, true
}

func joinVersions(raw any) string {
	list, ok := raw.([]any)
	if !ok {
		return ""
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if truthy(m["archived"]) {
			continue
		}
		if name, ok := m["name"].(string); ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

// truthy reports false for nil, false, zero, "" and empty collections.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}
