package tools_test

import (
	"encoding/json"
	"testing"

	"github.com/petasbytes/localmind/internal/argnorm"
	"github.com/petasbytes/localmind/tools"
)

func TestRegistry_ToolNames(t *testing.T) {
	defs := tools.Registry(tools.Env{Host: &fakeHost{}})
	want := []string{
		"get_system_overview", "list_processes", "process_detail", "disk_usage",
		"network_activity", "startup_items", "find_files", "list_large_files",
		"wifi_info", "get_system_info", "list_scheduled_tasks",
	}
	if len(defs) != len(want) {
		t.Fatalf("unexpected number of tools: got %d want %d", len(defs), len(want))
	}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Errorf("tool %d: got %q want %q", i, d.Name, want[i])
		}
		if d.Handler == nil || d.InputSchema == nil {
			t.Errorf("tool %q is missing its handler or schema", d.Name)
		}
	}
}

func findParam(t *testing.T, defs []tools.ToolDefinition, tool, name string) argnorm.Param {
	t.Helper()
	for _, d := range defs {
		if d.Name != tool {
			continue
		}
		for _, p := range d.Params {
			if p.Name == name {
				return p
			}
		}
	}
	t.Fatalf("%s.%s not declared", tool, name)
	return argnorm.Param{}
}

func TestRegistry_ParamsDerivedFromSchema(t *testing.T) {
	defs := tools.Registry(tools.Env{Host: &fakeHost{}})

	topN := findParam(t, defs, "list_large_files", "top_n")
	if topN.Kind != argnorm.KindInteger || topN.Min == nil || *topN.Min != 1 || topN.Max == nil || *topN.Max != 200 || topN.Default != 20 || topN.Required {
		t.Fatalf("unexpected top_n param: %+v", topN)
	}

	roots := findParam(t, defs, "list_large_files", "roots")
	if roots.Kind != argnorm.KindPathList {
		t.Fatalf("roots should be a path list, got %v", roots.Kind)
	}

	query := findParam(t, defs, "find_files", "query")
	if !query.Required || query.Kind != argnorm.KindString {
		t.Fatalf("query should be a required string: %+v", query)
	}

	glob := findParam(t, defs, "find_files", "use_glob")
	if glob.Kind != argnorm.KindBoolean || glob.Default != true {
		t.Fatalf("unexpected use_glob param: %+v", glob)
	}

	sortBy := findParam(t, defs, "list_processes", "sort_by")
	if len(sortBy.Enum) != 3 || sortBy.Default != "cpu" {
		t.Fatalf("unexpected sort_by param: %+v", sortBy)
	}

	pid := findParam(t, defs, "process_detail", "pid")
	if !pid.Required {
		t.Fatal("pid should be required")
	}
}

func TestSpecs_SchemaJSON(t *testing.T) {
	defs := tools.Registry(tools.Env{Host: &fakeHost{}})
	b, err := json.Marshal(tools.Specs(defs))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var specs []struct {
		Name       string `json:"name"`
		Parameters struct {
			Type                 string                     `json:"type"`
			Properties           map[string]json.RawMessage `json:"properties"`
			Required             []string                   `json:"required"`
			AdditionalProperties *bool                      `json:"additionalProperties"`
			Schema               string                     `json:"$schema"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(b, &specs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, s := range specs {
		if s.Parameters.Type != "object" {
			t.Errorf("%s: parameters type %q", s.Name, s.Parameters.Type)
		}
		if s.Parameters.Schema != "" {
			t.Errorf("%s: unexpected $schema %q", s.Name, s.Parameters.Schema)
		}
		if s.Name == "find_files" {
			if len(s.Parameters.Required) != 1 || s.Parameters.Required[0] != "query" {
				t.Errorf("find_files required = %v", s.Parameters.Required)
			}
			if _, ok := s.Parameters.Properties["timeout_seconds"]; !ok {
				t.Error("find_files missing timeout_seconds")
			}
		}
	}
}
