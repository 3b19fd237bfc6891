package main

import (
	"testing"

	"github.com/pipeforge/pipeforge/pipelineyaml"
	"github.com/pipeforge/pipeforge/validate"
)

func TestTemplateCatalog_AllParseAndValidateCleanly(t *testing.T) {
	for _, tmpl := range templateCatalog {
		t.Run(tmpl.Name, func(t *testing.T) {
			def, err := pipelineyaml.Load([]byte(tmpl.Body))
			if err != nil {
				t.Fatalf("template %s failed to parse: %v", tmpl.Name, err)
			}
			if len(def.Stages) == 0 {
				t.Fatalf("template %s has no stages", tmpl.Name)
			}

			result := validate.Check(def)
			if result.HasErrors() {
				t.Fatalf("template %s has validation errors: %+v", tmpl.Name, result.Messages)
			}
		})
	}
}

func TestTemplateCatalog_RoundTripsThroughSaveLoad(t *testing.T) {
	for _, tmpl := range templateCatalog {
		t.Run(tmpl.Name, func(t *testing.T) {
			def, err := pipelineyaml.Load([]byte(tmpl.Body))
			if err != nil {
				t.Fatal(err)
			}
			stageCount := len(def.Stages)
			varCount := len(def.Variables)

			data, err := pipelineyaml.Save(def)
			if err != nil {
				t.Fatal(err)
			}
			reloaded, err := pipelineyaml.Load(data)
			if err != nil {
				t.Fatal(err)
			}
			if len(reloaded.Stages) != stageCount {
				t.Fatalf("stage count changed across round-trip: %d -> %d", stageCount, len(reloaded.Stages))
			}
			if len(reloaded.Variables) != varCount {
				t.Fatalf("variable count changed across round-trip: %d -> %d", varCount, len(reloaded.Variables))
			}
			if reloaded.Name != def.Name {
				t.Fatalf("name changed across round-trip: %q -> %q", def.Name, reloaded.Name)
			}
		})
	}
}

func TestFindTemplate_UnknownReturnsFalse(t *testing.T) {
	if _, ok := findTemplate("does-not-exist"); ok {
		t.Fatal("expected unknown template name to return false")
	}
}
