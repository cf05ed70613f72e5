package labels

import "github.com/JaimeStill/tagline/pkg/openapi"

var idParam = &openapi.Parameter{
	Name:        "id",
	In:          "path",
	Required:    true,
	Description: "Label ID",
	Schema:      &openapi.Schema{Type: "string", Format: "uuid"},
}

// Spec holds the OpenAPI operations for label routes.
var Spec = struct {
	List, Hierarchy, Find, Create, Update, Delete *openapi.Operation
}{
	List: &openapi.Operation{
		Summary: "List labels in creation order",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSONArray("Labels", "Label"),
		},
	},
	Hierarchy: &openapi.Operation{
		Summary:     "Label hierarchy",
		Description: "Top-level labels and children grouped by parent id. Labels with a missing parent are listed as roots.",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Hierarchy", "LabelHierarchy"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find a label",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Label", "Label"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create a label",
		RequestBody: openapi.RequestBodyJSON("CreateLabelCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created label", "Label"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Update: &openapi.Operation{
		Summary:     "Update a label",
		Parameters:  []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodyJSON("UpdateLabelCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated label", "Label"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a label and every assignment that uses it",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

// Schemas returns the component schemas referenced by Spec.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Label": {
			Type:     "object",
			Required: []string{"id", "name", "color", "created_at"},
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"name":       {Type: "string"},
				"color":      {Type: "string", Pattern: "^#[0-9a-fA-F]{6}$"},
				"parent_id":  {Type: "string"},
				"created_at": {Type: "string", Format: "date-time"},
			},
		},
		"LabelHierarchy": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"roots":    openapi.ArrayOf("Label"),
				"children": {Type: "object", Description: "Child labels keyed by parent id"},
			},
		},
		"CreateLabelCommand": {
			Type:     "object",
			Required: []string{"name"},
			Properties: map[string]*openapi.Schema{
				"name":      {Type: "string"},
				"color":     {Type: "string", Pattern: "^#[0-9a-fA-F]{6}$"},
				"parent_id": {Type: "string"},
			},
		},
		"UpdateLabelCommand": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name":         {Type: "string"},
				"color":        {Type: "string", Pattern: "^#[0-9a-fA-F]{6}$"},
				"parent_id":    {Type: "string"},
				"clear_parent": {Type: "boolean"},
			},
		},
	}
}
