package labels

import (
	"regexp"

	"github.com/JaimeStill/tagline/pkg/query"
	"github.com/JaimeStill/tagline/pkg/repository"
)

var projection = query.
	NewProjectionMap("labels", "l").
	Project("id", "ID").
	Project("name", "Name").
	Project("color", "Color").
	Project("parent_id", "ParentID").
	Project("created_at", "CreatedAt")

var catalogOrder = []query.SortField{
	{Field: "CreatedAt"},
	{Field: "ID"},
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func scanLabel(s repository.Scanner) (Label, error) {
	var l Label
	err := s.Scan(&l.ID, &l.Name, &l.Color, &l.ParentID, &l.CreatedAt)
	return l, err
}
