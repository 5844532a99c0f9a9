package aggregate

import (
	"canversion/internal/fragment"
	"canversion/internal/table"
)

// ClassMeta carries the configured class identity merged into
// class_details. Identification fields always win; title and description
// only when non-blank.
type ClassMeta struct {
	ID                string
	DepartmentCode    string
	UnitCode          string
	Semester          string
	Year              string
	Title             string
	Description       string
	CanvasCourseID    string
	DokuwikiNamespace string
}

// Inputs collects every loaded source the context assembler draws from.
// Nil maps and indexes are treated as empty.
type Inputs struct {
	ClassInfo     map[string]any
	Bibliography  any
	Schedule      table.Table
	Details       []Detail
	Topics        *fragment.Index
	Assignments   table.Table
	Instructions  *fragment.Index
	StaticPages   []StaticPage
	Outlines      *fragment.Index
	Scripts       *fragment.Index
	Meta          ClassMeta
	TeachingStaff map[string]any
	UserDetails   map[string]any
}

// BuildContext assembles the complete rendering context. The returned map
// always carries all seven top-level keys; sources that failed to load
// contribute their empty shapes.
func (p *Processor) BuildContext(in Inputs) map[string]any {
	if in.Outlines == nil {
		in.Outlines = fragment.New()
	}
	if in.Scripts == nil {
		in.Scripts = fragment.New()
	}
	biblio := in.Bibliography
	if biblio == nil {
		biblio = []any{}
	}
	return map[string]any{
		"class_details":           p.classDetails(in),
		"bibliography_data":       biblio,
		"weeks":                   p.Weeks(in.Schedule, in.Details, in.Topics),
		"assignments":             p.Assignments(in.Assignments, in.Instructions),
		"static_pages_structured": p.StaticPages(in.StaticPages),
		"lecture_outlines":        in.Outlines.Map(),
		"lecture_scripts":         in.Scripts.Map(),
	}
}

// classDetails overlays configured class metadata on top of the loaded
// class info document.
func (p *Processor) classDetails(in Inputs) map[string]any {
	details := make(map[string]any, len(in.ClassInfo)+8)
	for k, v := range in.ClassInfo {
		details[k] = v
	}
	details["department_code"] = in.Meta.DepartmentCode
	details["unit_code"] = in.Meta.UnitCode
	details["semester"] = in.Meta.Semester
	details["year"] = in.Meta.Year
	details["canvas_course_id"] = in.Meta.CanvasCourseID
	details["dokuwiki_namespace"] = in.Meta.DokuwikiNamespace
	if in.Meta.Title != "" {
		details["title"] = in.Meta.Title
	}
	if in.Meta.Description != "" {
		details["description"] = in.Meta.Description
	}
	staff := in.TeachingStaff
	if staff == nil {
		staff = map[string]any{}
	}
	details["teaching_staff"] = staff
	user := in.UserDetails
	if user == nil {
		user = map[string]any{}
	}
	details["user_details"] = user
	return details
}
