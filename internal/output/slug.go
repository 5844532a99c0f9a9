package output

import "strings"

// slugChars keeps letters, digits, hyphen and underscore; everything else
// is dropped after the replacements below.
func cleanSlug(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// WeekPageSlug builds the Canvas URL slug for a weekly page from the week
// number and title.
func WeekPageSlug(weekNum, title string) string {
	num := strings.ToLower(weekNum)
	t := strings.ToLower(title)
	t = strings.ReplaceAll(t, " ", "_")
	t = strings.ReplaceAll(t, "/", "_")
	if len(t) > 30 {
		t = t[:30]
	}
	slug := cleanSlug("week-" + strings.ReplaceAll(num, " ", "_") + "-" + t)
	if slug == "" {
		slug = "week_" + num + "_page"
	}
	return slug
}

// AssignmentSlug builds a filesystem- and URL-safe slug for an assignment
// title, capped at 50 characters.
func AssignmentSlug(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = cleanSlug(s)
	if len(s) > 50 {
		s = s[:50]
	}
	if s == "" {
		s = "assignment"
	}
	return s
}

// WikiFileSlug builds the filename slug for local wiki assignment pages,
// separating words with hyphens.
func WikiFileSlug(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "_")
	s = cleanSlug(s)
	if s == "" {
		s = "page"
	}
	return s
}

// TitleSlug reduces a course title to a short identifier for filenames.
func TitleSlug(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, " ", "_")
	var b strings.Builder
	for _, c := range s {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' {
			b.WriteRune(c)
		}
	}
	out := b.String()
	if len(out) > 30 {
		out = out[:30]
	}
	if out == "" {
		out = "course"
	}
	return out
}
