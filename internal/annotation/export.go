package annotation

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"pcb-annotator/pkg/geometry"
)

const exportIndent = "    "

// Fields are the editable metadata of an annotation.
type Fields struct {
	ID          string
	Name        string
	Description string
}

// DefaultPlaceholders are the placeholder texts shown in empty metadata fields.
var DefaultPlaceholders = Fields{
	ID:          PlaceholderID,
	Name:        PlaceholderName,
	Description: PlaceholderDescription,
}

// ApplyEdit writes edited fields into a. Empty fields fall back to the
// matching placeholder.
func ApplyEdit(a *Annotation, f Fields, placeholders Fields) {
	a.ID = orPlaceholder(f.ID, placeholders.ID)
	a.Name = orPlaceholder(f.Name, placeholders.Name)
	a.Description = orPlaceholder(f.Description, placeholders.Description)
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

// ExportJSON renders the annotation as indented JSON with the fields id,
// name, description and coordinates in that order. Coordinates stay on one
// line.
func ExportJSON(a *Annotation) string {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for _, kv := range [][2]string{
		{"id", a.ID},
		{"name", a.Name},
		{"description", a.Description},
	} {
		buf.WriteString(exportIndent)
		buf.WriteString(quote(kv[0]))
		buf.WriteString(": ")
		buf.WriteString(quote(kv[1]))
		buf.WriteString(",\n")
	}
	buf.WriteString(exportIndent)
	buf.WriteString(`"coordinates": `)
	buf.WriteString(coordinateArray(a.Coordinates))
	buf.WriteString("\n}")
	return buf.String()
}

// ExportAll renders a list of annotations as a JSON array, each element in
// the ExportJSON layout.
func ExportAll(anns []*Annotation) string {
	if len(anns) == 0 {
		return "[]"
	}
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, a := range anns {
		lines := strings.Split(ExportJSON(a), "\n")
		for j, line := range lines {
			buf.WriteString(exportIndent)
			buf.WriteString(line)
			if j < len(lines)-1 {
				buf.WriteByte('\n')
			}
		}
		if i < len(anns)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]")
	return buf.String()
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a plain string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func coordinateArray(points []geometry.PointInt) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, p := range points {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(p.X))
		sb.WriteString(", ")
		sb.WriteString(strconv.Itoa(p.Y))
		sb.WriteByte(']')
	}
	sb.WriteByte(']')
	return sb.String()
}
