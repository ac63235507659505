package htmlutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Field struct {
	Name  string
	Value string
}

var excludedInputTypes = map[string]struct{}{
	"submit": {},
	"button": {},
	"image":  {},
	"reset":  {},
	"file":   {},
}

// SerializeForm returns the successful controls of a form in document order,
// the same way jQuery's serializeArray does.
func SerializeForm(form *goquery.Selection) []Field {
	var fields []Field
	form.Find("input, select, textarea").Each(func(_ int, control *goquery.Selection) {
		name, ok := control.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, disabled := control.Attr("disabled"); disabled {
			return
		}
		if control.Closest("fieldset[disabled]").Length() > 0 {
			return
		}

		switch goquery.NodeName(control) {
		case "select":
			fields = append(fields, selectFields(name, control)...)
		case "textarea":
			fields = append(fields, Field{
				Name:  name,
				Value: normalizeNewlines(control.Text()),
			})
		default:
			inputType := strings.ToLower(control.AttrOr("type", "text"))
			if _, excluded := excludedInputTypes[inputType]; excluded {
				return
			}
			if inputType == "checkbox" || inputType == "radio" {
				if _, checked := control.Attr("checked"); !checked {
					return
				}
				fields = append(fields, Field{Name: name, Value: control.AttrOr("value", "on")})
				return
			}
			fields = append(fields, Field{
				Name:  name,
				Value: normalizeNewlines(control.AttrOr("value", "")),
			})
		}
	})
	return fields
}

func selectFields(name string, control *goquery.Selection) []Field {
	options := control.Find("option")
	selected := options.FilterFunction(func(_ int, o *goquery.Selection) bool {
		_, ok := o.Attr("selected")
		return ok
	})

	_, multiple := control.Attr("multiple")
	if multiple {
		var fields []Field
		selected.Each(func(_ int, o *goquery.Selection) {
			fields = append(fields, Field{Name: name, Value: optionValue(o)})
		})
		return fields
	}

	if selected.Length() > 0 {
		return []Field{{Name: name, Value: optionValue(selected.Last())}}
	}
	if options.Length() > 0 {
		return []Field{{Name: name, Value: optionValue(options.First())}}
	}
	return nil
}

func optionValue(option *goquery.Selection) string {
	if value, ok := option.Attr("value"); ok {
		return value
	}
	return CollapseWhitespace(option.Text())
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
