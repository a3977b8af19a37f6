package poi

import (
	"fmt"
	"strings"
)

// maxAttrLen caps rendered attribute values and element text; longer values
// are cut to maxAttrLen-1 runes plus an ellipsis.
const maxAttrLen = 2500

// selfContainedTags render without a closing tag. Several are not
// interactive but are kept for completeness.
var selfContainedTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var lineBreaks = strings.NewReplacer("\r\n", "⏎", "\r", "⏎", "\n", "⏎")

// RenderMark renders one description as a single pseudo-HTML line the
// model reads, e.g. `- [7] <button type="submit">Submit</button>`. Boolean
// attributes render bare when true and are omitted when false; line breaks
// are substituted so every mark stays on one line.
func RenderMark(id int, d Description) string {
	var attrs []string
	appendStr := func(name string, v *string) {
		if v != nil {
			attrs = append(attrs, fmt.Sprintf("%s=%q", name, truncate(*v)))
		}
	}
	appendBool := func(name string, v *bool) {
		if v != nil && *v {
			attrs = append(attrs, name)
		}
	}
	appendStr("value", d.Value)
	appendStr("placeholder", d.Placeholder)
	appendStr("type", d.Type)
	appendStr("aria-label", d.AriaLabel)
	appendStr("name", d.Name)
	appendBool("required", d.Required)
	appendBool("disabled", d.Disabled)
	appendStr("pattern", d.Pattern)
	appendBool("checked", d.Checked)
	appendStr("minlength", d.MinLength)
	appendStr("maxlength", d.MaxLength)
	appendStr("role", d.Role)
	appendStr("title", d.Title)
	if d.Scrollable {
		attrs = append(attrs, "scrollable")
	}

	attrStr := ""
	if len(attrs) > 0 {
		attrStr = " " + lineBreaks.Replace(strings.Join(attrs, " "))
	}
	tag := strings.ToLower(d.Tag)
	text := lineBreaks.Replace(truncate(d.Text))

	if selfContainedTags[tag] && text == "" {
		return fmt.Sprintf("- [%d] <%s%s/>", id, tag, attrStr)
	}
	return fmt.Sprintf("- [%d] <%s%s>%s</%s>", id, tag, attrStr, text, tag)
}

// RenderResult renders the whole pass, one mark per line, the textual
// counterpart of the annotated screenshot.
func RenderResult(r Result) string {
	lines := make([]string, 0, len(r.Descriptions))
	for i, d := range r.Descriptions {
		lines = append(lines, RenderMark(i, d))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxAttrLen {
		return s
	}
	return string(runes[:maxAttrLen-1]) + "…"
}
