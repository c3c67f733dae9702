package generate

import "strings"

const fence = "```"

var labeledFences = []string{"```yaml", "```yml"}

// ExtractYAML pulls the YAML document out of a model response.
//
// A response fenced with a yaml label yields the first labeled segment; an
// unlabeled fence yields the first fenced segment; anything else is used as
// is. The result is always trimmed.
func ExtractYAML(response string) string {
	clean := strings.TrimSpace(response)

	for _, open := range labeledFences {
		if _, after, ok := strings.Cut(clean, open); ok {
			return firstSegment(after)
		}
	}
	if _, after, ok := strings.Cut(clean, fence); ok {
		return firstSegment(after)
	}
	return clean
}

func firstSegment(s string) string {
	segment, _, _ := strings.Cut(s, fence)
	return strings.TrimSpace(segment)
}
