package classify

import (
	"strings"

	"github.com/tbourn/campuspulse-backend/internal/domain"
)

// BuildPrompt renders the instruction sent to the model for one complaint.
// The model is asked for a single flat JSON object with exactly the five
// classification fields and nothing around it; parseOutput still tolerates
// fences and prose because the model does not always comply.
func BuildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an intelligent complaint analysis system for a university campus.\n")
	b.WriteString("Analyze the following complaint text and extract structured data.\n\n")
	b.WriteString("Complaint: \"")
	b.WriteString(strings.ReplaceAll(text, `"`, `\"`))
	b.WriteString("\"\n\n")
	b.WriteString("Return a single flat JSON object with exactly these fields:\n")
	b.WriteString("- category: (String) One of [" + join(domain.Categories) + "]\n")
	b.WriteString("- urgency: (String) One of [" + join(domain.Urgencies) + "]\n")
	b.WriteString("- sentiment: (String) One of [" + join(domain.Sentiments) + "]\n")
	b.WriteString("- summary: (String) A concise summary of the issue (max 10 words).\n")
	b.WriteString("- suggested_action: (String) A recommended action for the admin.\n\n")
	b.WriteString("Output only the JSON object. Do not wrap it in markdown code blocks and do not add any other text.\n")
	return b.String()
}

func join[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
