package quizgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"clipquiz/internal/domain"
)

const promptHeader = "Based on the following transcript, generate a quiz in valid JSON format.\n\n" +
	"The quiz must follow this exact structure:"

const promptRequirements = `Requirements:
- Each question must have exactly %d distinct answer options.
- Only one correct answer is allowed per question, and it must be present in 'question_options' exactly as written.
- The output must be valid JSON and parsable as-is.
- Do not include explanations, comments, or any text outside the JSON.`

type promptQuestion struct {
	QuestionTitle   string   `json:"question_title"`
	QuestionOptions []string `json:"question_options"`
	Answer          string   `json:"answer"`
}

type promptStructure struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Questions   []promptQuestion `json:"questions"`
}

// BuildPrompt renders the fixed instruction template around transcript.
func BuildPrompt(transcript domain.Transcript, questionCount int) string {
	structure := promptStructure{
		Title:       "Create a concise quiz title based on the topic of the transcript.",
		Description: fmt.Sprintf("Summarize the transcript in no more than %d characters.", domain.MaxDescriptionLength),
		Questions: []promptQuestion{{
			QuestionTitle:   "The question goes here.",
			QuestionOptions: []string{"Option A", "Option B", "Option C", "Option D"},
			Answer:          "The correct answer from the above options",
		}},
	}
	example, _ := json.MarshalIndent(structure, "", "  ")

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n")
	b.Write(example)
	fmt.Fprintf(&b, "\n    ...\n    (exactly %d questions)\n", questionCount)
	b.WriteString("\n")
	fmt.Fprintf(&b, promptRequirements, domain.OptionsPerQuestion)
	b.WriteString("\n\nTranscript:\n")
	b.WriteString(string(transcript))
	return b.String()
}
