package advisor

import "fmt"

const systemPrompt = `
You evaluate progress updates for personal goals.

Given a goal and a free-text progress update, estimate how close the person is
to completing the goal and explain the estimate in one or two sentences.

Rules:
1. The percentage is a number between 0 and 100.
2. Base the estimate only on the update and the goal; do not invent facts.
3. Keep the analysis short, concrete and encouraging.
4. Reply with pure, valid JSON and nothing else:

{
  "percentage": <number between 0-100>,
  "analysis": "<brief explanation>"
}
`

func BuildUserPrompt(goalDescription, updateText string) string {
	return fmt.Sprintf("Goal: %s\nProgress Update: %s", goalDescription, updateText)
}
