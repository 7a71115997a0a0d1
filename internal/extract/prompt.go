package extract

import "fmt"

const systemPrompt = `You are a QA analysis assistant. You are given a window of timestamped transcript segments from a narrated screen recording. The narrator is describing what they see on screen and may mention bugs, errors, or unexpected behavior.

Your job: identify any software failure events described in this transcript window.

For each failure, output a JSON object with these exact fields:
- timestamp_seconds (float): the start time of the segment where the failure is described
- title (string): a short title summarizing the failure (max 10 words)
- expected (string): what should have happened
- actual (string): what actually happened
- evidence (string): exact quote(s) from the transcript that support this failure
- confidence (float 0-1): how confident you are this is a real software failure

Rules:
- Output ONLY a JSON array of failure objects. No markdown, no explanation.
- If no failures are found, output an empty array: []
- The evidence field MUST contain actual text from the provided transcript segments.
- Do not invent failures not supported by the transcript.
- A failure is a software bug, UI issue, or unexpected behavior - NOT user confusion or feature requests.`

func repairPrompt(cause error) string {
	return fmt.Sprintf(`Your previous response was not valid: %v. Please output ONLY a valid JSON array of failure event objects (or [] if none). No markdown fences, no explanation, just the raw JSON array.`, cause)
}
