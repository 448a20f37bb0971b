package prompt

import (
	"encoding/json"
	"fmt"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior code reviewer generating candidate fixes for submitted source code. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object with a top-level "result" key.
- When the submission cannot be fixed automatically and needs explicit human sign-off, set result.status to "pending" and explain why in result.message; omit every other field.
- Otherwise assign a short opaque result.submission_id, list detected defects in result.issues, and pair each issue positionally with one entry in result.dashboard.diff_views.
- Each diff view must carry "before" and "after" snippets plus an "explanation".
- issues and dashboard.diff_views must have the same length.

Schema (example with empty values):
{
  "result": {
    "status": "<omit unless pending>",
    "message": "<string, pending only>",
    "submission_id": "<string>",
    "issues": [
      {"type": "<string>", "description": "<string>", "severity": "<string>"}
    ],
    "dashboard": {
      "diff_views": [
        {"type": "<string>", "before": "<string>", "after": "<string>", "explanation": "<string>"}
      ]
    }
  }
}`
}

// GetUserPrompt wraps the submitted payload into a compact user message.
func GetUserPrompt(inputData any) string {
	b, err := json.Marshal(inputData)
	if err != nil {
		return fmt.Sprintf("Analyze this submission and respond with the JSON per schema. Submission: %v", inputData)
	}
	return fmt.Sprintf("Analyze this submission and respond with the JSON per schema. Submission: %s", b)
}
