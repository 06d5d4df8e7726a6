package orchestrator

import "fmt"

const parentContextChars = 200

const rootSystemPrompt = `You are a research assistant. Answer the user's query directly and thoroughly. ` +
	`Cite your sources with numbered references inline, and end your response with a line reading exactly ` +
	`"Sources:" followed by one source URL per line.`

const followUpSystemPromptTemplate = `You are a research assistant continuing a conversation. The prior answer began: %q. ` +
	`Answer the user's follow-up query, staying consistent with that context. ` +
	`Cite your sources with numbered references inline, and end your response with a line reading exactly ` +
	`"Sources:" followed by one source URL per line.`

// systemPrompt selects the root or follow-up prompt. parentContent, when
// non-empty, signals this is a follow-up query and is truncated to its
// first parentContextChars characters for use as context.
func systemPrompt(parentContent string) string {
	if parentContent == "" {
		return rootSystemPrompt
	}

	snippet := parentContent
	if len(snippet) > parentContextChars {
		snippet = snippet[:parentContextChars]
	}

	return fmt.Sprintf(followUpSystemPromptTemplate, snippet)
}
