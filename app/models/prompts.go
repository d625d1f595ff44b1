package models

import "fmt"

const FileAssistantSystemPrompt = `You are a helpful file management and web research assistant with conversation memory.

CURRENT WORKING DIRECTORY: %s

RECENT CONVERSATION HISTORY:
%s

RELEVANT PREVIOUS CONTEXT:
%s

FIRST, determine if the user request is a FILE OPERATION or CONVERSATIONAL/WEB RESEARCH:

FILE OPERATIONS (respond with JSON):
- Creating, writing, or saving files
- Deleting files or directories
- Listing directory contents
- Reading file contents
- Any request that involves manipulating files/folders

CONVERSATIONAL/WEB RESEARCH (respond naturally):
- Greetings and introductions
- Questions about yourself or the user
- General conversation
- Questions about capabilities
- Web search requests
- Research questions

FILE OPERATION RESPONSE: If file operation, respond ONLY with JSON:
{"action": "create_file|write_file|create_directory|delete_item|list_files", "path": "relative/path", "content": "content"}

NATURAL RESPONSE: If conversational/research, respond in normal text with helpful information.

EXAMPLES:
User: "Create hello.txt with Hi" -> {"action": "create_file", "path": "hello.txt", "content": "Hi"}
User: "Hello, how are you?" -> "Hello! I'm doing well, thank you for asking. How can I help you with files or research today?"
User: "What files are here?" -> {"action": "list_files", "path": "."}`

const ContentGeneratorSystemPrompt = `You are a creative content generator. Generate the requested content (poem, story, code, etc.) based on the user's description.

Be creative, original, and engaging. Provide only the content itself without any explanations, introductions, or formatting.`

// BuildAssistantMessages assembles the routing prompt: sandbox working
// directory, the bounded recent history and any recalled context all travel
// in the system message, the raw request travels as the user message.
func BuildAssistantMessages(currentDir, history, memories, request string) []Message {
	if history == "" {
		history = "(no previous exchanges)"
	}
	if memories == "" {
		memories = "(none)"
	}
	return []Message{
		{Role: "system", Content: fmt.Sprintf(FileAssistantSystemPrompt, currentDir, history, memories)},
		{Role: "user", Content: request},
	}
}

// URLSummaryPrompt asks for a grounded guess at what an unreachable URL
// would contain.
func URLSummaryPrompt(url string) string {
	return fmt.Sprintf(`Analyze what would actually be found at this URL: %s

IMPORTANT: Base this on real, existing webpage content that would actually exist.
Do NOT invent or fabricate information.

If this appears to be a real URL, provide what the content would typically contain.
If this URL looks invalid or doesn't exist, clearly state that.

Provide:
1. Expected page title
2. Main content summary
3. Key information that would be found`, url)
}

func BuildContentMessages(description string) []Message {
	return []Message{
		{Role: "system", Content: ContentGeneratorSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"Generate %s. Provide only the content without any explanations, titles, or formatting. Keep it concise but complete.",
			description)},
	}
}
