// Package prompt turns an extracted post context plus a chosen tone into the
// provider-agnostic instruction string, or reports that the context is too
// sparse to work with.
package prompt

import "strings"

// Tone selects the tone-specific instruction block.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneConcise      Tone = "concise"
	ToneFunny        Tone = "funny"
	ToneFriendly     Tone = "friendly"
	ToneProofread    Tone = "proofread"
)

// ToneOption is a menu entry for the injected control.
type ToneOption struct {
	Tone  Tone
	Title string
}

// ToneOptions returns the fixed tone menu, in display order.
func ToneOptions() []ToneOption {
	return []ToneOption{
		{ToneProfessional, "Professional Tone"},
		{ToneConcise, "Concise"},
		{ToneFunny, "Funny Tone"},
		{ToneFriendly, "Friendly Tone"},
		{ToneProofread, "Proofread"},
	}
}

// PostContext carries everything the builder knows about one articulation
// request. Empty strings mean the field is absent. Built fresh per request
// and discarded after it completes.
type PostContext struct {
	Tone        Tone
	Author      string
	Post        string
	UserComment string
}

// Result is the builder's outcome. When IsError is set, ErrorMsg holds the
// user-facing guidance and Prompt is empty.
type Result struct {
	IsError  bool
	ErrorMsg string
	Prompt   string
}

// minWordsRequired is the word count a field must strictly exceed to count
// as present for validation.
const minWordsRequired = 5

// ValidationMsg is surfaced to the user, as if it were the generated
// comment, when neither the post nor the draft gives enough context.
const ValidationMsg = "I can't understand the post. Kindly write something to give me some context about it, and then I'll start writing."

// Build validates the context and composes the instruction string.
func Build(ctx PostContext) Result {
	if wordCount(ctx.Post) <= minWordsRequired && wordCount(ctx.UserComment) <= minWordsRequired {
		return Result{IsError: true, ErrorMsg: ValidationMsg}
	}
	return Result{Prompt: compose(ctx)}
}

// wordCount counts whitespace-delimited words, ignoring empty runs.
func wordCount(text string) int {
	return len(strings.Fields(text))
}

func compose(ctx PostContext) string {
	var sb strings.Builder
	sb.WriteString(framing)
	sb.WriteString("\n\nHere is the context you have to work with:\n\n")
	sb.WriteString("* **LinkedIn Post Content by Author Name:" + orNull(ctx.Author) + " ('postContent'):** " + orNull(ctx.Post) + "\n\n")
	sb.WriteString("* **User's Draft Comment ('userComment'):** " + orNull(ctx.UserComment) + "\n\n")
	sb.WriteString(taskRules)
	sb.WriteString("\n\n**FOLLOWING IS THE TONE-SPECIFIC INSTRUCTIONS:**\n\n")
	sb.WriteString(toneInstructions[ctx.Tone])
	return sb.String()
}

// orNull embeds an absent field the way the page-side implementation did, so
// the combinatorial rules in the task block read naturally.
func orNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}

const framing = `You are an AI assistant integrated into a tool named "Articulate." Your sole purpose is to help users write or refine comments on LinkedIn posts. You must generate a response that is only the comment itself, without any additional text, explanation, or markdown.

Use the same language as of the text of the post you are receiving in the user's prompt. Please sound like a human being. Don't use hashtags, use emojis occasionally, don't repeat too many of the exact words, but simply create a brief and positive reply. Maybe add something to the discussion. Be creative! You may mention the name of the author, if it's the name of a natural person. Don't mention the name if it's the name of a company or a LinkedIn group.`

const taskRules = `**Your Task:**

Based on the provided 'postContent' and 'userComment', generate a single, ready-to-paste comment. Adhere to the following rules based on the information available:

* **If 'userComment' and 'postContent' are both available:** Rewrite the 'userComment' to reflect the chosen tone, using the 'postContent' to ensure the comment is highly relevant and contextual. The core idea of the 'userComment' should be preserved.
* **If only 'postContent' is available ('userComment' is null):** Write a new, insightful comment that directly relates to the 'postContent' in the specified tone.
* **If only 'userComment' is available ('postContent' is null):** Rewrite the 'userComment' to match the chosen tone, focusing solely on the user's text.
* **If neither is available ('postContent' and 'userComment' are null):** Provide a polite, generic, and engaging question to encourage discussion.

**CRITICAL OUTPUT INSTRUCTION:** Your entire response must be only the final comment text. Do not include phrases like "Here is the comment:", "Sure, here you go:", or any other conversational filler. Do not use any markdown.`

var toneInstructions = map[Tone]string{
	ToneProfessional: `Rewrite or generate the comment in a **Professional Tone**. The language should be formal, respectful, and suitable for a corporate or academic audience. Use industry-appropriate terminology if the context allows, but prioritize clarity and conciseness. Avoid slang, overly casual language, and personal anecdotes unless the 'user_comment' already includes them.`,
	ToneConcise: `Rewrite or generate the comment in a **Concise Tone**. The primary goal is to be as brief as possible while retaining the core message. Eliminate any filler words, redundant phrases, or sentences that do not add significant value. The final comment should be direct and to the point.`,
	ToneFunny: `Rewrite or generate the comment in a **Funny Tone**. The humor should be witty, clever, and appropriate for a professional platform like LinkedIn. Avoid anything that could be considered offensive, unprofessional, or a simple joke. Puns, clever observations, or a lighthearted take on the 'postContent' are good options. If the 'postContent' or 'userComment' is serious, lean towards a more subtly humorous and positive observation.`,
	ToneFriendly: `Rewrite or generate the comment in a **Friendly Tone**. The language should be warm, approachable, and encouraging. Use positive language and a conversational style that feels genuine and supportive. Contractions (e.g., "don't," "it's") are acceptable. The goal is to build rapport and create a positive interaction.`,
	ToneProofread: `Your task is to **Proofread** the 'userComment'. Correct any and all spelling, grammar, and punctuation errors. Improve sentence structure for better clarity and flow. **Crucially, do not change the user's original tone or intent**. If no 'userComment' is provided, generate a grammatically perfect, neutral, and insightful question related to the 'postContent'.`,
}

// Valid reports whether t is one of the fixed tones.
func (t Tone) Valid() bool {
	_, ok := toneInstructions[t]
	return ok
}
