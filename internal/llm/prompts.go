package llm

const ExtractFactsPrompt = `You are a memory extraction system for a fitness and nutrition coach. Analyze the user's messages below and extract durable facts about the user.

For each fact, determine:
- type: one of "preference", "goal", "constraint", "achievement", "routine"
- content: a clear, concise statement about the user
- confidence: 0.0 to 1.0; use 1.0 for allergies, lower values for hedged statements ("maybe", "I think")
- metadata: optional string map, e.g. {"time":"morning"}, {"allergen":"peanuts"}, {"bodyPart":"knee"}, {"target":"10","unit":"kg"}

Injuries, allergies and things the user must avoid are always "constraint".

Respond ONLY with a JSON array. No markdown, no explanation. Example:
[{"type":"preference","content":"Prefers morning workouts","confidence":0.8,"metadata":{"time":"morning"}}]

If no facts can be extracted, respond with an empty array: []

Messages:
%s`

const SummarizeConversationPrompt = `Summarize this coaching conversation in two or three sentences. Focus on what the user wants, what was agreed, and anything the coach should remember next time.

Respond with ONLY the summary text. No explanation, no formatting.

Conversation:
%s`

const VerifyOutputPrompt = `You are reviewing a response produced by another model.

Original request:
%s

Response:
%s

Check the response against these criteria:
%s

Respond ONLY with JSON, no markdown:
{"is_valid":true,"issues":[]}`
