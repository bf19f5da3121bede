// Package llm talks to an OpenAI-compatible chat completion endpoint to get a
// structured verdict on whether a performer is an artificial act. It is used
// as a fallback when the metadata sources cannot reach agreement.
package llm
