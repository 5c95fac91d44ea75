package aigen

// Default system prompts. Callers may supply their own for code generation,
// the workflow prompt is fixed so the output stays machine-parseable.

const defaultCodeSystemPrompt = `You are an expert JavaScript developer writing transform functions for a workflow engine.
Write a single self-contained JavaScript snippet that reads its input from the variable "event" and assigns its output to "result".
Use only standard ECMAScript, no imports, no require, no async.
Respond with the code only, inside a single fenced code block.`

const workflowSystemPrompt = `You are a workflow designer. Produce a complete workflow definition as JSON with this shape:
{"name": string, "nodes": [{"id": string, "name": string, "type": string, "config": object}], "edges": [{"from": string, "to": string}]}
Every edge must reference node ids that exist. Respond with the JSON only, inside a single fenced code block.`
