package ai

// MergeConfirmPrompt asks the model for a yes/no decision per candidate
// pair. %s is the serialized pair list.
const MergeConfirmPrompt = `
# Task Context
You are a helpful assistant specialized in reconciling near-duplicate concept mentions extracted from research papers. You will be provided with a list of candidate entity pairs.

# Background Data
%s

# Detailed Task Description & Rules
- For each pair, decide whether both names refer to the SAME real-world concept.
- Mentions of the same concept may differ in casing, hyphenation, abbreviation, or acronym use (e.g., "fine-tuning" vs "finetuning", "Stochastic Gradient Descent" vs "SGD").
- Be careful: entities with distinct identities must remain separate even when names are similar (e.g., "BERT" and "RoBERTa", "precision" and "average precision").
- Use the definitions to disambiguate. When the definitions describe clearly different things, answer false regardless of name similarity.
- Give a confidence between 0.0 and 1.0 for every decision.

# Examples
Same concept:
- "LoRA" and "Low-Rank Adaptation"
- "t-SNE" and "t-distributed stochastic neighbor embedding"

Not the same concept:
- "attention" (neural mechanism) and "attention" (cognitive psychology construct)
- "F1" and "accuracy"

# Output Formatting
Return a JSON object with this structure:
{
  "decisions": [
    {
      "pair_id": "<id from the input>",
      "same_concept": true,
      "confidence": 0.95
    }
  ]
}
Return one decision per input pair, in any order. Output must be valid JSON only.
`

// ClusterLabelPrompt asks the model for a short descriptive cluster
// label. First %s is the keyword list, second %s is the exemplar list.
const ClusterLabelPrompt = `
# Task Context
You are an assistant that names groups of related research concepts.

# Background Data
- Frequent terms: [%s]
- Exemplar concepts: [%s]

# Detailed Task Description & Rules
- Produce ONE short, specific, human-readable label describing what unites the group.
- Between 3 and 60 characters.
- Never use generic placeholders such as "Cluster 3", "Group A", or "Miscellaneous".
- Prefer established field terminology over invented phrases.

# Output Formatting
Return JSON with the following structure:
{
  "label": string
}
Output must be valid JSON only (no commentary, no extra text).
`

// BridgeHypothesisPrompt asks the model to phrase a research question
// bridging two weakly connected clusters. Arguments: label A, exemplars
// A, label B, exemplars B, bridge candidate names.
const BridgeHypothesisPrompt = `
# Task Context
You are an assistant that proposes research questions connecting weakly linked areas of a concept graph.

# Background Data
- Cluster A: "%s" with concepts [%s]
- Cluster B: "%s" with concepts [%s]
- Concepts already touching both clusters: [%s]

# Detailed Task Description & Rules
- Phrase ONE concise research question (a single sentence) exploring how the two clusters could be bridged.
- Ground the question in the listed concepts; do not invent entities that are not present.
- The question should be specific enough to be actionable, not a generic "how do A and B relate?".

# Output Formatting
Return JSON with the following structure:
{
  "hypothesis": string
}
Output must be valid JSON only (no commentary, no extra text).
`
