package scan

// DefaultCatalog returns the curated list of text-generation models the
// scanner checks when no catalog override is configured.
func DefaultCatalog() []string {
	return []string{
		// GPT models
		"openai/gpt-oss-20b",
		"openai/gpt-oss-120b",

		// Llama models
		"meta-llama/Llama-3.2-1B",
		"meta-llama/Llama-3.2-3B",
		"meta-llama/Llama-3.1-8B",
		"meta-llama/Llama-3.1-70B",

		// Mistral models
		"mistralai/Mistral-7B-v0.1",
		"mistralai/Mixtral-8x7B-v0.1",
		"mistralai/Mistral-Nemo-Base-2407",

		// Code-specific models
		"microsoft/DialoGPT-medium",
		"microsoft/CodeBERT-base",
		"Salesforce/codegen-350M-mono",
		"Salesforce/codegen-2B-mono",
		"Salesforce/codegen-6B-mono",
		"bigcode/starcoder2-3b",
		"bigcode/starcoder2-7b",
		"bigcode/starcoder2-15b",

		// Other popular models
		"google/flan-t5-small",
		"google/flan-t5-base",
		"google/flan-t5-large",
		"google/flan-t5-xl",
		"google/flan-t5-xxl",
		"EleutherAI/gpt-j-6B",
		"EleutherAI/gpt-neox-20b",
		"tiiuae/falcon-7b",
		"tiiuae/falcon-40b",
	}
}
