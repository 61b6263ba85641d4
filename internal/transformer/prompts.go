package transformer

import (
	"fmt"

	"fjacquet/databonsai/internal/models"
)

func transformPrompt(prompt string) string {
	return fmt.Sprintf(`Use the following prompt to transform the input data:
Prompt: %s
Only reply with the transformed data. Do not make any other conversation.`, prompt)
}

func transformBatchPrompt(prompt string) string {
	return fmt.Sprintf(`Use the following prompt to transform each input:
Prompt: %s
Reply with the transformed inputs, separated by ||, one for each input.
Only reply with the transformed data. Do not make any other conversation.`, prompt)
}

func decomposePrompt(prompt string, schema models.OutputSchema) string {
	return fmt.Sprintf(`Use the following prompt to transform the input data:
Input Data: %s
The transformed data should be a list of dictionaries, where each dictionary has the following schema:
%s
Reply with a JSON-formatted list of dictionaries. Do not make any conversation.`, prompt, schema.JSON())
}

func decomposeBatchPrompt(prompt string, schema models.OutputSchema) string {
	return fmt.Sprintf(`Use the following prompt to transform each input:
Input Data: %s
The transformed data of each input should be a list of dictionaries, where each dictionary has the following schema:
%s
Reply with a JSON-formatted list holding one list of dictionaries for each input, in order. Do not make any conversation.`, prompt, schema.JSON())
}
