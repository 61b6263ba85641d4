package categorizer

import (
	"fmt"
	"strings"

	"fjacquet/databonsai/internal/models"
)

const categoryFormat = "Each category is formatted as <category>: <description of data that fits the category>"

func categoryList(categories models.CategorySet) string {
	return "[" + strings.Join(categories.Names(), ", ") + "]"
}

func singlePrompt(categories models.CategorySet) string {
	return fmt.Sprintf(`%s
%s
Classify the given text snippet into one of the following categories:
%s
Only reply with the category. Do not make any other conversation.`,
		categoryFormat, categories.Describe(), categoryList(categories))
}

func batchPrompt(categories models.CategorySet) string {
	return fmt.Sprintf(`%s
%s
Classify each given text snippet into one of the following categories:
%s. Reply with a list of categories, separated by ||, one for each snippet.
Only reply with the categories. Do not make any other conversation.`,
		categoryFormat, categories.Describe(), categoryList(categories))
}

func multiPrompt(categories models.CategorySet) string {
	return fmt.Sprintf(`%s
%s
Classify the given text snippet into one or more of the following categories:
%s
Reply with a comma-separated list of categories. Do not make any other conversation.`,
		categoryFormat, categories.Describe(), categoryList(categories))
}

func multiBatchPrompt(categories models.CategorySet) string {
	return fmt.Sprintf(`%s
%s
Classify each given text snippet into one or more of the following categories:
%s
For each snippet reply with a comma-separated list of categories. Separate the lists with ||, one list for each snippet.
Do not make any other conversation.`,
		categoryFormat, categories.Describe(), categoryList(categories))
}
