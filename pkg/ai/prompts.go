package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/saint0x/issol/pkg/codebase"
	"github.com/saint0x/issol/pkg/intent"
)

const solveSystemPrompt = `You are an AI assistant tasked with generating code solutions based on GitHub issues.
Provide only the code changes required, without any explanations or comments.
Your response should contain only valid code that can be directly inserted into the relevant files.`

const solveUserPrompt = `Given the following context and requirements, generate the necessary code changes:

Problem Description: %s
Desired Outcome: %s
Affected Files: %s

Codebase Context (from branch '%s'):
%s

Please provide only the code changes for each affected file.
Start each file's code with a line containing the file path, like this:
# File: path/to/file.py
[Only the code changes for this file]

# File: path/to/another_file.py
[Only the code changes for this file]

Do not include any explanations, comments, or markdown formatting.
Provide only the actual code changes that should be applied to each file.`

// SolvePrompts builds the system and user prompts asking for file contents
// that resolve the issue. Each file in the reply starts with a
// "# File: <path>" line.
func SolvePrompts(in intent.Intent, branch, codebaseContext string) (system, user string) {
	user = fmt.Sprintf(solveUserPrompt,
		in.ProblemDescription,
		in.DesiredOutcome,
		strings.Join(in.AffectedFiles, ", "),
		branch,
		codebaseContext,
	)
	return solveSystemPrompt, user
}

const stackSystemPrompt = `You are an AI assistant tasked with identifying the tech stack of a software project.
Analyze the provided project information and determine the technologies used.`

const stackUserPrompt = `Based on the following project information, identify the tech stack including:
- Programming languages
- Frameworks and libraries
- Databases
- DevOps tools
- Any other relevant technologies

Project Structure:
%s...

Configuration Files:
%s

README Content:
%s...

File Extensions:
%s

Sample Import Statements:
%s

Please provide a detailed tech stack identification, explaining your reasoning for each technology identified.`

const excerptLen = 500

// StackPrompts builds the prompts for identifying the tech stack of a
// profiled codebase.
func StackPrompts(p *codebase.Profile) (system, user string) {
	imports := p.Imports
	if imports == nil {
		imports = []string{}
	}
	user = fmt.Sprintf(stackUserPrompt,
		truncate(p.Structure, excerptLen),
		indentJSON(p.ConfigFiles),
		truncate(p.Readme, excerptLen),
		indentJSON(p.Extensions),
		indentJSON(imports),
	)
	return stackSystemPrompt, user
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
