package embedded

import (
	_ "embed"
)

// Embed prompt data files
//
//go:embed data/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/similarity_prompt.tmpl
var SimilarityPromptTmpl []byte
