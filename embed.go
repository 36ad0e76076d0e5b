package portfolioassistant

import _ "embed"

// PersonaTemplate is the text/template source of the assistant's persona preamble. It is rendered once
// at startup with the facts that change over time, such as the subject's current age.
//
//go:embed persona.tmpl
var PersonaTemplate string
