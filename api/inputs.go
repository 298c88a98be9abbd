package api

// Inputs are the step inputs, collected once at the process boundary.
type Inputs struct {
	// File is the configuration file to read. Required.
	File string `json:"file"`
	// Path is a path expression addressing the value to read or replace.
	Path string `json:"path,omitempty"`
	// Value is the replacement, parsed as a JSON literal when possible.
	Value string `json:"value,omitempty"`
	// Write enables writing the updated document back to disk.
	Write bool `json:"write,omitempty"`
	// Output is an alternate destination for the updated document.
	Output string `json:"output,omitempty"`
	// Format overrides detection by file extension (toml, json, yaml, hcl).
	Format string `json:"format,omitempty"`
	// Syntax selects the path language: jsonpath (default) or jq.
	Syntax string `json:"syntax,omitempty"`
	// PatchOutput is where a JSON Patch describing the edit is written.
	PatchOutput string `json:"patch_output,omitempty"`
}

// ShouldWrite reports whether the updated document is written to disk.
func (in Inputs) ShouldWrite() bool {
	return in.Write && (in.Value != "" || in.Output != "")
}

// Destination returns the path the document is written to.
func (in Inputs) Destination() string {
	if in.Output != "" {
		return in.Output
	}
	return in.File
}

// Outputs are the step outputs.
type Outputs struct {
	// Value is the resolved value as text; empty when no path was given.
	Value string `json:"value"`
	// Data is the full document as JSON.
	Data string `json:"data"`
	// Content is the encoded document.
	Content string `json:"content"`
	// Format names the codec used; Content is also published under this name.
	Format string `json:"format"`
	// Patch is the JSON Patch for the edit, empty when nothing was written.
	Patch string `json:"patch,omitempty"`
}

// Pairs returns the outputs in the order they are published.
func (o Outputs) Pairs() [][2]string {
	pairs := [][2]string{
		{"value", o.Value},
		{"data", o.Data},
		{"content", o.Content},
	}
	if o.Format != "" {
		pairs = append(pairs, [2]string{o.Format, o.Content})
	}
	if o.Patch != "" {
		pairs = append(pairs, [2]string{"patch", o.Patch})
	}
	return pairs
}
