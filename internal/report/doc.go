// Package report writes job summaries and result files.
//
// Writers render the same []*model.Job in three formats:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: a Markdown document (nao1215/markdown) for sharing
//   - JSONWriter: structured output for scripts
//
// SaveResultSet writes the encoded images of a result set to disk under
// their crop_<n>.png names.
package report
