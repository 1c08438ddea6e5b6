// Package pipeline holds the content transformation stages shared by the
// build and render paths:
//   - SVG cleanup of renderer output (CleanSVG)
//   - MDX component rewriting ahead of CommonMark conversion
//   - Markdown to HTML conversion via goldmark, with diagram code blocks
//     replaced by resolver output
//   - relinking of relative references in rendered fragments
package pipeline
