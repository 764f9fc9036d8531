// Package types defines the core data structures shared by the agent-batch
// callers and API surface, including:
//   - Document chunks and contextualized chunks
//   - Review findings and the synthesized review report
package types
