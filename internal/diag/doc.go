// Package diag defines the diagnostic model shared by the lexer, parser,
// JSON loader and inference passes.
//
// Producers emit through a Reporter (usually a BagReporter) so that
// storage and rendering stay outside the phases. Rendering lives in
// internal/diagfmt; the driver decides whether a Bag with errors aborts
// compilation.
//
// Diagnostic is data only:
//
//   - Severity: Info, Warning or Error.
//   - Code: compact numeric identifier with a stable string form (LEX/SYN/SEM/IO).
//   - Message: short human text.
//   - Primary: the span the diagnostic points at.
//   - Notes: secondary spans that add context ("declared here").
//
// Inference never reports ambiguity: an expression that cannot be typed
// statically becomes Dynamic. Only genuine compile errors (unresolved
// names, duplicate bindings, static arity mismatches) are errors;
// statically certain runtime failures are warnings.
package diag
