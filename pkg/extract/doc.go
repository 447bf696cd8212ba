// Package extract walks parsed YAML documents and produces the typed
// cross-file references (role inclusions, task/handler includes,
// variable-file loads) that an artifact makes, in document order.
// Extraction is best-effort: documents whose shape does not match their
// artifact kind yield no references and a malformed-document error that
// callers downgrade to a per-file warning.
package extract
