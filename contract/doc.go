// Package contract implements versioned, schema-driven API endpoint
// definitions and the engine that resolves them at request time.
//
// # Definitions
//
// Endpoints are built from already-deserialized maps shaped as:
//
//	name: user-show
//	route: /users/:id
//	method: GET
//	definitions:
//	  - versions: ["1.0"]
//	    message_type: response   # default
//	    status_codes: ["2xx"]    # default: every code
//	    schema: {...}
//	    examples: [...]
//
// Each version of each definition block becomes a [Definition] whose schema is
// made strict once at construction (see [Strictify]): undeclared properties
// are rejected and properties are required unless marked "optional: true".
//
// # Resolution
//
// [Endpoints.FindDefinition] resolves method, path, message type, version and
// status code to one definition. The "not found" outcome is reported through
// the boolean result so callers can answer with an "unavailable version"
// response instead of treating it as a failure.
//
// # Errors
//
// Construction problems fail fast with typed errors ([KeyNotFoundError],
// [StatusCodeMatcherArgumentError], [InvalidEndpointError]). Validation
// failures return a [*ValidationError] listing every schema error. All error
// types match their Err* sentinel with errors.Is.
package contract
