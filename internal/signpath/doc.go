// Package signpath implements the client side of the SignPath REST API
// that zign drives: submitting an artifact for signing, polling the
// signing request status, and downloading the signed result.
//
// # Wire Protocol
//
// The protocol is fixed by the service and reproduced exactly:
//
//   - POST {base}/v1/{organization}/SigningRequests with a
//     multipart/form-data body carrying the artifact and its metadata.
//     Success is HTTP 201 with a Location header pointing at the status
//     endpoint for the new signing request.
//   - GET {statusUrl} returns a JSON document with the current status,
//     the workflow detail, and (once completed) the download link for
//     the signed artifact.
//   - GET {signedArtifactLink} returns the raw signed bytes.
//
// All requests carry a bearer token in the Authorization header.
//
// # Transient Failures
//
// Every exchange goes through a retrying transport that re-issues the
// request on HTTP 429, 502, 503, 504 and on connection-level failures,
// bounded by both an attempt count and a wall-clock deadline. The delay
// between attempts is a fixed, operator-tunable interval. See RetryPolicy.
//
// Repeated polling of a pending signing request is not retrying and is
// deliberately not handled here; that loop belongs to the signing
// orchestrator.
package signpath
