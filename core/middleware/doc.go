// Package middleware groups the Fiber middleware of the roster server.
//
//   - auth: API key check on X-API-Key, with a list of public paths such as /health.
//   - rayid: request id taken from X-Ray-ID or generated, stored in the request
//     locals for logger.WithRayID and echoed back in the response.
package middleware
