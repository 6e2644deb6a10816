// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - Auth: API key validation protecting every inventory route.
//   - RayID: a unique request id per request, stored in fiber locals and echoed
//     in the X-Ray-ID response header for log correlation.
package middleware
